package badger

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/poiesic/idrak/core"
)

// Key prefixes for different data types
const (
	notePrefix      = "note"
	noteDatePrefix  = "noted"
	noteEmbedPrefix = "noteemb"
)

// Owners are free-form strings; hex keeps ':' inside an owner from
// colliding with the key separator.
func ownerSegment(prefix, owner string) []byte {
	buf := make([]byte, 0, len(prefix)+2+hex.EncodedLen(len(owner)))
	buf = append(buf, prefix...)
	buf = append(buf, ':')
	buf = hex.AppendEncode(buf, []byte(owner))
	return append(buf, ':')
}

// makeNoteKey generates the primary key for a note.
// Format: note:hex(owner):id
func makeNoteKey(owner string, id core.ID) []byte {
	return append(ownerSegment(notePrefix, owner), id...)
}

// makeEmbeddingKey generates the key holding a note's embedding.
// Format: noteemb:hex(owner):id
func makeEmbeddingKey(owner string, id core.ID) []byte {
	return append(ownerSegment(noteEmbedPrefix, owner), id...)
}

// makeNoteDateKey generates a composite key for the update-time index.
// Format: noted:hex(owner):timestamp:id
func makeNoteDateKey(owner string, updatedAt time.Time, id core.ID) []byte {
	buf := ownerSegment(noteDatePrefix, owner)
	// BigEndian so lexicographic order is chronological
	buf = binary.BigEndian.AppendUint64(buf, dateOrder(updatedAt))
	return append(buf, id...)
}

// dateOrder flips the sign bit so times before 1970 sort ahead of later
// ones instead of wrapping to the top of the range.
func dateOrder(t time.Time) uint64 {
	return uint64(t.UnixMicro()) ^ (1 << 63)
}

// makeNoteDateSeekKey sorts after every entry in owner's update-time
// index: the timestamp is maxed out and ids are ASCII, below 0xFF.
func makeNoteDateSeekKey(owner string) []byte {
	buf := ownerSegment(noteDatePrefix, owner)
	buf = binary.BigEndian.AppendUint64(buf, math.MaxUint64)
	return append(buf, 0xFF)
}

// makeNoteDatePrefix generates the prefix covering all of owner's
// entries in the update-time index.
func makeNoteDatePrefix(owner string) []byte {
	return ownerSegment(noteDatePrefix, owner)
}
