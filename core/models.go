package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is the canonical identifier of a note: a lowercase UUID string.
// Use ParseID to turn caller-supplied text into an ID so that values
// from different sources compare equal.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID normalizes an identifier. Surrounding whitespace, upper case
// hex digits, braces and urn prefixes are all accepted.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyID
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", Invalid("malformed note id %q", s)
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}

// ContentHash returns a hex encoded BLAKE2b-256 digest of text.
// Stored alongside embeddings so stale vectors can be detected.
func ContentHash(text string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Task is the canonical shape of a detected or user-entered task.
type Task struct {
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}

// Embedding is a vector computed for a note plus enough provenance to
// tell whether it still matches the note's text.
type Embedding struct {
	Vector      []float32 `bson:"vector" json:"vector"`
	ContentHash string    `bson:"content_hash,omitempty" json:"content_hash,omitempty"`
	Model       string    `bson:"model,omitempty" json:"model,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Note is one captured thought.
type Note struct {
	Id         ID         `bson:"_id" json:"id"`
	Owner      string     `bson:"owner" json:"owner"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	Title      string     `bson:"title" json:"title"`
	Transcript string     `bson:"transcript" json:"transcript"`
	Summary    string     `bson:"summary" json:"summary"`
	IsTimeline bool       `bson:"is_timeline" json:"is_timeline"`
	Tags       []string   `bson:"tags" json:"tags"`
	Tasks      []Task     `bson:"tasks" json:"tasks"`
	Embedding  *Embedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
	Audio      string     `bson:"audio,omitempty" json:"audio,omitempty"`
}

// HasEmbedding reports whether a non-empty vector is attached.
func (n *Note) HasEmbedding() bool {
	return n != nil && n.Embedding != nil && len(n.Embedding.Vector) > 0
}

// HasTag reports whether the note carries tag exactly.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Redacted returns a copy without the audio payload and the embedding.
// This is the form returned from search and used in computed contexts.
func (n *Note) Redacted() *Note {
	if n == nil {
		return nil
	}
	c := n.Clone()
	c.Audio = ""
	c.Embedding = nil
	return c
}

// Clone returns a deep copy.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	if n.Tasks != nil {
		c.Tasks = append([]Task(nil), n.Tasks...)
	}
	if n.Embedding != nil {
		e := *n.Embedding
		e.Vector = append([]float32(nil), n.Embedding.Vector...)
		c.Embedding = &e
	}
	return &c
}

// EmbeddingText is the text embedded for a note: the title followed by
// the summary, or by the transcript when there is no summary.
func EmbeddingText(n *Note) string {
	body := n.Summary
	if strings.TrimSpace(body) == "" {
		body = n.Transcript
	}
	return strings.TrimSpace(strings.TrimSpace(n.Title) + "\n" + strings.TrimSpace(body))
}

// IsEmbeddingStale reports whether the note has no embedding, or one
// whose content hash does not match the note's current text. An
// embedding stored without a hash counts as stale.
func IsEmbeddingStale(n *Note) bool {
	if !n.HasEmbedding() || n.Embedding.ContentHash == "" {
		return true
	}
	return n.Embedding.ContentHash != ContentHash(EmbeddingText(n))
}

// Candidate is one entry of a ranking candidate set.
type Candidate struct {
	Id     ID
	Vector []float32
	Note   *Note
}

// SearchResult is a ranked note with its similarity score.
type SearchResult struct {
	Note  *Note   `json:"note"`
	Score float32 `json:"score"`
}

// Extraction is the structured document derived from a transcript.
type Extraction struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	IsTimeline bool     `json:"is_timeline"`
	Tasks      []Task   `json:"tasks"`
	Tags       []string `json:"tags"`
}
