package assistant

import (
	"strings"

	"github.com/poiesic/idrak/core"
)

// Policy bounds what is sent to the completion model. Zero fields mean
// no limit, which is the default.
type Policy struct {
	// MaxHistoryTurns keeps only the most recent turns.
	MaxHistoryTurns int

	// MaxCorpusChars caps the corpus length. Whole note blocks are kept,
	// most recent first, until the next one would not fit.
	MaxCorpusChars int
}

// IsZero reports whether the policy imposes no limits.
func (p Policy) IsZero() bool {
	return p.MaxHistoryTurns <= 0 && p.MaxCorpusChars <= 0
}

// TrimHistory returns the last MaxHistoryTurns turns.
func (p Policy) TrimHistory(history History) History {
	if p.MaxHistoryTurns <= 0 || len(history) <= p.MaxHistoryTurns {
		return history
	}
	return history[len(history)-p.MaxHistoryTurns:]
}

// FitCorpus renders notes like FormatCorpus, dropping the oldest blocks
// that do not fit in MaxCorpusChars. A block is never split.
func (p Policy) FitCorpus(notes []*core.Note) string {
	if p.MaxCorpusChars <= 0 {
		return FormatCorpus(notes)
	}

	blocks := sortedBlocks(notes)
	size := 0
	kept := 0
	for i, block := range blocks {
		next := len(block)
		if i > 0 {
			next += len(CorpusDelimiter)
		}
		if size+next > p.MaxCorpusChars {
			break
		}
		size += next
		kept++
	}
	return strings.Join(blocks[:kept], CorpusDelimiter)
}
