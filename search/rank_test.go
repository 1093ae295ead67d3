package search

import (
	"testing"

	"github.com/poiesic/idrak/core"
	"github.com/stretchr/testify/assert"
)

func candidate(title string, vector ...float32) core.Candidate {
	id := core.NewID()
	return core.Candidate{Id: id, Vector: vector, Note: &core.Note{Id: id, Title: title}}
}

func resultTitles(results []core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Note.Title
	}
	return out
}

func TestRank(t *testing.T) {
	query := []float32{1, 0}
	a := candidate("a", 0.2, 0)
	b := candidate("b", 0.9, 0)
	c := candidate("c", 0.5, 0)
	tieFirst := candidate("tie-first", 0.5, 0)
	tieSecond := candidate("tie-second", 0.5, 0)

	tests := []struct {
		name       string
		candidates []core.Candidate
		k          int
		exclude    core.ID
		want       []string
	}{
		{
			name:       "descending by score",
			candidates: []core.Candidate{a, b, c},
			k:          3,
			want:       []string{"b", "c", "a"},
		},
		{
			name:       "k truncates",
			candidates: []core.Candidate{a, b, c},
			k:          1,
			want:       []string{"b"},
		},
		{
			name:       "k larger than candidates returns all",
			candidates: []core.Candidate{a, b},
			k:          10,
			want:       []string{"b", "a"},
		},
		{
			name:       "ties keep input order",
			candidates: []core.Candidate{tieFirst, a, tieSecond},
			k:          3,
			want:       []string{"tie-first", "tie-second", "a"},
		},
		{
			name:       "ties keep input order reversed",
			candidates: []core.Candidate{tieSecond, tieFirst},
			k:          2,
			want:       []string{"tie-second", "tie-first"},
		},
		{
			name:       "excluded id never returned",
			candidates: []core.Candidate{a, b, c},
			k:          3,
			exclude:    b.Id,
			want:       []string{"c", "a"},
		},
		{
			name:       "zero k",
			candidates: []core.Candidate{a, b},
			k:          0,
			want:       []string{},
		},
		{
			name:       "negative k",
			candidates: []core.Candidate{a},
			k:          -1,
			want:       []string{},
		},
		{
			name:       "no candidates",
			candidates: nil,
			k:          5,
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Rank(query, tt.candidates, tt.k, tt.exclude)
			assert.NotNil(t, results)
			assert.Equal(t, tt.want, resultTitles(results))
		})
	}
}

func TestRank_ScoresAreDotProducts(t *testing.T) {
	results := Rank([]float32{0.6, 0.8}, []core.Candidate{candidate("x", 0.8, 0.6)}, 1, "")
	assert.InDelta(t, 0.96, results[0].Score, 1e-6)
}

func TestRank_ExcludedOnlyCandidate(t *testing.T) {
	only := candidate("only", 1, 0)
	results := Rank([]float32{1, 0}, []core.Candidate{only}, 5, only.Id)
	assert.Empty(t, results)
}

func TestDotProduct(t *testing.T) {
	assert.Equal(t, float32(0), dotProduct(nil, nil))
	assert.Equal(t, float32(11), dotProduct([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, float32(3), dotProduct([]float32{1, 2}, []float32{3}))
}

func TestQuerySpecValidate(t *testing.T) {
	id := core.NewID()

	tests := []struct {
		name  string
		query QuerySpec
		want  error
	}{
		{name: "text", query: TextQuery("groceries")},
		{name: "note", query: NoteQuery(id)},
		{name: "both", query: QuerySpec{Text: "x", NoteID: id}, want: ErrAmbiguousQuery},
		{name: "neither", query: QuerySpec{}, want: ErrEmptyQuery},
		{name: "blank text", query: TextQuery("   "), want: ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, core.KindInvalidRequest, core.KindOf(err))
		})
	}
}
