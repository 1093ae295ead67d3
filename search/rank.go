package search

import (
	"slices"

	"github.com/poiesic/idrak/core"
)

// DefaultK is the number of results returned when the caller does not ask
// for a specific count.
const DefaultK = 5

// Rank scores every candidate against query and returns up to k results,
// best first. Equal scores keep their input order. The candidate with
// id excludeID is never scored. k <= 0 yields no results.
func Rank(query []float32, candidates []core.Candidate, k int, excludeID core.ID) []core.SearchResult {
	if k <= 0 || len(candidates) == 0 {
		return []core.SearchResult{}
	}

	results := make([]core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if !excludeID.IsZero() && c.Id == excludeID {
			continue
		}
		results = append(results, core.SearchResult{
			Note:  c.Note,
			Score: dotProduct(query, c.Vector),
		})
	}

	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
