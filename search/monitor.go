package search

import "github.com/poiesic/idrak/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query QuerySpec)
	AfterQueryVector(vector []float32)
	AfterCandidateLoad(candidates []core.Candidate)
	SkippedCandidate(id core.ID, reason string)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ QuerySpec)                       {}
func (n *noopMonitor) AfterQueryVector(_ []float32)            {}
func (n *noopMonitor) AfterCandidateLoad(_ []core.Candidate)   {}
func (n *noopMonitor) SkippedCandidate(_ core.ID, _ string)    {}
func (n *noopMonitor) Finish(_ []core.SearchResult)            {}
