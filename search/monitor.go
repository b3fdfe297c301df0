package search

import "github.com/poiesic/worldsignal/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type RetrievalMonitor interface {
	Start(query, category string)
	AfterEmbedding(vector []float32)
	AfterSearch(hits []core.SearchHit)
	Finish(hits []core.SearchHit)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)              {}
func (n *noopMonitor) AfterEmbedding(_ []float32)     {}
func (n *noopMonitor) AfterSearch(_ []core.SearchHit) {}
func (n *noopMonitor) Finish(_ []core.SearchHit)      {}
