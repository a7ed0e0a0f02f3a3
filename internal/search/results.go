/*
Package search indexes feedback history for retrieval.

Documents are held twice: as hashed bag-of-words vectors for cosine
similarity search, and in an in-memory Bleve index for BM25 keyword search.
SearchHybrid fuses both rankings.

The hashed embedding is an approximation of semantic search, not the real
thing. It sits behind the Embedder interface so a proper embedding service
can replace it without touching callers.
*/
package search

// Result is a single search hit with relevance score.
type Result struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// VectorDocument is an indexed text with its fixed-length embedding.
// Embedding is computed on Index when left empty.
type VectorDocument struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

func (d VectorDocument) result(score float64) Result {
	return Result{ID: d.ID, Content: d.Content, Metadata: d.Metadata, Score: score}
}
