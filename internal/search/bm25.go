package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// SearchBM25 performs BM25 keyword search over document content.
func (i *Indexer) SearchBM25(query string, limit int) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchRequest := bleve.NewSearchRequestOptions(i.buildMatchQuery(query), limit, 0, false)
	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	return i.convertBleveResults(results), nil
}

// convertBleveResults maps hits back onto the held documents. Caller holds
// the read lock.
func (i *Indexer) convertBleveResults(results *bleve.SearchResult) []Result {
	out := make([]Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc, ok := i.docs[hit.ID]
		if !ok {
			continue
		}
		out = append(out, doc.result(hit.Score))
	}
	return out
}

// All returns every document in insertion order, up to limit.
func (i *Indexer) All(limit int) []Result {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 || limit > len(i.order) {
		limit = len(i.order)
	}
	out := make([]Result, 0, limit)
	for _, id := range i.order[:limit] {
		out = append(out, i.docs[id].result(0))
	}
	return out
}
