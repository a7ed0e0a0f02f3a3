package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Indexer holds the vector and keyword indexes over the same documents.
type Indexer struct {
	bleveIndex bleve.Index
	embedder   Embedder
	docs       map[string]VectorDocument
	order      []string
	mu         sync.RWMutex
}

// NewIndexer creates an empty indexer backed by an in-memory Bleve index.
// A nil embedder selects the hashed embedding with DefaultDimensions.
func NewIndexer(embedder Embedder) (*Indexer, error) {
	if embedder == nil {
		embedder = NewHashEmbedder(DefaultDimensions)
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{
		bleveIndex: index,
		embedder:   embedder,
		docs:       make(map[string]VectorDocument),
	}, nil
}

// buildIndexMapping indexes document content for BM25 and leaves metadata
// searchable through the default dynamic mapping.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Index adds or replaces documents, embedding any that lack a vector.
func (i *Indexer) Index(docs ...VectorDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document has empty id")
		}
		if len(doc.Embedding) != i.embedder.Dimensions() {
			doc.Embedding = i.embedder.Embed(doc.Content)
		}

		fields := map[string]interface{}{"content": doc.Content}
		for k, v := range doc.Metadata {
			fields[k] = v
		}
		if err := batch.Index(doc.ID, fields); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}

		if _, exists := i.docs[doc.ID]; !exists {
			i.order = append(i.order, doc.ID)
		}
		i.docs[doc.ID] = doc
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index documents: %w", err)
	}
	return nil
}

// Remove deletes documents by id. Unknown ids are ignored.
func (i *Indexer) Remove(ids ...string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := i.docs[id]; !ok {
			continue
		}
		batch.Delete(id)
		delete(i.docs, id)
		drop[id] = true
	}
	if len(drop) == 0 {
		return nil
	}

	kept := i.order[:0]
	for _, id := range i.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	i.order = kept

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch delete: %w", err)
	}
	return nil
}

// Reset removes every document.
func (i *Indexer) Reset() error {
	i.mu.RLock()
	ids := append([]string(nil), i.order...)
	i.mu.RUnlock()
	return i.Remove(ids...)
}

// Len returns the number of documents held.
func (i *Indexer) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.order)
}

// Count returns the number of documents in the keyword index.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}

func (i *Indexer) buildMatchQuery(searchText string) query.Query {
	q := bleve.NewMatchQuery(searchText)
	q.SetField("content")
	return q
}
