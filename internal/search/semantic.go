package search

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector length of the hashed embedding.
const DefaultDimensions = 128

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(text string) []float32
	Dimensions() int
}

// HashEmbedder is a bag-of-words embedding: each token is hashed with FNV-1a
// into one of Dim buckets and the count vector is L2-normalized.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a HashEmbedder, using DefaultDimensions when dim <= 0.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) Dimensions() int { return h.Dim }

// Embed returns the normalized bucket-count vector for text. Text with no
// tokens embeds to the zero vector.
func (h *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, h.Dim)
	for _, tok := range Tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(tok))
		vec[hasher.Sum32()%uint32(h.Dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Tokenize lowercases text and splits it into words on any non-alphanumeric
// rune. camelCase words also yield their parts, so "bannerClicked" produces
// "bannerclicked", "banner" and "clicked".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		parts := splitCamel(f)
		tokens = append(tokens, strings.ToLower(f))
		if len(parts) > 1 {
			for _, p := range parts {
				tokens = append(tokens, strings.ToLower(p))
			}
		}
	}
	return tokens
}

func splitCamel(s string) []string {
	var parts []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SearchSemantic ranks indexed documents by cosine similarity to query.
// Documents with no similarity are left out; ties keep insertion order.
func (i *Indexer) SearchSemantic(query string, limit int) ([]Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	qvec := i.embedder.Embed(query)
	results := make([]Result, 0, len(i.order))
	for _, id := range i.order {
		doc := i.docs[id]
		if score := cosineSimilarity(qvec, doc.Embedding); score > 0 {
			results = append(results, doc.result(score))
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
