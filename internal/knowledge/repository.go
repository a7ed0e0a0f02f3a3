/*
Package knowledge holds the learned state that biases analysis: Patterns
reinforced by feedback, curated and learned DomainKnowledgeItems, and the
Feedback history with its search index.

A Repository is an explicit object: construct one per application and inject
it into the prompt builder and the learning loop. Reads may run concurrently;
mutation is expected from a single writer (the learning loop), and every
mutator takes the write lock.
*/
package knowledge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/search"
	"github.com/khanglvm/tracklens/internal/storage"
)

// Config holds retrieval and retention tuning.
type Config struct {
	// PatternThreshold is the effective confidence a Pattern must exceed.
	PatternThreshold float64
	// KnowledgeThreshold is the confidence a knowledge item must exceed.
	KnowledgeThreshold float64
	// TopN caps how many patterns and knowledge items one retrieval returns.
	TopN int

	BoostFactor float64
	BoostCap    float64

	// InsightThreshold is the minimum feedback confidence for its comment
	// to count as a historical insight.
	InsightThreshold float64

	// MaxFeedbackHistory caps stored feedback; the oldest is evicted first.
	MaxFeedbackHistory int
	// DecayHalfLife halves a Pattern's ranking confidence per period since
	// it was last used. Zero disables decay.
	DecayHalfLife time.Duration

	// Namespace is the storage key of the snapshot.
	Namespace string
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		PatternThreshold:   0.7,
		KnowledgeThreshold: 0.8,
		TopN:               5,
		BoostFactor:        0.2,
		BoostCap:           0.15,
		InsightThreshold:   0.8,
		MaxFeedbackHistory: 1000,
		DecayHalfLife:      30 * 24 * time.Hour,
		Namespace:          storage.DefaultNamespace,
	}
}

// Repository is the in-memory store of learned state, backed by a Store.
type Repository struct {
	mu     sync.RWMutex
	cfg    Config
	store  storage.Store
	index  *search.Indexer
	logger *zap.Logger
	now    func() time.Time

	patterns  map[string]*analysis.Pattern
	knowledge map[string]analysis.DomainKnowledgeItem
	// knowledgeOrder keeps insertion order for stable listing.
	knowledgeOrder []string

	feedback []analysis.Feedback
	// docIDs[i] is the index document of feedback[i].
	docIDs []string
	docSeq int
}

// NewRepository creates a Repository seeded with the curated knowledge.
// A nil store keeps state in memory only.
func NewRepository(store storage.Store, cfg Config, logger *zap.Logger) (*Repository, error) {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.MaxFeedbackHistory <= 0 {
		cfg.MaxFeedbackHistory = def.MaxFeedbackHistory
	}
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}

	index, err := search.NewIndexer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback index: %w", err)
	}

	r := &Repository{
		cfg:       cfg,
		store:     store,
		index:     index,
		logger:    logger,
		now:       time.Now,
		patterns:  make(map[string]*analysis.Pattern),
		knowledge: make(map[string]analysis.DomainKnowledgeItem),
	}
	for _, item := range SeedKnowledge() {
		r.putKnowledge(item)
	}
	return r, nil
}

// Config returns the tuning the repository runs with.
func (r *Repository) Config() Config {
	return r.cfg
}

// Close releases the search index. The store is owned by the caller.
func (r *Repository) Close() error {
	return r.index.Close()
}

// LoadHistoricalData replaces in-memory state with the persisted snapshot,
// rebuilds the feedback index and replays learned knowledge from feedback
// improvements. A missing snapshot leaves the seeded state untouched.
func (r *Repository) LoadHistoricalData(ctx context.Context) error {
	snap, ok, err := storage.LoadSnapshot(ctx, r.store, r.cfg.Namespace)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.index.Reset(); err != nil {
		return fmt.Errorf("failed to reset feedback index: %w", err)
	}

	r.patterns = make(map[string]*analysis.Pattern, len(snap.Patterns))
	for i := range snap.Patterns {
		p := copyPattern(snap.Patterns[i])
		p.ConfidenceScore = analysis.Clamp01(p.ConfidenceScore)
		r.patterns[p.ScreenType] = &p
	}

	r.knowledge = make(map[string]analysis.DomainKnowledgeItem)
	r.knowledgeOrder = nil
	for _, item := range SeedKnowledge() {
		r.putKnowledge(item)
	}

	r.feedback = nil
	r.docIDs = nil
	for _, fb := range snap.Feedback {
		if err := r.appendFeedbackLocked(fb); err != nil {
			return err
		}
		for _, item := range LearnedKnowledge(fb) {
			r.putKnowledge(item)
		}
	}

	r.logger.Info("loaded learning snapshot",
		zap.Int("patterns", len(r.patterns)),
		zap.Int("feedback", len(r.feedback)),
		zap.Time("saved_at", snap.Timestamp))
	return nil
}

// Persist writes the full {feedback, patterns} snapshot.
func (r *Repository) Persist(ctx context.Context) error {
	r.mu.RLock()
	snap := storage.Snapshot{
		Feedback:  append([]analysis.Feedback(nil), r.feedback...),
		Patterns:  r.patternsLocked(),
		Timestamp: r.now().UTC(),
	}
	r.mu.RUnlock()

	return storage.SaveSnapshot(ctx, r.store, r.cfg.Namespace, snap)
}

// Stats summarizes repository contents.
type Stats struct {
	Patterns         int `json:"patterns"`
	Knowledge        int `json:"knowledge"`
	LearnedKnowledge int `json:"learnedKnowledge"`
	Feedback         int `json:"feedback"`
	IndexedDocuments int `json:"indexedDocuments"`
}

// Stats returns current counts.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seeded := make(map[string]bool)
	for _, s := range SeedKnowledge() {
		seeded[s.ID] = true
	}
	learned := 0
	for id := range r.knowledge {
		if !seeded[id] {
			learned++
		}
	}

	return Stats{
		Patterns:         len(r.patterns),
		Knowledge:        len(r.knowledge),
		LearnedKnowledge: learned,
		Feedback:         len(r.feedback),
		IndexedDocuments: r.index.Len(),
	}
}
