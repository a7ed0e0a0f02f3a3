/*
Package learning turns human corrections into learned state.

Each ingested Feedback reinforces the Pattern of every corrected event's
category, records naming and property corrections as domain knowledge, joins
the searchable feedback history and triggers a snapshot write. Ingests are
serialized: the Loop is the Repository's single writer.

Callers that do not need to wait can Submit feedback to a bounded queue
drained by one background worker.
*/
package learning

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/knowledge"
)

const (
	// queueSize is the buffer of the Submit queue. When full, Submit fails
	// instead of blocking.
	queueSize = 1000

	// persistTimeout bounds the snapshot write of one background ingest.
	persistTimeout = 10 * time.Second
)

var (
	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("feedback queue is full")

	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("feedback loop is stopped")
)

// Loop applies feedback to a knowledge Repository.
type Loop struct {
	repo   *knowledge.Repository
	logger *zap.Logger
	now    func() time.Time

	// ingestMu serializes Ingest calls.
	ingestMu sync.Mutex

	queue     chan analysis.Feedback
	stopChan  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu        sync.RWMutex
	started   bool
	stopped   bool
	processed int
	failed    int
}

// NewLoop creates a Loop over repo. Start must be called before Submit.
func NewLoop(repo *knowledge.Repository, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		repo:     repo,
		logger:   logger,
		now:      time.Now,
		queue:    make(chan analysis.Feedback, queueSize),
		stopChan: make(chan struct{}),
	}
}

// Ingest validates fb and applies it to the repository. Validation failures
// wrap analysis.ErrMalformedFeedback and leave the repository untouched.
// Persistence failures are logged, not returned.
func (l *Loop) Ingest(ctx context.Context, fb analysis.Feedback) error {
	now := l.now()
	fb, err := analysis.NormalizeFeedback(fb, now)
	if err != nil {
		return err
	}

	l.ingestMu.Lock()
	defer l.ingestMu.Unlock()

	for _, ev := range fb.CorrectedEvents {
		if c, ok := fb.Improvements.CategoryCorrections[ev.Name]; ok {
			if cat, ok := analysis.NormalizeCategory(c); ok {
				ev.Category = cat
			}
		}
		l.repo.ReinforcePattern(ev, now)
	}

	for _, item := range knowledge.LearnedKnowledge(fb) {
		l.repo.UpsertKnowledge(item)
	}

	if err := l.repo.AppendFeedback(fb); err != nil {
		l.logger.Warn("failed to index feedback", zap.String("analysis_id", fb.AnalysisID), zap.Error(err))
	}

	if err := l.repo.Persist(ctx); err != nil {
		l.logger.Warn("failed to persist learning snapshot", zap.String("analysis_id", fb.AnalysisID), zap.Error(err))
	}

	l.logger.Debug("feedback ingested",
		zap.String("analysis_id", fb.AnalysisID),
		zap.Int("corrected_events", len(fb.CorrectedEvents)))
	return nil
}

// Start launches the background worker. Calling it more than once is a no-op.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		l.mu.Lock()
		l.started = true
		l.mu.Unlock()

		l.wg.Add(1)
		go l.processQueue()
	})
}

// Submit validates fb and queues it without blocking. Malformed feedback is
// rejected here so callers see the error.
func (l *Loop) Submit(fb analysis.Feedback) error {
	fb, err := analysis.NormalizeFeedback(fb, l.now())
	if err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped || !l.started {
		return ErrStopped
	}

	select {
	case l.queue <- fb:
		return nil
	default:
		l.logger.Warn("feedback queue full, dropping feedback", zap.String("analysis_id", fb.AnalysisID))
		return ErrQueueFull
	}
}

// Stop drains queued feedback and waits for the worker to exit.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.mu.Unlock()

		close(l.stopChan)
		l.wg.Wait()
	})
}

// Pending returns the number of queued, unprocessed feedback records.
func (l *Loop) Pending() int {
	return len(l.queue)
}

// Stats returns how many queued records were applied and rejected.
func (l *Loop) Stats() (processed, failed int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.processed, l.failed
}

func (l *Loop) processQueue() {
	defer l.wg.Done()

	for {
		select {
		case fb := <-l.queue:
			l.apply(fb)

		case <-l.stopChan:
			for {
				select {
				case fb := <-l.queue:
					l.apply(fb)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) apply(fb analysis.Feedback) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := l.Ingest(ctx, fb)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.failed++
		l.logger.Warn("queued feedback rejected", zap.String("analysis_id", fb.AnalysisID), zap.Error(err))
		return
	}
	l.processed++
}
