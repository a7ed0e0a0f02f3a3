/*
Package orchestrator runs one analysis end to end: retrieve context, build
the prompt, call the configured backend, parse the reply and apply learned
confidence boosts.

Analyze is total. Any failure (no backend, a backend error or timeout,
unrecoverable model text) yields the deterministic mock result, and the
cause is logged with the provider id and status code.
*/
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/enhancer"
	"github.com/khanglvm/tracklens/internal/parser"
	"github.com/khanglvm/tracklens/internal/provider"
	"github.com/khanglvm/tracklens/internal/storage"
)

// DefaultTimeout bounds one backend call.
const DefaultTimeout = 60 * time.Second

// ContextSource retrieves prompt context for a request.
type ContextSource interface {
	Retrieve(req analysis.Request, analysisType string) enhancer.Context
}

// Options configures an Orchestrator.
type Options struct {
	Timeout    time.Duration
	BasePrompt string
	// Runs receives one record per Analyze call. Nil disables run history.
	Runs   storage.RunRecorder
	Logger *zap.Logger
}

// Orchestrator drives analyses against a single backend.
type Orchestrator struct {
	backend    provider.Backend
	source     ContextSource
	runs       storage.RunRecorder
	logger     *zap.Logger
	timeout    time.Duration
	basePrompt string
	now        func() time.Time
}

// New creates an Orchestrator. A nil backend makes every call return the
// mock result.
func New(backend provider.Backend, source ContextSource, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BasePrompt == "" {
		opts.BasePrompt = enhancer.BasePrompt
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		backend:    backend,
		source:     source,
		runs:       opts.Runs,
		logger:     opts.Logger,
		timeout:    opts.Timeout,
		basePrompt: opts.BasePrompt,
		now:        time.Now,
	}
}

// Backend returns the configured backend, or nil.
func (o *Orchestrator) Backend() provider.Backend {
	return o.backend
}

// Prompt renders the prompt Analyze would send for req.
func (o *Orchestrator) Prompt(req analysis.Request) string {
	return enhancer.Render(o.basePrompt, req, o.source.Retrieve(req, ""))
}

// Analyze returns a structurally valid AnalysisResult for req.
func (o *Orchestrator) Analyze(ctx context.Context, req analysis.Request) analysis.AnalysisResult {
	start := o.now()

	c := o.source.Retrieve(req, "")
	prompt := enhancer.Render(o.basePrompt, req, c)

	run := storage.RunRecord{
		InstructionHash: storage.HashQuery(req.Instruction),
		ImageCount:      len(req.Images),
		PromptTokens:    enhancer.EstimateTokens(prompt),
	}

	result, outcome := o.analyze(ctx, req, prompt, c.Boosts)
	result.ID = uuid.New().String()
	result.CreatedAt = start.UTC()

	run.ID = result.ID
	run.Outcome = outcome
	run.EventCount = len(result.Events)
	run.Confidence = result.Confidence
	run.Duration = o.now().Sub(start)
	run.Timestamp = start
	if o.backend != nil {
		run.Provider = o.backend.Name()
		run.Model = o.backend.Model()
	}
	o.record(run)

	return result
}

func (o *Orchestrator) analyze(ctx context.Context, req analysis.Request, prompt string, boosts map[string]float64) (analysis.AnalysisResult, string) {
	if o.backend == nil {
		o.logger.Debug("no backend configured, returning mock result")
		return analysis.MockResult(), storage.OutcomeNoBackend
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	text, err := o.backend.Generate(callCtx, prompt, req.Images)
	if err != nil {
		fields := []zap.Field{
			zap.String("provider", o.backend.Name()),
			zap.String("model", o.backend.Model()),
			zap.Error(err),
		}
		var be *provider.BackendError
		if errors.As(err, &be) {
			fields = append(fields, zap.Int("status", be.StatusCode), zap.Bool("retryable", be.Retryable))
		}
		o.logger.Warn("backend call failed, returning mock result", fields...)
		return analysis.MockResult(), storage.OutcomeBackendFailure
	}

	result, err := parser.ParseResult(text)
	if err != nil {
		fields := []zap.Field{zap.String("provider", o.backend.Name()), zap.Error(err)}
		var pf *parser.ParseFailure
		if errors.As(err, &pf) {
			fields = append(fields, zap.Int("attempts", pf.Attempts), zap.String("excerpt", pf.Excerpt))
		}
		o.logger.Warn("model output unparseable, returning mock result", fields...)
		return analysis.MockResult(), storage.OutcomeParseFailure
	}

	ApplyBoosts(&result, boosts)
	return result, storage.OutcomeOK
}

// ApplyBoosts raises the confidence of events named in boosts, clamped to 1.
func ApplyBoosts(result *analysis.AnalysisResult, boosts map[string]float64) {
	for i := range result.Events {
		if b, ok := boosts[result.Events[i].Name]; ok && b > 0 {
			result.Events[i].Confidence = analysis.Clamp01(result.Events[i].Confidence + b)
		}
	}
}

func (o *Orchestrator) record(run storage.RunRecord) {
	o.logger.Debug("analysis finished",
		zap.String("id", run.ID),
		zap.String("outcome", run.Outcome),
		zap.Int("events", run.EventCount),
		zap.Duration("duration", run.Duration))

	if o.runs == nil {
		return
	}
	if err := o.runs.RecordRun(run); err != nil {
		o.logger.Warn("failed to record analysis run", zap.String("id", run.ID), zap.Error(err))
	}
}
