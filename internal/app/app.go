/*
Package app wires configuration into one running tracklens instance.

An App owns exactly one knowledge Repository; the CLI, the MCP server and
the HTTP API all share it through the App rather than through package
globals, so tests can build isolated instances.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/config"
	"github.com/khanglvm/tracklens/internal/enhancer"
	"github.com/khanglvm/tracklens/internal/knowledge"
	"github.com/khanglvm/tracklens/internal/learning"
	"github.com/khanglvm/tracklens/internal/orchestrator"
	"github.com/khanglvm/tracklens/internal/provider"
	"github.com/khanglvm/tracklens/internal/quality"
	"github.com/khanglvm/tracklens/internal/search"
	"github.com/khanglvm/tracklens/internal/storage"
)

// App is a wired tracklens instance.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        storage.Store
	Repo         *knowledge.Repository
	Enhancer     *enhancer.Enhancer
	Orchestrator *orchestrator.Orchestrator
	Loop         *learning.Loop

	// Runs is nil when the store keeps no run history.
	Runs storage.RunRecorder
}

// Options lets callers replace wired components.
type Options struct {
	Logger *zap.Logger
	// Store replaces the configured storage driver.
	Store storage.Store
	// Backend replaces the configured provider. Only honored when
	// BackendSet is true, so a nil Backend can force the mock path.
	Backend    provider.Backend
	BackendSet bool
}

// New builds an App from cfg: it opens storage, restores learned state,
// builds the backend and starts the feedback worker. A missing backend is
// not an error; analyses then return the mock result.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = storage.Open(StorageOptions(cfg.Storage), logger.Named("storage"))
		if err != nil {
			return nil, err
		}
	}

	repo, err := knowledge.NewRepository(store, KnowledgeConfig(cfg), logger.Named("knowledge"))
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := repo.LoadHistoricalData(ctx); err != nil {
		logger.Warn("failed to load learning snapshot, starting fresh", zap.Error(err))
	}

	backend := opts.Backend
	if !opts.BackendSet {
		backend, err = provider.New(ctx, ProviderConfig(cfg.Provider))
		switch {
		case errors.Is(err, provider.ErrNoBackend):
			logger.Info("no analysis backend configured, using mock results", zap.String("reason", err.Error()))
			backend = nil
		case err != nil:
			repo.Close()
			store.Close()
			return nil, fmt.Errorf("failed to create backend: %w", err)
		}
	}

	runs, _ := store.(storage.RunRecorder)
	if runs != nil && cfg.Storage.RunRetentionDays > 0 {
		if err := runs.Cleanup(time.Duration(cfg.Storage.RunRetentionDays) * 24 * time.Hour); err != nil {
			logger.Warn("failed to clean up run history", zap.Error(err))
		}
	}

	enh := enhancer.New(repo)
	orch := orchestrator.New(backend, enh, orchestrator.Options{
		Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		Runs:    runs,
		Logger:  logger.Named("orchestrator"),
	})

	loop := learning.NewLoop(repo, logger.Named("learning"))
	loop.Start()

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Repo:         repo,
		Enhancer:     enh,
		Orchestrator: orch,
		Loop:         loop,
		Runs:         runs,
	}, nil
}

// Close drains queued feedback, then releases the index and the store.
func (a *App) Close() error {
	a.Loop.Stop()
	var errs []error
	if err := a.Repo.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Analyze runs one analysis. It never fails.
func (a *App) Analyze(ctx context.Context, req analysis.Request) analysis.AnalysisResult {
	return a.Orchestrator.Analyze(ctx, req)
}

// SubmitFeedback ingests feedback synchronously.
func (a *App) SubmitFeedback(ctx context.Context, fb analysis.Feedback) error {
	return a.Loop.Ingest(ctx, fb)
}

// QueueFeedback hands feedback to the background worker.
func (a *App) QueueFeedback(fb analysis.Feedback) error {
	return a.Loop.Submit(fb)
}

// Assess scores a result.
func (a *App) Assess(result analysis.AnalysisResult) quality.Assessment {
	return quality.Assess(result)
}

// SearchHistory runs a hybrid search over past feedback.
func (a *App) SearchHistory(query string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.Repo.SearchHistory(query, limit)
}

// BackendName reports the active backend as provider/model, or "mock".
func (a *App) BackendName() string {
	b := a.Orchestrator.Backend()
	if b == nil {
		return "mock"
	}
	return b.Name() + "/" + b.Model()
}

// RunHistory returns recent analysis runs, or nil when the store keeps none.
func (a *App) RunHistory(since time.Time, limit int) ([]storage.RunRecord, error) {
	if a.Runs == nil {
		return nil, nil
	}
	return a.Runs.GetRunHistory(since, limit)
}

// StorageOptions maps the storage config section to driver options.
func StorageOptions(sc *config.StorageConfig) storage.Options {
	if sc == nil {
		return storage.Options{}
	}
	return storage.Options{
		Driver: sc.Driver,
		Path:   sc.Path,
		Redis: storage.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		},
	}
}

// KnowledgeConfig maps the learning config section to repository tuning.
func KnowledgeConfig(cfg *config.Config) knowledge.Config {
	kc := knowledge.DefaultConfig()
	if cfg.Storage != nil && cfg.Storage.Namespace != "" {
		kc.Namespace = cfg.Storage.Namespace
	}
	l := cfg.Learning
	if l == nil {
		return kc
	}
	kc.PatternThreshold = l.PatternThreshold
	kc.KnowledgeThreshold = l.KnowledgeThreshold
	kc.InsightThreshold = l.InsightThreshold
	kc.TopN = l.TopN
	kc.BoostFactor = l.BoostFactor
	kc.BoostCap = l.BoostCap
	kc.MaxFeedbackHistory = l.MaxFeedbackHistory
	if l.DecayHalfLifeDays != nil {
		kc.DecayHalfLife = time.Duration(*l.DecayHalfLifeDays) * 24 * time.Hour
	}
	return kc
}

// ProviderConfig maps the provider config section to backend options.
func ProviderConfig(pc *config.ProviderConfig) provider.Config {
	if pc == nil {
		return provider.Config{}
	}
	return provider.Config{
		Name:              strings.ToLower(pc.Name),
		Model:             pc.Model,
		APIKey:            pc.APIKey(),
		BaseURL:           pc.BaseURL,
		MaxTokens:         pc.MaxTokens,
		RequestsPerMinute: pc.RequestsPerMinute,
		HTTPTimeout:       time.Duration(pc.TimeoutSeconds) * time.Second,
	}
}
