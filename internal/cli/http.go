package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/httpapi"
)

const shutdownTimeout = 30 * time.Second

// NewHTTPCmd creates the 'http' command for running the JSON API.
func NewHTTPCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the HTTP JSON API",
		Long: `Start the tracklens HTTP API.

Endpoints:
  POST /v1/analyze    analyze base64 screenshots
  POST /v1/feedback   ingest feedback (?async=true to queue)
  POST /v1/assess     score a result
  GET  /v1/patterns   learned patterns
  GET  /v1/knowledge  domain knowledge
  GET  /v1/search     search past feedback (?q=&limit=)
  GET  /v1/runs       recent analysis runs
  GET  /healthz       health and backend status`,
		Example: `  tracklens http --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTP(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}

func runHTTP(cmd *cobra.Command, addr string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer a.Close()
	logger := a.Logger

	if a.Config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sc := *a.Config.Server
	if addr != "" {
		sc.Addr = addr
	}
	srv := httpapi.NewServer(a, &sc)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", zap.String("addr", srv.Addr), zap.String("backend", a.BackendName()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
