package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/khanglvm/tracklens/internal/analysis"
)

type rateLimited struct {
	Backend
	limiter *rate.Limiter
}

// WithRateLimit limits b to requestsPerMinute calls, with bursts of the same
// size. A non-positive limit returns b unchanged.
func WithRateLimit(b Backend, requestsPerMinute int) Backend {
	if requestsPerMinute <= 0 {
		return b
	}
	limit := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &rateLimited{
		Backend: b,
		limiter: rate.NewLimiter(limit, requestsPerMinute),
	}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string, images []analysis.Image) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &BackendError{Provider: r.Name(), Retryable: true, Err: err}
	}
	return r.Backend.Generate(ctx, prompt, images)
}
