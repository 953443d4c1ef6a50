package payment

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/mmynk/splitchain/internal/models"
)

// RateLimited throttles calls to the wrapped executor with a token bucket.
type RateLimited struct {
	next    Executor
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond transfers per second with bursts of burst.
func NewRateLimited(next Executor, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (r *RateLimited) Execute(ctx context.Context, transfer models.Transfer) (Receipt, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Receipt{}, fmt.Errorf("waiting for payment slot: %w", err)
	}
	return r.next.Execute(ctx, transfer)
}
