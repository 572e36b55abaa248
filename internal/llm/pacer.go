package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// defaultRequestsPerSecond is used when no rate limit is configured.
const defaultRequestsPerSecond = 2.0

// pacer enforces a minimum spacing between outbound provider calls.
// With a burst of one, consecutive Wait calls are separated by at least
// 1/rps seconds. A single pacer is shared by every provider target behind
// one Client instance.
type pacer struct {
	limiter *rate.Limiter
}

// newPacer creates a pacer allowing rps requests per second.
func newPacer(rps float64) *pacer {
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return &pacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// wait suspends the caller until the next call is allowed or the context
// is canceled.
func (p *pacer) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter canceled: %w", err)
	}
	return nil
}
