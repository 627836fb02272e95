package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerProvider wraps a provider in a circuit breaker so a flapping
// model endpoint fails fast instead of stalling every exchange.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps inner with sensible breaker settings
func NewBreakerProvider(inner Provider, logger *zap.Logger) *BreakerProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        "model-provider",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// ModelName returns the wrapped provider's model identifier
func (p *BreakerProvider) ModelName() string {
	return p.inner.ModelName()
}

// StreamCompletion runs the wrapped stream call under the breaker
func (p *BreakerProvider) StreamCompletion(ctx context.Context, messages []Message, onChunk func(content string) error) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.StreamCompletion(ctx, messages, onChunk)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Completion runs the wrapped call under the breaker
func (p *BreakerProvider) Completion(ctx context.Context, messages []Message) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.Completion(ctx, messages)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

var _ Provider = (*BreakerProvider)(nil)
