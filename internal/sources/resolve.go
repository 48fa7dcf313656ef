// Package sources answers dashboard reads from an ordered chain of
// providers, tagging every answer with the provider that produced it.
package sources

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/captainbotgit/mission-control/internal/metrics"
)

// Provider names used as source tags.
const (
	SourceDatabase   = "database"
	SourceFilesystem = "filesystem"
	SourceGateway    = "gateway"
	SourceRPC        = "rpc"
	SourceMock       = "mock"
)

var (
	// ErrDisabled is returned by a provider that isn't configured. It is
	// skipped without a warning.
	ErrDisabled = errors.New("provider disabled")
	// ErrEmpty is returned by a provider with nothing to report, letting a
	// later provider answer.
	ErrEmpty = errors.New("provider returned no data")
	// ErrNoSource is returned by Resolve when every provider fails.
	ErrNoSource = errors.New("no source available")
)

// Provider is one strategy for fetching T.
type Provider[T any] interface {
	Name() string
	Fetch(ctx context.Context) (T, error)
}

type providerFunc[T any] struct {
	name string
	fn   func(ctx context.Context) (T, error)
}

func (p providerFunc[T]) Name() string                         { return p.name }
func (p providerFunc[T]) Fetch(ctx context.Context) (T, error) { return p.fn(ctx) }

// Func adapts fn into a Provider named name.
func Func[T any](name string, fn func(ctx context.Context) (T, error)) Provider[T] {
	return providerFunc[T]{name: name, fn: fn}
}

// Result is a resolved answer and its source tag.
type Result[T any] struct {
	Data   T      `json:"data"`
	Source string `json:"source"`
}

// Resolve returns the first successful provider's answer. Failed providers
// are logged and counted as fallbacks for resource.
func Resolve[T any](ctx context.Context, log *zap.Logger, resource string, providers ...Provider[T]) (Result[T], error) {
	if log == nil {
		log = zap.NewNop()
	}

	for _, p := range providers {
		data, err := p.Fetch(ctx)
		if err == nil {
			metrics.RecordSourceFetch(resource, p.Name())
			return Result[T]{Data: data, Source: p.Name()}, nil
		}

		metrics.RecordTierFallback(resource, p.Name())
		switch {
		case errors.Is(err, ErrDisabled), errors.Is(err, ErrEmpty):
			log.Debug("source skipped", zap.String("resource", resource), zap.String("source", p.Name()), zap.Error(err))
		default:
			log.Warn("source failed", zap.String("resource", resource), zap.String("source", p.Name()), zap.Error(err))
		}
		if ctx.Err() != nil {
			return Result[T]{}, ctx.Err()
		}
	}

	var zero T
	return Result[T]{Data: zero}, fmt.Errorf("%s: %w", resource, ErrNoSource)
}
