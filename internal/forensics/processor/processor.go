package processor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/docforensics/forensics-api/pkg/logger"
)

// Strategy is one way of pulling a piece of information out of a document.
// Implementations wrap a single parsing library so that another can be tried
// when it fails.
type Strategy[T any] interface {
	// Name returns the strategy name for logging
	Name() string

	// Extract reads the document at path
	Extract(ctx context.Context, path string) (T, error)
}

type strategyFunc[T any] struct {
	name string
	fn   func(ctx context.Context, path string) (T, error)
}

// NewStrategy adapts a function to the Strategy interface
func NewStrategy[T any](name string, fn func(ctx context.Context, path string) (T, error)) Strategy[T] {
	return strategyFunc[T]{name: name, fn: fn}
}

func (s strategyFunc[T]) Name() string { return s.name }

func (s strategyFunc[T]) Extract(ctx context.Context, path string) (T, error) {
	return s.fn(ctx, path)
}

// ErrAllStrategiesFailed is returned by Chain.Run when no strategy succeeded
var ErrAllStrategiesFailed = errors.New("all extraction strategies failed")

// Chain holds an ordered list of strategies for one kind of extraction.
// The first strategy to succeed wins.
type Chain[T any] struct {
	kind       string
	strategies []Strategy[T]
	log        *logger.Logger
}

// NewChain creates a chain that tries strategies in registration order
func NewChain[T any](kind string, log *logger.Logger, strategies ...Strategy[T]) *Chain[T] {
	return &Chain[T]{
		kind:       kind,
		strategies: strategies,
		log:        log,
	}
}

// Run tries each strategy in turn and returns the first result together with
// the name of the strategy that produced it. When every strategy fails the
// returned error wraps ErrAllStrategiesFailed and each strategy's error.
func (c *Chain[T]) Run(ctx context.Context, path string) (T, string, error) {
	var zero T
	errs := []error{ErrAllStrategiesFailed}

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		c.log.Debug().
			Str("extraction", c.kind).
			Str("strategy", s.Name()).
			Msg("trying extraction strategy")

		result, err := safeExtract(ctx, s, path)
		if err == nil {
			c.log.Debug().
				Str("extraction", c.kind).
				Str("strategy", s.Name()).
				Msg("extraction strategy succeeded")
			return result, s.Name(), nil
		}

		c.log.Warn().Err(err).
			Str("extraction", c.kind).
			Str("strategy", s.Name()).
			Msg("extraction strategy failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	err := errors.Join(errs...)
	c.log.Warn().Err(err).Str("extraction", c.kind).Msg("all extraction strategies failed")
	return zero, "", err
}

// safeExtract runs one strategy and turns a library panic into an error.
// Several PDF parsers panic on malformed input instead of returning errors.
func safeExtract[T any](ctx context.Context, s Strategy[T], path string) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return s.Extract(ctx, path)
}

// PanicError carries a panic recovered inside a parsing library
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// guard runs fn and converts a panic into an error
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
