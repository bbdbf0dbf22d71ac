package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/docforensics/forensics-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(name string, err error) Strategy[string] {
	return NewStrategy(name, func(context.Context, string) (string, error) {
		return "", err
	})
}

func returning(name, value string) Strategy[string] {
	return NewStrategy(name, func(context.Context, string) (string, error) {
		return value, nil
	})
}

func panicking(name string) Strategy[string] {
	return NewStrategy(name, func(context.Context, string) (string, error) {
		panic("malformed xref")
	})
}

func TestChain_FirstSuccessWins(t *testing.T) {
	calls := 0
	counting := NewStrategy("second", func(context.Context, string) (string, error) {
		calls++
		return "second", nil
	})

	chain := NewChain("test", logger.Nop(), returning("first", "first"), counting)
	got, name, err := chain.Run(context.Background(), "doc.pdf")

	require.NoError(t, err)
	assert.Equal(t, "first", got)
	assert.Equal(t, "first", name)
	assert.Zero(t, calls)
}

func TestChain_FallsBackOnError(t *testing.T) {
	chain := NewChain("test", logger.Nop(),
		failing("primary", errors.New("bad xref")),
		returning("secondary", "text"),
	)

	got, name, err := chain.Run(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "text", got)
	assert.Equal(t, "secondary", name)
}

func TestChain_RecoversPanics(t *testing.T) {
	chain := NewChain("test", logger.Nop(), panicking("primary"), returning("secondary", "ok"))

	got, name, err := chain.Run(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "secondary", name)
}

func TestChain_AllFail(t *testing.T) {
	errPrimary := errors.New("bad xref")
	chain := NewChain("test", logger.Nop(), failing("primary", errPrimary), panicking("secondary"))

	got, name, err := chain.Run(context.Background(), "doc.pdf")
	require.Error(t, err)
	assert.Empty(t, got)
	assert.Empty(t, name)
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
	assert.ErrorIs(t, err, errPrimary)

	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "malformed xref", perr.Value)
	assert.NotEmpty(t, perr.Stack)
}

func TestChain_Empty(t *testing.T) {
	_, _, err := NewChain[string]("test", logger.Nop()).Run(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, ErrAllStrategiesFailed)
}

func TestChain_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewChain("test", logger.Nop(), returning("primary", "x")).Run(ctx, "doc.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGuard(t *testing.T) {
	assert.NoError(t, guard(func() error { return nil }))

	err := guard(func() error { panic("boom") })
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "panic: boom", err.Error())
}
