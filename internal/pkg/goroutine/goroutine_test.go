package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	t.Parallel()

	g := NewManager(2)
	boom := errors.New("boom")
	block := make(chan struct{})

	assert.True(t, g.Go(context.Background(), "fails", func(context.Context) error { return boom }))
	assert.True(t, g.Go(context.Background(), "blocks", func(context.Context) error {
		<-block
		return nil
	}))

	close(block)
	assert.ErrorIs(t, g.Wait(), boom)
	assert.False(t, g.Go(context.Background(), "after wait", func(context.Context) error { return nil }))
}

func TestManagerLimit(t *testing.T) {
	t.Parallel()

	g := NewManager(1)
	block := make(chan struct{})

	assert.True(t, g.Go(context.Background(), "first", func(context.Context) error {
		<-block
		return nil
	}))
	assert.False(t, g.Go(context.Background(), "second", func(context.Context) error { return nil }))

	close(block)
	assert.NoError(t, g.Wait())
}

func TestManagerRecoversPanic(t *testing.T) {
	t.Parallel()

	g := NewManager(0)
	assert.True(t, g.Go(context.Background(), "panics", func(context.Context) error { panic("consumer bug") }))
	assert.NoError(t, g.Wait())

	var nilManager *Manager
	assert.False(t, nilManager.Go(context.Background(), "nil", nil))
	assert.NoError(t, nilManager.Wait())
}
