package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go-wages/internal/shared/workerpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := workerpool.New(3, 10)
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.TrySubmit(func(ctx context.Context) error {
			ran.Add(1)
			if i%2 == 0 {
				return errors.New("odd failure")
			}
			return nil
		}))
	}
	p.Close()

	assert.Equal(t, int32(10), ran.Load())
}

func TestPool_RecoversPanics(t *testing.T) {
	p := workerpool.New(1, 2)
	p.Start(context.Background())

	var after atomic.Bool
	require.NoError(t, p.TrySubmit(func(ctx context.Context) error { panic("boom") }))
	require.NoError(t, p.TrySubmit(func(ctx context.Context) error {
		after.Store(true)
		return nil
	}))
	p.Close()

	assert.True(t, after.Load())
}

func TestPool_TrySubmitQueueFull(t *testing.T) {
	p := workerpool.New(1, 1)

	// Not started, so the single slot stays occupied.
	require.NoError(t, p.TrySubmit(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, p.TrySubmit(func(ctx context.Context) error { return nil }), workerpool.ErrQueueFull)

	p.Start(context.Background())
	p.Close()
}

func TestPool_TrySubmitAfterClose(t *testing.T) {
	p := workerpool.New(1, 1)
	p.Start(context.Background())
	p.Close()

	assert.ErrorIs(t, p.TrySubmit(func(ctx context.Context) error { return nil }), workerpool.ErrPoolClosed)
}

func TestPool_CloseWithFullQueue(t *testing.T) {
	p := workerpool.New(1, 1)
	p.Start(context.Background())

	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, p.TrySubmit(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	var queuedRan atomic.Bool
	require.NoError(t, p.TrySubmit(func(ctx context.Context) error {
		queuedRan.Store(true)
		return nil
	}))
	assert.ErrorIs(t, p.TrySubmit(func(ctx context.Context) error { return nil }), workerpool.ErrQueueFull)

	closed := make(chan struct{})
	go func() {
		p.Close()
		close(closed)
	}()
	close(release)

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.True(t, queuedRan.Load())
}
