package loader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnReady_NilRunsImmediately(t *testing.T) {
	var calls int32
	done := OnReady(context.Background(), nil, func() { atomic.AddInt32(&calls, 1) })

	assert.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOnReady_AlreadyClosed(t *testing.T) {
	ready := make(chan struct{})
	close(ready)

	var calls int32
	done := OnReady(context.Background(), ready, func() { atomic.AddInt32(&calls, 1) })

	select {
	case err := <-done:
		assert.NoError(t, err)
	default:
		t.Fatal("fn should have run synchronously")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOnReady_RunsOnceAfterClose(t *testing.T) {
	ready := make(chan struct{})
	var calls int32
	done := OnReady(context.Background(), ready, func() { atomic.AddInt32(&calls, 1) })

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	close(ready)
	assert.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOnReady_CancelledNeverRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	var calls int32
	done := OnReady(ctx, ready, func() { atomic.AddInt32(&calls, 1) })

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(ready)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
