package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRun_SkipsOverlappingTicks(t *testing.T) {
	var running int32
	var overlapped bool
	var calls int32

	fn := func(ctx context.Context) {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			overlapped = true
		}
		atomic.AddInt32(&calls, 1)
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&running, 0)
	}

	r := New("test", 5*time.Millisecond, fn, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	assert.False(t, overlapped, "ticks must not run concurrently")
	assert.Less(t, int(atomic.LoadInt32(&calls)), 10, "slow ticks should be skipped, not queued")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	var calls int32
	fn := func(ctx context.Context) { atomic.AddInt32(&calls, 1) }

	r := New("test", 5*time.Millisecond, fn, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}

func TestRun_RecoversFromPanic(t *testing.T) {
	fn := func(ctx context.Context) { panic("boom") }
	r := New("test", 5*time.Millisecond, fn, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NotPanics(t, func() { r.Run(ctx) })
}
