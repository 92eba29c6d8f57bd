package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_SweepsAtStartup(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	expire := func(context.Context) (int, error) {
		calls.Add(1)
		cancel()
		return 3, nil
	}

	run(ctx, time.Hour, expire, zerolog.Nop())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_KeepsTickingAfterErrors(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expire := func(context.Context) (int, error) {
		if calls.Add(1) >= 3 {
			cancel()
		}
		return 0, errors.New("postgres unavailable")
	}

	done := make(chan struct{})
	go func() {
		run(ctx, time.Millisecond, expire, zerolog.Nop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRun_PassesBoundedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var deadline time.Time
	expire := func(runCtx context.Context) (int, error) {
		deadline, _ = runCtx.Deadline()
		cancel()
		return 0, nil
	}

	run(ctx, time.Hour, expire, zerolog.Nop())
	assert.False(t, deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(runTimeout), deadline, runTimeout)
}
