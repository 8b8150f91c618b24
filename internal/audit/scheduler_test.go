package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	batches []int64
	err     error
	calls   int
}

func (f *fakePurger) Purge(_ context.Context, _, _ int) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func TestRunRetentionJob(t *testing.T) {
	t.Run("should keep purging while batches come back full", func(t *testing.T) {
		p := &fakePurger{batches: []int64{10, 10, 3}}
		total := runRetentionJob(context.Background(), p, RetentionConfig{RetentionDays: 1, BatchSize: 10})

		assert.Equal(t, int64(23), total)
		assert.Equal(t, 3, p.calls)
	})

	t.Run("should stop on error", func(t *testing.T) {
		p := &fakePurger{err: errors.New("db down")}
		total := runRetentionJob(context.Background(), p, RetentionConfig{RetentionDays: 1, BatchSize: 10})

		assert.Zero(t, total)
		assert.Equal(t, 1, p.calls)
	})
}

func TestStartRetentionScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &fakePurger{}

	done := make(chan struct{})
	go func() {
		StartRetentionScheduler(ctx, p, RetentionConfig{CheckInterval: time.Hour})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRetentionConfig_Defaults(t *testing.T) {
	cfg := RetentionConfig{}.withDefaults()

	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, 5000, cfg.BatchSize)
	assert.Equal(t, 24*time.Hour, cfg.CheckInterval)
}
