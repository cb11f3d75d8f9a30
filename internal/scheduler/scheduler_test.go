package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextWakeAlignsToIntervalBoundary(t *testing.T) {
	s := &Aligned{Interval: 5 * time.Minute, Offset: 2 * time.Second}

	now := time.Date(2026, 1, 15, 10, 2, 30, 0, time.UTC)
	nextClose, wakeAt, wait := s.nextWake(now)

	assert.Equal(t, time.Date(2026, 1, 15, 10, 5, 0, 0, time.UTC), nextClose)
	assert.Equal(t, nextClose.Add(2*time.Second), wakeAt)
	assert.Equal(t, 2*time.Minute+32*time.Second, wait)
}

func TestNextWakeAtExactBoundary(t *testing.T) {
	s := &Aligned{Interval: time.Minute}

	// 恰好落在边界上也要等到下一根收盘，不重复触发当前这根。
	now := time.Date(2026, 1, 15, 10, 5, 0, 0, time.UTC)
	nextClose, _, wait := s.nextWake(now)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 6, 0, 0, time.UTC), nextClose)
	assert.Equal(t, time.Minute, wait)
}

func TestStartRunImmediatelyThenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewAligned(ctx, time.Hour, time.Second)
	s.RunImmediately = true

	var calls int
	done := make(chan struct{})
	go func() {
		s.Start(func() { calls++ })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not exit on cancelled context")
	}
	assert.Equal(t, 1, calls)
}

func TestStartRejectsInvalidInterval(t *testing.T) {
	s := NewAligned(context.Background(), 0, 0)

	var calls int
	s.Start(func() { calls++ })
	assert.Zero(t, calls)
}
