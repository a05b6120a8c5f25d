package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediately(t *testing.T) {
	t.Parallel()

	fired := make(chan time.Time, 1)
	s := NewIntervalScheduler(time.Hour)

	if err := s.Start(context.Background(), func(tr time.Time) {
		select {
		case fired <- tr:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not fire immediately")
	}
}

func TestIntervalSchedulerStopIsIdempotentAndRestartable(t *testing.T) {
	t.Parallel()

	fired := make(chan time.Time, 2)
	job := func(tr time.Time) {
		select {
		case fired <- tr:
		default:
		}
	}

	s := NewIntervalScheduler(time.Hour)
	ctx := context.Background()

	if err := s.Start(ctx, job); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-fired

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	// A stopped scheduler can be started again.
	if err := s.Start(ctx, job); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("restarted scheduler did not fire")
	}
}
