package save

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestResult_Err(t *testing.T) {
	wantErr := errors.New("boom")

	q := NewQueue(0)
	r := q.Start(t.Context(), func(ctx context.Context) error {
		return wantErr
	})

	if err := r.Err(); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

func TestResult_Err_Success(t *testing.T) {
	q := NewQueue(0)
	r := q.Start(t.Context(), func(ctx context.Context) error {
		return nil
	})

	if err := r.Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestResult_Done(t *testing.T) {
	q := NewQueue(0)
	r := q.Start(t.Context(), func(ctx context.Context) error {
		return nil
	})

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("Done channel was not closed in time")
	}
}

func TestResult_Cancel(t *testing.T) {
	q := NewQueue(0)

	started := make(chan struct{})
	r := q.Start(t.Context(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	r.Cancel()

	if err := r.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQueue_Wait_JoinedErrors(t *testing.T) {
	err1 := errors.New("error one")
	err2 := errors.New("error two")

	q := NewQueue(0)
	q.Start(t.Context(), func(ctx context.Context) error { return err1 })
	q.Start(t.Context(), func(ctx context.Context) error { return nil })
	r := q.Start(t.Context(), func(ctx context.Context) error { return err2 })

	err := r.Wait()
	if !errors.Is(err, err1) {
		t.Errorf("expected error to contain %v", err1)
	}
	if !errors.Is(err, err2) {
		t.Errorf("expected error to contain %v", err2)
	}
}

func TestQueue_Wait_NilWhenAllSucceed(t *testing.T) {
	q := NewQueue(0)
	q.Start(t.Context(), func(ctx context.Context) error { return nil })
	q.Start(t.Context(), func(ctx context.Context) error { return nil })

	if err := q.Wait(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestQueue_ConcurrencyLimit(t *testing.T) {
	testCases := map[string]struct {
		limit   int
		total   int
		expPeak int32
	}{
		"limited":   {limit: 2, total: 5, expPeak: 2},
		"unlimited": {limit: 0, total: 8, expPeak: 8},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			q := NewQueue(tc.limit)

			var running, peak atomic.Int32
			barrier := make(chan struct{})

			for range tc.total {
				q.Start(t.Context(), func(ctx context.Context) error {
					cur := running.Add(1)
					for {
						old := peak.Load()
						if cur <= old || peak.CompareAndSwap(old, cur) {
							break
						}
					}

					<-barrier
					running.Add(-1)

					return nil
				})
			}

			// Let every goroutine that can acquire a slot do so.
			time.Sleep(50 * time.Millisecond)
			close(barrier)

			if err := q.Wait(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := peak.Load(); got != tc.expPeak {
				t.Errorf("expected peak concurrency %d, got %d", tc.expPeak, got)
			}
		})
	}
}

func TestQueue_ContextCancellationOnSemaphore(t *testing.T) {
	q := NewQueue(1)

	release := make(chan struct{})
	q.Start(t.Context(), func(ctx context.Context) error {
		<-release
		return nil
	})

	// Give the goroutine time to acquire the semaphore.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := q.Start(ctx, func(ctx context.Context) error {
		t.Error("work function should not have run")
		return nil
	})

	if err := r.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	close(release)

	if err := q.Wait(); err == nil {
		t.Error("expected queue error from cancelled work")
	}
}

func TestQueue_Shutdown(t *testing.T) {
	q := NewQueue(1)

	release := make(chan struct{})
	q.Start(t.Context(), func(ctx context.Context) error {
		<-release
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()
	close(release)

	r := q.Start(t.Context(), func(ctx context.Context) error {
		t.Error("work function should not have run after shutdown")
		return nil
	})

	if err := r.Err(); !errors.Is(err, ErrQueueShutdown) {
		t.Errorf("expected ErrQueueShutdown, got %v", err)
	}
}

func TestQueue_Fail(t *testing.T) {
	wantErr := errors.New("rejected")

	q := NewQueue(0)
	r := q.Fail(wantErr)

	select {
	case <-r.Done():
	default:
		t.Fatal("expected failed result to be done")
	}

	if err := r.Err(); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}

	r.Cancel()

	if err := q.Wait(); !errors.Is(err, wantErr) {
		t.Errorf("expected queue to record %v, got %v", wantErr, err)
	}
}

func TestQueue_SlotReleasedAfterFailure(t *testing.T) {
	q := NewQueue(1)

	failed := q.Start(t.Context(), func(ctx context.Context) error {
		return errors.New("render failed")
	})
	if err := failed.Err(); err == nil {
		t.Fatal("expected first work to fail")
	}

	next := q.Start(t.Context(), func(ctx context.Context) error { return nil })

	select {
	case <-next.Done():
	case <-time.After(time.Second):
		t.Fatal("slot was not released by failed work")
	}

	if err := next.Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	if err := q.Wait(); err == nil || !strings.Contains(err.Error(), "render failed") {
		t.Errorf("expected only the failure to be recorded, got %v", err)
	}
}
