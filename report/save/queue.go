package save

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// WorkFunc is a unit of queued work, typically one report save.
type WorkFunc func(ctx context.Context) error

// Queue runs work in the background. An optional slot limit bounds
// how much runs at once, and every failure is kept until [Queue.Wait].
type Queue struct {
	wg     sync.WaitGroup
	slots  chan struct{}
	closed atomic.Bool

	mu   sync.Mutex
	errs []error
}

// NewQueue returns a Queue running at most limit work functions at
// once. A limit <= 0 means no bound.
func NewQueue(limit int) *Queue {
	q := &Queue{}
	if limit > 0 {
		q.slots = make(chan struct{}, limit)
	}

	return q
}

// Start schedules fn and returns at once. fn runs with a context
// derived from ctx that [Result.Cancel] ends. Work still waiting for a
// slot when ctx ends, or when [Queue.Shutdown] is called, never runs.
func (q *Queue) Start(ctx context.Context, fn WorkFunc) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := newResult(q, cancel)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		r.finish(q.run(ctx, fn))
	}()

	return r
}

// Fail returns an already finished Result for work rejected before
// it could start. err is also reported by [Queue.Wait].
func (q *Queue) Fail(err error) *Result {
	r := newResult(q, func() {})
	r.finish(q.record(err))

	return r
}

// Wait blocks until every started work function has returned and
// reports their failures joined.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown makes work that has not yet started fail with [ErrQueueShutdown].
// Running work is left alone.
func (q *Queue) Shutdown() {
	q.closed.Store(true)
}

func (q *Queue) run(ctx context.Context, fn WorkFunc) error {
	release, err := q.acquire(ctx)
	if err != nil {
		return q.record(err)
	}
	defer release()

	if q.closed.Load() {
		return q.record(ErrQueueShutdown)
	}

	return q.record(fn(ctx))
}

// acquire takes a slot, or fails once ctx ends first.
func (q *Queue) acquire(ctx context.Context) (release func(), err error) {
	if q.slots == nil {
		return func() {}, nil
	}

	select {
	case q.slots <- struct{}{}:
		return func() { <-q.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// record keeps a non-nil err for Wait and returns it unchanged.
func (q *Queue) record(err error) error {
	if err == nil {
		return nil
	}

	q.mu.Lock()
	q.errs = append(q.errs, err)
	q.mu.Unlock()

	return err
}
