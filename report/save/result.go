package save

import "context"

// Result tracks one piece of queued work.
type Result struct {
	queue  *Queue
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newResult(q *Queue, cancel context.CancelFunc) *Result {
	return &Result{queue: q, cancel: cancel, done: make(chan struct{})}
}

// finish stores the outcome and releases everyone blocked on the Result.
func (r *Result) finish(err error) {
	r.err = err
	r.cancel()
	close(r.done)
}

// Done is closed once the work has finished.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err waits for the work and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait waits for the whole queue, not just this entry. See [Queue.Wait].
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Cancel ends the context the work runs with.
func (r *Result) Cancel() {
	r.cancel()
}
