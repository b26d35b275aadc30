package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamwoolhether/jasper/report/save"
)

// Job names a report to save and where to save it.
type Job struct {
	Report   string
	Filename string
	Params   Params
}

// Batch saves several reports concurrently through one [Client].
type Batch struct {
	c *Client
	q *save.Queue
}

// NewBatch returns a Batch running at most maxConcurrent saves at once.
// If maxConcurrent <= 0, concurrency is unlimited.
func (c *Client) NewBatch(maxConcurrent int) *Batch {
	return &Batch{c: c, q: save.NewQueue(maxConcurrent)}
}

// Add starts saving job in the background. Invalid jobs are rejected
// without a request; their error is reported by both [Result.Err]
// and [Batch.Wait]. Options holding state, such as [WithChecksum],
// must not be shared between jobs.
func (b *Batch) Add(ctx context.Context, job Job, opts ...SaveOption) *Result {
	switch {
	case job.Report == "":
		return b.q.Fail(&ArgumentError{Name: "job.Report", Err: errors.New("must not be empty")})
	case job.Filename == "":
		return b.q.Fail(&ArgumentError{Name: "job.Filename", Err: errors.New("must not be empty")})
	}

	return b.q.Start(ctx, func(ctx context.Context) error {
		if err := b.c.FetchToFile(ctx, job.Report, job.Filename, job.Params, opts...); err != nil {
			return fmt.Errorf("report %s: %w", job.Report, err)
		}

		return nil
	})
}

// Wait blocks until every added job completes and returns their errors joined.
func (b *Batch) Wait() error {
	return b.q.Wait()
}

// Shutdown stops jobs that haven't started yet; they fail with [ErrBatchShutdown].
func (b *Batch) Shutdown() {
	b.q.Shutdown()
}
