package save

import (
	"errors"
	"fmt"
)

var (
	// ErrContentLengthMismatch is returned when fewer or more bytes arrive than Content-Length announced.
	ErrContentLengthMismatch = errors.New("content length mismatch")
	// ErrChecksumMismatch is returned when the saved bytes do not hash to the expected digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrCancelled is returned when the context ends during a save.
	ErrCancelled = errors.New("save cancelled")
	// ErrQueueShutdown is returned for queued work that had not started before [Queue.Shutdown].
	ErrQueueShutdown = errors.New("queue shut down")
)

// Error wraps a sentinel error with detail about the failed save.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
