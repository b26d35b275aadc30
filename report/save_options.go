package report

import (
	"hash"

	"github.com/adamwoolhether/jasper/report/save"
)

type (
	// SaveOption configures how [Client.FetchToFile] writes the report.
	SaveOption = save.Option

	// Result represents an in-flight or completed [Batch] entry.
	Result = save.Result

	// SaveError wraps a save sentinel error with additional detail.
	SaveError = save.Error
)

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = save.ErrContentLengthMismatch

	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = save.ErrChecksumMismatch

	// ErrCancelled indicates the save was cancelled via context.
	ErrCancelled = save.ErrCancelled

	// ErrBatchShutdown indicates the batch was shut down before the entry ran.
	ErrBatchShutdown = save.ErrQueueShutdown
)

// WithChecksum validates the saved report against expected, the
// hex-encoded digest produced by h (e.g. sha256.New()).
func WithChecksum(h hash.Hash, expected string) SaveOption {
	return save.WithChecksum(h, expected)
}

// WithProgress logs save progress at most once per second.
func WithProgress() SaveOption { return save.WithProgress() }

// WithSkipExisting returns nil without issuing a request when
// the destination file already exists.
func WithSkipExisting() SaveOption { return save.WithSkipExisting() }

// WithDirectWrite truncates and writes the destination in place instead
// of renaming a completed temp file over it. A failure mid-copy leaves
// a partial file behind.
func WithDirectWrite() SaveOption { return save.WithDirectWrite() }
