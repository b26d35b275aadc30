package save

import (
	"errors"
	"hash"
)

// Option defines optional settings for a [Writer].
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	skipExisting bool
	direct       bool
}

// WithChecksum validates the saved bytes against expected, the
// hex-encoded digest produced by h (e.g. sha256.New()).
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}
		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}

		return nil
	}
}

// WithProgress logs transfer progress at most once per second.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting makes [Writer.Skip] report true when the
// destination already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithDirectWrite truncates and writes the destination in place.
// A failed copy leaves a partial file behind.
func WithDirectWrite() Option {
	return func(opts *options) error {
		opts.direct = true
		return nil
	}
}
