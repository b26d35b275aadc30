package save

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	tempPattern = ".jasper-save-*"
	filePerm    = 0o644
)

// Writer saves report bodies to a filesystem. A Writer configured
// with [WithChecksum] must not be used for concurrent writes.
type Writer struct {
	fs     afero.Fs
	logger *slog.Logger
	opts   options
}

// New returns a Writer saving to fs. A nil fs defaults to the OS
// filesystem and a nil logger to [slog.Default].
func New(fs afero.Fs, logger *slog.Logger, optFns ...Option) (*Writer, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if fs == nil {
		fs = afero.NewOsFs()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Writer{fs: fs, logger: logger, opts: opts}, nil
}

// Skip reports whether path should be left alone because it
// already exists and [WithSkipExisting] was given.
func (w *Writer) Skip(path string) bool {
	if !w.opts.skipExisting {
		return false
	}

	if _, err := w.fs.Stat(path); err != nil {
		return false
	}

	w.logger.Info("skipping existing report", "path", path)

	return true
}

// Write copies body to path. contentLength is the expected byte
// count, or -1 if unknown. The body is not closed.
func (w *Writer) Write(ctx context.Context, body io.Reader, contentLength int64, path string) error {
	if path == "" {
		return errors.New("path must not be empty")
	}

	body = &contextReader{ctx: ctx, r: body}

	if w.opts.direct {
		return w.writeDirect(body, contentLength, path)
	}

	return w.writeAtomic(body, contentLength, path)
}

// writeAtomic streams body to a temp file in the same directory
// as path, renaming it on success. On any error the temp file is removed.
func (w *Writer) writeAtomic(body io.Reader, contentLength int64, path string) error {
	file, err := afero.TempFile(w.fs, filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful, closed bool
	defer func() {
		if !closed {
			if err := file.Close(); err != nil {
				w.logger.Error("defer closing temp file", "path", file.Name(), "error", err)
			}
		}

		if !successful {
			if err := w.fs.Remove(file.Name()); err != nil {
				w.logger.Error("failed to remove temp file", "path", file.Name(), "error", err)
			}
		}
	}()

	if err := w.copy(file, body, contentLength, path); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}

	closed = true
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := w.fs.Chmod(file.Name(), filePerm); err != nil {
		return fmt.Errorf("setting temp file mode: %w", err)
	}

	if err := w.fs.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// writeDirect truncates path and writes body into it.
func (w *Writer) writeDirect(body io.Reader, contentLength int64, path string) error {
	file, err := w.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}

	closed := false
	defer func() {
		if closed {
			return
		}
		if err := file.Close(); err != nil {
			w.logger.Error("defer closing file", "path", path, "error", err)
		}
	}()

	if err := w.copy(file, body, contentLength, path); err != nil {
		return err
	}

	closed = true
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	return nil
}

func (w *Writer) copy(dst io.Writer, body io.Reader, contentLength int64, path string) error {
	writer := dst
	if w.opts.checksum != nil {
		w.opts.checksum.hash.Reset()
		writer = io.MultiWriter(writer, w.opts.checksum)
	}

	if w.opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    w.logger,
			path:      path,
			total:     contentLength,
			startTime: time.Now(),
		}
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		return fmt.Errorf("copying report body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	return w.opts.checksum.Verify()
}

// contextReader stops a copy as soon as ctx ends.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
