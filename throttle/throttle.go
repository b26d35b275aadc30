package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the limiter's sustained requests per second
// and the number of requests allowed to burst above it.
type Config struct {
	RPS   int
	Burst int
}

// Validate reports whether both values are usable by the limiter.
func (c Config) Validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}

	return nil
}

// limiter is an http.RoundTripper that waits on a token
// bucket before handing the request to next.
type limiter struct {
	bucket *rate.Limiter
	cfg    Config
	next   http.RoundTripper
	logFn  func() *slog.Logger
}

// New returns an http.RoundTripper that throttles requests passed to next.
// logFn resolves the logger at request time so callers can swap loggers
// after construction. A nil logFn, or one returning nil, disables logging.
func New(cfg Config, next http.RoundTripper, logFn func() *slog.Logger) (http.RoundTripper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if next == nil {
		next = http.DefaultTransport
	}

	if logFn == nil {
		logFn = func() *slog.Logger { return nil }
	}

	l := &limiter{
		bucket: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:    cfg,
		next:   next,
		logFn:  logFn,
	}

	return l, nil
}

func (l *limiter) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	// Reserve first so the common case skips the logging branch entirely.
	res := l.bucket.Reserve()
	if !res.OK() {
		return nil, fmt.Errorf("%w: burst %d cannot satisfy request", ErrWaitingFailed, l.cfg.Burst)
	}

	delay := res.Delay()
	if delay > 0 {
		if logger := l.logFn(); logger != nil {
			logger.Info("throttle tokens exhausted", "report", r.URL.Path, "rate", l.cfg.RPS, "burst", l.cfg.Burst, "delay", delay.String())
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			res.Cancel()
			return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, ctx.Err())
		}
	}

	if err := ctx.Err(); err != nil { // Check the context hasn't expired while waiting.
		return nil, fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return l.next.RoundTrip(r)
}
