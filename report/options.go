package report

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/jasper/throttle"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error

type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	fs                afero.Fs
	tracerProvider    trace.TracerProvider
}

// WithHTTPClient bases the [Client] on a copy of hc. hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout bounds each request, including reading the body.
// Zero disables the timeout. Defaults to 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(o *options) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle limits outgoing requests to rps per second with the given burst.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects makes redirects surface as a [StatusError].
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithFs sets the filesystem [Client.FetchToFile] writes to.
// Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) error {
		if fs == nil {
			return errors.New("fs must not be nil")
		}
		o.fs = fs
		return nil
	}
}

// WithTracerProvider sets the provider for fetch spans.
// Defaults to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) error {
		if tp == nil {
			return errors.New("tracer provider must not be nil")
		}
		o.tracerProvider = tp
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// buildTransport layers the optional round trippers over base.
// The throttle sits outermost so waiting requests hold no connection.
func buildTransport(base http.RoundTripper, o options, logFn func() *slog.Logger) (http.RoundTripper, error) {
	transport := base
	if o.userAgent != "" {
		transport = userAgent{value: o.userAgent, base: transport}
	}

	if o.throttle != nil {
		rt, err := throttle.New(*o.throttle, transport, logFn)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}

	return transport, nil
}
