package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/jasper/report/save"
)

const (
	defaultTimeout      = 30 * time.Second
	requestIDHeader     = "X-Request-Id"
	instrumentationName = "github.com/adamwoolhether/jasper/report"
)

// Client retrieves rendered reports from a JasperServer.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	c      *http.Client
	base   *url.URL
	auth   string
	fs     afero.Fs
	logger *slog.Logger
	tracer trace.Tracer
}

// New validates cfg and builds a Client. The Authorization header is
// computed here once; no network I/O happens until the first fetch.
func New(cfg Config, optFns ...Option) (*Client, error) {
	base, err := cfg.check()
	if err != nil {
		return nil, err
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:      &http.Client{Timeout: defaultTimeout},
		base:   base,
		auth:   basicAuth(cfg.Username, cfg.Password),
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
	}

	if opts.client != nil {
		cpy := *opts.client
		client.c = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.fs != nil {
		client.fs = opts.fs
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	tp := opts.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	client.tracer = tp.Tracer(instrumentationName)

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = defaultTransport()
	}

	transport, err = buildTransport(transport, opts, func() *slog.Logger { return client.logger })
	if err != nil {
		return nil, err
	}
	client.c.Transport = transport

	return client, nil
}

// defaultTransport is [http.DefaultTransport] with a bounded dial.
// A DefaultTransport replaced by the embedding process, e.g. by
// instrumentation wrappers, is used unchanged.
func defaultTransport() http.RoundTripper {
	t, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	t = t.Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.MaxIdleConnsPerHost = 5

	return t
}

// Credential returns the Authorization header value sent with every request.
func (c *Client) Credential() string {
	return c.auth
}

// URL resolves reportPath against the base URL and appends params as
// the query string. reportPath is appended to the base path, so
// "/reports/sales/total.pdf" on a base of ".../rest_v2/reports" yields
// ".../rest_v2/reports/reports/sales/total.pdf".
//
// reportPath is a literal path: each segment is percent-encoded, so
// "100%.pdf" or "Sales:Q1" are sent as named. It must not carry a query
// or fragment; those belong in params. Only an http or https URL with a
// host is treated as absolute and used as is.
func (c *Client) URL(reportPath string, params Params) (*url.URL, error) {
	if reportPath == "" {
		return nil, &ArgumentError{Name: "reportPath", Err: errors.New("must not be empty")}
	}

	for _, kv := range params {
		if kv.Key == "" {
			return nil, &ArgumentError{Name: "params", Err: errors.New("parameter key must not be empty")}
		}
	}

	u, err := c.resolve(reportPath)
	if err != nil {
		return nil, &ArgumentError{Name: "reportPath", Err: err}
	}

	if q := params.Encode(); q != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + q
		} else {
			u.RawQuery = q
		}
	}

	return u, nil
}

var errQueryInPath = errors.New("query and fragment belong in params")

func (c *Client) resolve(reportPath string) (*url.URL, error) {
	if isAbsoluteHTTP(reportPath) {
		ref, err := url.Parse(reportPath)
		if err != nil {
			return nil, err
		}
		if ref.Host == "" {
			return nil, errors.New("absolute report URL has no host")
		}
		if ref.RawQuery != "" || ref.Fragment != "" || ref.ForceQuery {
			return nil, errQueryInPath
		}

		return ref, nil
	}

	if strings.ContainsAny(reportPath, "?#") {
		return nil, errQueryInPath
	}

	segments := strings.Split(reportPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return c.base.JoinPath(strings.Join(segments, "/")), nil
}

func isAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch retrieves the rendered report at reportPath. The caller owns the
// returned body and must close it. Non-2xx responses yield a [StatusError],
// failures to reach the server or read the body a [TransportError].
// Each call issues its own request; nothing is cached or retried.
func (c *Client) Fetch(ctx context.Context, reportPath string, params Params) (io.ReadCloser, error) {
	resp, err := c.open(ctx, reportPath, params)
	if err != nil {
		return nil, err
	}

	return &transportReader{report: reportPath, rc: resp.Body}, nil
}

// FetchToFile retrieves the report at reportPath and writes it to filename.
// By default the report is written to a temp file that replaces filename
// only once complete; see [WithDirectWrite]. If the fetch itself fails
// filename is not touched.
func (c *Client) FetchToFile(ctx context.Context, reportPath, filename string, params Params, opts ...SaveOption) error {
	if filename == "" {
		return &ArgumentError{Name: "filename", Err: errors.New("must not be empty")}
	}

	w, err := save.New(c.fs, c.logger, opts...)
	if err != nil {
		return &ArgumentError{Name: "opts", Err: err}
	}

	if w.Skip(filename) {
		return nil
	}

	resp, err := c.open(ctx, reportPath, params)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "report", reportPath, "error", err)
		}
	}()

	body := &transportReader{report: reportPath, rc: resp.Body}
	if err := w.Write(ctx, body, resp.ContentLength, filename); err != nil {
		return classifySaveErr(filename, err)
	}

	c.logger.Info("report saved", "report", reportPath, "path", filename)

	return nil
}

// open issues the authenticated GET and validates the status.
// On success the caller owns resp.Body.
func (c *Client) open(ctx context.Context, reportPath string, params Params) (*http.Response, error) {
	u, err := c.URL(reportPath, params)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "report.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("report.path", reportPath),
			attribute.String("report.request_id", id),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ArgumentError{Name: "reportPath", Err: err}
	}

	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "*/*")
	req.Header.Set(requestIDHeader, id)

	start := time.Now()

	resp, err := c.c.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrTransport.Error())
		c.logger.Debug("report request failed", "report", reportPath, "request_id", id, "error", err)

		return nil, &TransportError{Report: reportPath, Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("report response", "report", reportPath, "request_id", id, "status", resp.StatusCode, "since", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.drain(resp.Body)
		span.SetStatus(codes.Error, resp.Status)

		return nil, &StatusError{
			Report:     reportPath,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return resp, nil
}

// drain discards a bounded amount of an unwanted body so the
// connection can be reused, then closes it.
func (c *Client) drain(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, io.LimitReader(body, maxDrainSize)); err != nil {
		c.logger.Error("failed to discard unused body", "error", err)
	}

	if err := body.Close(); err != nil {
		c.logger.Error("failed to close response body", "error", err)
	}
}

// classifySaveErr keeps transport and save failures as they are
// and attributes everything else to the destination file.
func classifySaveErr(path string, err error) error {
	var te *TransportError
	var se *save.Error

	switch {
	case errors.As(err, &te), errors.As(err, &se), errors.Is(err, save.ErrCancelled):
		return fmt.Errorf("saving report: %w", err)
	default:
		return &FileError{Path: path, Err: err}
	}
}

// transportReader reports body read failures as a [TransportError].
type transportReader struct {
	report string
	rc     io.ReadCloser
}

func (r *transportReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = &TransportError{Report: r.report, Err: err}
	}

	return n, err
}

func (r *transportReader) Close() error {
	return r.rc.Close()
}
