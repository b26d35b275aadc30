package report

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxDrainSize caps how much of an error response is read before
// the connection is closed. The body itself is never inspected.
const maxDrainSize = 4 << 10 // 4KB

var (
	// ErrInvalidConfig is wrapped by [ConfigError].
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvalidArgument is wrapped by [ArgumentError].
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransport is wrapped by [TransportError].
	ErrTransport = errors.New("transport failure")
	// ErrUnexpectedStatusCode is wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrFile is wrapped by [FileError].
	ErrFile = errors.New("report file failure")
)

// FieldError describes a single invalid [Config] field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// ConfigError is returned by [New] when the [Config] is unusable.
// No client is produced alongside it.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Err
	}

	return fmt.Sprintf("%v: %s", ErrInvalidConfig, strings.Join(parts, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ArgumentError is returned before any network I/O when a call
// receives an unusable argument.
type ArgumentError struct {
	Name string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrInvalidArgument, e.Name, e.Err)
}

func (e *ArgumentError) Unwrap() []error {
	return []error{ErrInvalidArgument, e.Err}
}

// TransportError reports a failure to exchange bytes with the server:
// DNS, dial, TLS, timeouts, cancellation, or a body read cut short.
type TransportError struct {
	Report string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrTransport, e.Report, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Report     string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d: %s", ErrUnexpectedStatusCode, e.StatusCode, e.Report)
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return []error{ErrUnexpectedStatusCode, ErrAuthFailure}
	}

	return []error{ErrUnexpectedStatusCode}
}

// FileError reports a failure to create, write or finalize the
// destination file of [Client.FetchToFile].
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrFile, e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{ErrFile, e.Err}
}
