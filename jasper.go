// Package jasper exposes the report client builder.
package jasper

import (
	"github.com/adamwoolhether/jasper/report"
)

// NewClient instantiates a new *report.Client for cfg with the provided options.
// If not specified, a fresh http.Client with a 30s timeout and the OS filesystem are used.
func NewClient(cfg report.Config, opts ...report.Option) (*report.Client, error) {
	return report.New(cfg, opts...)
}
