package save

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progressWriter is an io.Writer, logging transfer progress
// at most once per second.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	path        string
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("saving report")
	}

	if pw.total > 0 && pw.transferred == pw.total {
		pw.log("report saved")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)

	attrs := []any{
		"path", pw.path,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
	}

	// Reports are often rendered on the fly and sent chunked, without a length.
	if pw.total > 0 {
		attrs = append(attrs,
			"total", pw.total,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
		)
	}

	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/secs/(1024*1024)))
	}

	pw.logger.Info(msg, attrs...)
}
