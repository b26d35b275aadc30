// Package save streams report bodies to a file with optional checksum
// validation and progress reporting.
//
// # Writing a Report
//
// [Writer.Write] copies a body into a temporary file alongside the
// destination path, then renames it on success, so the destination
// holds either the full report or whatever it held before:
//
//	w, err := save.New(afero.NewOsFs(), logger, save.WithChecksum(sha256.New(), hexSum))
//	err = w.Write(ctx, resp.Body, resp.ContentLength, "/tmp/total.pdf")
//
// [WithDirectWrite] opts out of the rename and truncates the destination
// in place instead.
//
// # Concurrent Writes
//
// [Queue] runs work functions in goroutines bounded by a semaphore and
// collects their errors; each call to [Queue.Start] returns a [Result].
//
// Most callers should use the higher-level
// [github.com/adamwoolhether/jasper/report] package, which drives both.
package save
