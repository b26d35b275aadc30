// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound report requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [New]:
//
//	rt, err := throttle.New(
//		throttle.Config{RPS: 2, Burst: 4},
//		http.DefaultTransport,
//		func() *slog.Logger { return slog.Default() },
//	)
//	httpClient := &http.Client{Transport: rt}
//
// JasperServer renders reports synchronously, so a burst of fetches
// can pin its worker pool. When the limit is exceeded, requests block
// until a token becomes available or the request context ends.
package throttle
