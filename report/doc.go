// Package report retrieves rendered reports from a JasperServer REST
// endpoint using HTTP Basic Authentication.
//
// # Building a Client
//
// Use [New] with a [Config] and functional options:
//
//	c, err := report.New(report.Config{
//		BaseURL:  "http://localhost:8080/jasperserver/rest_v2/reports",
//		Username: "jasperadmin",
//		Password: "jasperadmin",
//	}, report.WithTimeout(time.Minute))
//
// # Fetching Reports
//
// [Client.Fetch] returns the report body; the output format follows the
// extension of the report path:
//
//	body, err := c.Fetch(ctx, "/reports/sales/total.pdf", report.Params{
//		{Key: "REGION", Value: "North West"},
//	})
//	defer body.Close()
//
// [Client.FetchToFile] streams the report to disk instead:
//
//	err = c.FetchToFile(ctx, "/reports/sales/total.pdf", "/tmp/total.pdf", nil,
//		report.WithChecksum(sha256.New(), expectedHex),
//	)
//
// # Batches
//
// [Client.NewBatch] saves several reports with bounded concurrency:
//
//	b := c.NewBatch(4)
//	b.Add(ctx, report.Job{Report: "/reports/a.pdf", Filename: "a.pdf"})
//	b.Add(ctx, report.Job{Report: "/reports/b.pdf", Filename: "b.pdf"})
//	err = b.Wait()
//
// # Errors
//
// Failures are typed: [ConfigError], [ArgumentError], [TransportError],
// [StatusError] and [FileError], each matching a sentinel such as
// [ErrTransport] with [errors.Is].
package report
