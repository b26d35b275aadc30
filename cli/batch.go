package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/jasper/report"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		concurrency int
		params      []string
		save        saveFlags
	)

	cmd := &cobra.Command{
		Use:   "batch REPORT=FILE...",
		Short: "Fetch several reports concurrently",
		Long: `Batch saves each REPORT to its FILE, running at most --concurrency
fetches at once. Every job receives the same --param values. All jobs
run to completion; the command fails if any of them did.`,
		Example: `
jasper batch --concurrency 2 /reports/a.pdf=a.pdf /reports/b.xlsx=b.xlsx -p YEAR=2024
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErr(errors.New("requires at least one REPORT=FILE argument"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			jobs := make([]report.Job, 0, len(args))
			for _, arg := range args {
				rep, file, ok := strings.Cut(arg, "=")
				if !ok || rep == "" || file == "" {
					return usageErr(fmt.Errorf("job %q must be REPORT=FILE", arg))
				}
				jobs = append(jobs, report.Job{Report: rep, Filename: file, Params: p})
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			b := c.NewBatch(concurrency)
			for _, job := range jobs {
				b.Add(cmd.Context(), job, save.options()...)
			}

			if err := b.Wait(); err != nil {
				return err
			}

			a.logger.Info("batch complete", "reports", len(jobs))

			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&concurrency, "concurrency", 4, "maximum concurrent fetches, 0 for unlimited")
	f.StringArrayVarP(&params, "param", "p", nil, "report parameter as KEY=VALUE applied to every job, repeatable")
	addSaveFlags(f, &save, "skip jobs whose file exists")

	return cmd
}
