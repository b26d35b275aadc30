package cli

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/adamwoolhether/jasper/report"
)

// saveFlags are shared by fetch and batch.
type saveFlags struct {
	progress     bool
	skipExisting bool
	direct       bool
}

func (f saveFlags) options() []report.SaveOption {
	var opts []report.SaveOption
	if f.progress {
		opts = append(opts, report.WithProgress())
	}
	if f.skipExisting {
		opts = append(opts, report.WithSkipExisting())
	}
	if f.direct {
		opts = append(opts, report.WithDirectWrite())
	}

	return opts
}

func addSaveFlags(f *pflag.FlagSet, s *saveFlags, skipUsage string) {
	f.BoolVar(&s.progress, "progress", false, "log download progress")
	f.BoolVar(&s.skipExisting, "skip-existing", false, skipUsage)
	f.BoolVar(&s.direct, "direct", false, "write in place instead of via a temp file")
}

func newFetchCmd(a *app) *cobra.Command {
	var (
		output   string
		params   []string
		checksum string
		save     saveFlags
	)

	cmd := &cobra.Command{
		Use:   "fetch REPORT",
		Short: "Fetch one report to a file or stdout",
		Long: `Fetch renders REPORT on the server and writes it to --output, or to
stdout when no output is given. The output format follows the report
path's extension (.pdf, .html, .xlsx, ...).`,
		Example: `
jasper fetch /reports/sales/total.pdf -o total.pdf -p YEAR=2024 -p "REGION=North West"

jasper fetch /reports/sales/total.html > total.html
`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			toStdout := output == "" || output == "-"
			if toStdout && (checksum != "" || save != (saveFlags{})) {
				return usageErr(errors.New("--checksum, --progress, --skip-existing and --direct require --output"))
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			if toStdout {
				body, err := c.Fetch(cmd.Context(), args[0], p)
				if err != nil {
					return err
				}
				defer body.Close()

				if _, err := io.Copy(cmd.OutOrStdout(), body); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}

				return nil
			}

			opts := save.options()
			if checksum != "" {
				opts = append(opts, report.WithChecksum(sha256.New(), checksum))
			}

			return c.FetchToFile(cmd.Context(), args[0], output, p, opts...)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "destination file, stdout if empty or -")
	f.StringArrayVarP(&params, "param", "p", nil, "report parameter as KEY=VALUE, repeatable")
	f.StringVar(&checksum, "checksum", "", "expected hex SHA-256 of the report")
	addSaveFlags(f, &save, "do nothing if the output file exists")

	return cmd
}

// parseParams turns KEY=VALUE pairs into ordered report parameters.
func parseParams(raw []string) (report.Params, error) {
	var p report.Params
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, usageErr(fmt.Errorf("parameter %q must be KEY=VALUE", kv))
		}
		p = p.Add(key, value)
	}

	return p, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageErr(err)
		}
		return nil
	}
}
