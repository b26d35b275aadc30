// Package cli provides the jasper command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/jasper/report"
)

const envPrefix = "JASPER"

// Exit codes returned by [Main].
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitAuth    = 3
)

// app carries state shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the root command for the jasper CLI.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "jasper",
		Short: "Retrieve rendered reports from a JasperServer",
		Example: `
jasper fetch /reports/sales/total.pdf -o total.pdf -p YEAR=2024

JASPER_PASSWORD=secret jasper --url http://localhost:8080/jasperserver/rest_v2/reports \
	--username jasperadmin batch a.pdf=/tmp/a.pdf /reports/b.html=/tmp/b.html
`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("url", "", "JasperServer reports base URL, e.g. http://host:8080/jasperserver/rest_v2/reports")
	pf.String("username", "", "JasperServer username")
	pf.String("password", "", "JasperServer password (prefer JASPER_PASSWORD)")
	pf.Duration("timeout", 30*time.Second, "per request timeout, 0 disables it")
	pf.String("user-agent", "", "User-Agent header sent with every request")
	pf.Int("rps", 0, "maximum requests per second, 0 disables throttling")
	pf.Int("burst", 1, "throttle burst size")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("config", "", "config file (default $HOME/.jasper/jasper.yaml or ./jasper.yaml)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})

	root.AddCommand(newFetchCmd(a), newBatchCmd(a))

	return root
}

// load resolves configuration with flags > env > config file > defaults
// and sets up the logger.
func (a *app) load(cmd *cobra.Command) error {
	v := a.v

	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	switch path := v.GetString("config"); {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jasper"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("jasper")
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return usageErr(fmt.Errorf("parsing log level: %w", err))
	}

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if used := v.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded config file", "path", used)
	}

	return nil
}

// client builds a report client from the resolved configuration.
func (a *app) client() (*report.Client, error) {
	var cfg report.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	opts := []report.Option{
		report.WithLogger(a.logger),
		report.WithTimeout(a.v.GetDuration("timeout")),
	}

	if ua := a.v.GetString("user-agent"); ua != "" {
		opts = append(opts, report.WithUserAgent(ua))
	}

	if rps := a.v.GetInt("rps"); rps > 0 {
		opts = append(opts, report.WithThrottle(rps, a.v.GetInt("burst")))
	}

	c, err := report.New(cfg, opts...)
	if err != nil {
		return nil, usageErr(err)
	}

	return c, nil
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := NewRootCmd()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return ExitCode(err)
	}

	return ExitOK
}

// ExitCode maps err to a process exit code:
//
//	0 - err is nil
//	2 - invalid configuration, arguments or flags
//	3 - the server rejected the credentials
//	1 - anything else
func ExitCode(err error) int {
	var uErr *usageError

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &uErr),
		errors.Is(err, report.ErrInvalidConfig),
		errors.Is(err, report.ErrInvalidArgument):
		return ExitUsage
	case errors.Is(err, report.ErrAuthFailure):
		return ExitAuth
	default:
		return ExitFailure
	}
}

// usageError marks errors caused by how the CLI was invoked.
type usageError struct {
	err error
}

func usageErr(err error) error {
	return &usageError{err: err}
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}
