package cli_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adamwoolhether/jasper/cli"
	"github.com/adamwoolhether/jasper/report"
)

const (
	testUser = "jasperadmin"
	testPass = "jasperadmin"
)

var pdf = []byte("%PDF-1.4 cli report")

func newServer(t *testing.T) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rest_v2/reports/", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != testUser || pass != testPass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch strings.TrimPrefix(r.URL.Path, "/rest_v2/reports") {
		case "/reports/total.pdf":
			_, _ = w.Write(pdf)
		case "/reports/query.html":
			_, _ = w.Write([]byte(r.URL.RawQuery))
		default:
			http.NotFound(w, r)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts.URL + "/rest_v2/reports"
}

// isolate keeps the developer's environment and config files out of a test.
func isolate(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"URL", "USERNAME", "PASSWORD", "TIMEOUT", "USER_AGENT", "RPS", "BURST", "LOG_LEVEL", "CONFIG"} {
		t.Setenv("JASPER_"+key, "")
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}

func TestFetch_Stdout(t *testing.T) {
	isolate(t)
	base := newServer(t)

	stdout, _, err := run(t,
		"--url", base, "--username", testUser, "--password", testPass,
		"fetch", "/reports/query.html", "-p", "P1=v 1", "-p", "P2=v2",
	)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if stdout != "P1=v%201&P2=v2" {
		t.Errorf("exp server to receive P1=v%%201&P2=v2, got %q", stdout)
	}
}

func TestFetch_File(t *testing.T) {
	isolate(t)
	base := newServer(t)

	sum := sha256.Sum256(pdf)
	dest := filepath.Join(t.TempDir(), "total.pdf")

	_, stderr, err := run(t,
		"--url", base, "--username", testUser, "--password", testPass, "--log-level", "debug",
		"fetch", "/reports/total.pdf", "-o", dest, "--checksum", hex.EncodeToString(sum[:]),
	)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(got, pdf) {
		t.Errorf("exp %q, got %q", pdf, got)
	}

	if !strings.Contains(stderr, "report saved") {
		t.Errorf("exp save to be logged, got: %q", stderr)
	}
}

func TestConfig_Precedence(t *testing.T) {
	base := newServer(t)

	testCases := map[string]struct {
		env     map[string]string
		file    string
		args    []string
		expCode int
	}{
		"env": {
			env:     map[string]string{"JASPER_URL": base, "JASPER_USERNAME": testUser, "JASPER_PASSWORD": testPass},
			expCode: cli.ExitOK,
		},
		"flagOverridesEnv": {
			env:     map[string]string{"JASPER_URL": base, "JASPER_USERNAME": testUser, "JASPER_PASSWORD": testPass},
			args:    []string{"--password", "wrong"},
			expCode: cli.ExitAuth,
		},
		"configFile": {
			file:    "url: " + base + "\nusername: " + testUser + "\npassword: " + testPass + "\n",
			expCode: cli.ExitOK,
		},
		"envOverridesConfigFile": {
			env:     map[string]string{"JASPER_PASSWORD": "wrong"},
			file:    "url: " + base + "\nusername: " + testUser + "\npassword: " + testPass + "\n",
			expCode: cli.ExitAuth,
		},
		"missingURL": {
			env:     map[string]string{"JASPER_USERNAME": testUser, "JASPER_PASSWORD": testPass},
			expCode: cli.ExitUsage,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			args := tc.args
			if tc.file != "" {
				path := filepath.Join(t.TempDir(), "jasper.yaml")
				if err := os.WriteFile(path, []byte(tc.file), 0o600); err != nil {
					t.Fatal(err)
				}
				args = append(args, "--config", path)
			}

			args = append(args, "fetch", "/reports/total.pdf")

			stdout, _, err := run(t, args...)
			if got := cli.ExitCode(err); got != tc.expCode {
				t.Fatalf("exp exit code %d, got %d (err: %v)", tc.expCode, got, err)
			}

			if tc.expCode == cli.ExitOK && stdout != string(pdf) {
				t.Errorf("exp report on stdout, got %q", stdout)
			}
		})
	}
}

func TestFetch_Errors(t *testing.T) {
	isolate(t)
	base := newServer(t)
	auth := []string{"--url", base, "--username", testUser, "--password", testPass}

	testCases := map[string]struct {
		args    []string
		expCode int
	}{
		"noReport":          {args: []string{"fetch"}, expCode: cli.ExitUsage},
		"tooManyReports":    {args: []string{"fetch", "a.pdf", "b.pdf"}, expCode: cli.ExitUsage},
		"badParam":          {args: []string{"fetch", "/reports/total.pdf", "-p", "novalue"}, expCode: cli.ExitUsage},
		"emptyParamKey":     {args: []string{"fetch", "/reports/total.pdf", "-p", "=v"}, expCode: cli.ExitUsage},
		"checksumNoOutput":  {args: []string{"fetch", "/reports/total.pdf", "--checksum", "abc"}, expCode: cli.ExitUsage},
		"unknownFlag":       {args: []string{"fetch", "/reports/total.pdf", "--nope"}, expCode: cli.ExitUsage},
		"badLogLevel":       {args: []string{"--log-level", "loud", "fetch", "/reports/total.pdf"}, expCode: cli.ExitUsage},
		"notFound":          {args: []string{"fetch", "/reports/missing.pdf"}, expCode: cli.ExitFailure},
		"checksumMismatch":  {args: []string{"fetch", "/reports/total.pdf", "-o", filepath.Join(t.TempDir(), "x.pdf"), "--checksum", strings.Repeat("0", 64)}, expCode: cli.ExitFailure},
		"throttleZeroBurst": {args: []string{"--rps", "5", "--burst", "0", "fetch", "/reports/total.pdf"}, expCode: cli.ExitUsage},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, append(append([]string{}, auth...), tc.args...)...)
			if got := cli.ExitCode(err); got != tc.expCode {
				t.Errorf("exp exit code %d, got %d (err: %v)", tc.expCode, got, err)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	isolate(t)
	base := newServer(t)
	dir := t.TempDir()

	_, _, err := run(t,
		"--url", base, "--username", testUser, "--password", testPass,
		"batch", "--concurrency", "2",
		"/reports/total.pdf="+filepath.Join(dir, "a.pdf"),
		"/reports/total.pdf="+filepath.Join(dir, "b.pdf"),
	)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	for _, name := range []string{"a.pdf", "b.pdf"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !bytes.Equal(got, pdf) {
			t.Errorf("%s: exp %q, got %q", name, pdf, got)
		}
	}
}

func TestBatch_Errors(t *testing.T) {
	isolate(t)
	base := newServer(t)
	dir := t.TempDir()
	auth := []string{"--url", base, "--username", testUser, "--password", testPass}

	testCases := map[string]struct {
		args    []string
		expCode int
	}{
		"noJobs":     {args: []string{"batch"}, expCode: cli.ExitUsage},
		"badJob":     {args: []string{"batch", "/reports/total.pdf"}, expCode: cli.ExitUsage},
		"emptyFile":  {args: []string{"batch", "/reports/total.pdf="}, expCode: cli.ExitUsage},
		"oneMissing": {args: []string{"batch", "/reports/total.pdf=" + filepath.Join(dir, "ok.pdf"), "/reports/missing.pdf=" + filepath.Join(dir, "missing.pdf")}, expCode: cli.ExitFailure},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, _, err := run(t, append(append([]string{}, auth...), tc.args...)...)
			if got := cli.ExitCode(err); got != tc.expCode {
				t.Errorf("exp exit code %d, got %d (err: %v)", tc.expCode, got, err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "ok.pdf")); err != nil {
		t.Errorf("exp healthy job to complete despite a failing one: %v", err)
	}
}

func TestExitCode(t *testing.T) {
	testCases := map[string]struct {
		err error
		exp int
	}{
		"nil":       {err: nil, exp: cli.ExitOK},
		"config":    {err: &report.ConfigError{}, exp: cli.ExitUsage},
		"argument":  {err: &report.ArgumentError{Name: "x", Err: errors.New("bad")}, exp: cli.ExitUsage},
		"auth":      {err: &report.StatusError{StatusCode: http.StatusUnauthorized}, exp: cli.ExitAuth},
		"status":    {err: &report.StatusError{StatusCode: http.StatusInternalServerError}, exp: cli.ExitFailure},
		"transport": {err: &report.TransportError{Err: errors.New("dial")}, exp: cli.ExitFailure},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := cli.ExitCode(tc.err); got != tc.exp {
				t.Errorf("exp %d, got %d", tc.exp, got)
			}
		})
	}
}
