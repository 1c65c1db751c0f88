package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/templatecheck/internal/shell/stub"
	"github.com/artpar/templatecheck/internal/testutil/fixture"
)

// =============================================================================
// Helpers
// =============================================================================

// execute runs the CLI in-process and returns stdout and the exit code.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return stdout.String(), exitCode(err, io.Discard)
	}
	return stdout.String(), ExitSuccess
}

func startStub(t *testing.T, cfg stub.Config) string {
	t.Helper()
	server := httptest.NewServer(stub.New(cfg, nil).Routes())
	t.Cleanup(server.Close)
	return server.URL
}

// =============================================================================
// run
// =============================================================================

func TestRunCommand_AllPass(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	fixture.Write(t, root, "101-vm", fixture.Files{})
	fixture.Write(t, root, "201-web", fixture.Files{})
	url := startStub(t, stub.Config{})

	out, code := execute(t, "run", root, "--validate-url", url)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "101-vm")
	assert.Contains(t, out, "2 bundle(s), 2 passed, 0 failed")
}

func TestRunCommand_BundleFailure(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	fixture.Write(t, root, "101-vm", fixture.Files{})
	url := startStub(t, stub.Config{Deploy: stub.DeployResult("Deployment Failed")})

	out, code := execute(t, "run", root, "--validate-url", url)

	assert.Equal(t, ExitBundleFailures, code)
	assert.Contains(t, out, "Template Validation Failed")
	assert.Contains(t, out, "Deployment Failed")
}

func TestRunCommand_MissingValidateURL(t *testing.T) {
	clearEnv(t)

	_, code := execute(t, "run", t.TempDir())
	assert.Equal(t, ExitConfigError, code)
}

func TestRunCommand_LegacyEnvironment(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	fixture.Write(t, root, "101-vm", fixture.Files{})
	t.Setenv("VALIDATION_HOST", startStub(t, stub.Config{}))

	_, code := execute(t, "run", root, "--validate-only")
	assert.Equal(t, ExitSuccess, code)
}

func TestRunCommand_UnreadableRootAborts(t *testing.T) {
	clearEnv(t)
	url := startStub(t, stub.Config{})

	_, code := execute(t, "run", filepath.Join(t.TempDir(), "missing"), "--validate-url", url)
	assert.Equal(t, ExitRunAborted, code)
}

func TestRunCommand_JSONReportFileAndHistory(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	fixture.Write(t, root, "101-vm", fixture.Files{})
	url := startStub(t, stub.Config{Validate: stub.Fixed(http.StatusBadRequest, `{"error":"bad template"}`)})

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "reports", "run.json")
	dsn := filepath.Join(dir, "history.db")

	out, code := execute(t, "run", root,
		"--validate-url", url,
		"--format", "json",
		"--output", reportPath,
		"--history-dsn", dsn,
	)
	assert.Equal(t, ExitBundleFailures, code)
	assert.Contains(t, out, "FAIL")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var decoded struct {
		ID      string `json:"id"`
		Results []struct {
			State string `json:"state"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "failed", decoded.Results[0].State)

	out, code = execute(t, "history", "--history-dsn", dsn)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, decoded.ID)

	out, code = execute(t, "history", "show", decoded.ID, "--history-dsn", dsn)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "bad template")
}

// =============================================================================
// list / history / version
// =============================================================================

func TestListCommand(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		fixture.Write(t, root, name, fixture.Files{})
	}
	fixture.Write(t, root, "skipped", fixture.Files{Skip: true})

	out, code := execute(t, "list", root)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Group 1")
	assert.Contains(t, out, "Group 2")
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "3 bundle(s) in 2 group(s)")
}

func TestListCommand_RejectsGroupSize(t *testing.T) {
	clearEnv(t)

	_, code := execute(t, "list", t.TempDir(), "--group-size", "0")
	assert.Equal(t, ExitConfigError, code)
}

func TestListCommand_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "templatecheck.yaml")

	_, code := execute(t, "list", t.TempDir(), "--config", missing)
	assert.Equal(t, ExitConfigError, code)
}

func TestHistoryCommand_RequiresDSN(t *testing.T) {
	clearEnv(t)

	_, code := execute(t, "history")
	assert.Equal(t, ExitConfigError, code)
}

func TestHistoryShow_UnknownRun(t *testing.T) {
	clearEnv(t)
	dsn := filepath.Join(t.TempDir(), "history.db")

	_, code := execute(t, "history", "show", "missing", "--history-dsn", dsn)
	assert.Equal(t, ExitStoreError, code)
}

func TestVersionCommand(t *testing.T) {
	out, code := execute(t, "version")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "templatecheck dev")
}

func TestUnknownCommand(t *testing.T) {
	_, code := execute(t, "frobnicate")
	assert.Equal(t, ExitConfigError, code)
}
