package main

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// withExecuteFunc swaps the CLI entry point for the duration of a test.
func withExecuteFunc(t *testing.T, fn func([]string, io.Writer, io.Writer) error) {
	t.Helper()
	old := executeFunc
	executeFunc = fn
	t.Cleanup(func() { executeFunc = old })
}

func runForExit(t *testing.T, err error) (int, string) {
	t.Helper()
	withExecuteFunc(t, func([]string, io.Writer, io.Writer) error { return err })
	var stderr bytes.Buffer
	code := -1
	runMain([]string{"ls-updater"}, io.Discard, &stderr, func(c int) { code = c })
	return code, stderr.String()
}

func TestRunMainSuccess(t *testing.T) {
	code, stderr := runForExit(t, nil)
	require.Equal(t, 0, code)
	require.Empty(t, stderr)
}

func TestRunMainGenericError(t *testing.T) {
	code, stderr := runForExit(t, errors.New("config validation failed"))
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "config validation failed")
}

func TestRunMainExitCodeError(t *testing.T) {
	code, stderr := runForExit(t, &ExitCodeError{Code: 3, Err: errors.New("stage install failed")})
	require.Equal(t, 3, code)
	require.Contains(t, stderr, "stage install failed")
}

func TestRunMainExitCodeErrorWrapped(t *testing.T) {
	inner := &ExitCodeError{Code: 2, Err: errors.New("stop failed")}
	code, _ := runForExit(t, inner)
	require.Equal(t, 2, code)
}

func TestVersionString(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldVersion, oldCommit, oldDate })

	Version, Commit, BuildDate = "1.2.3", "unknown", "unknown"
	require.Equal(t, "1.2.3", versionString())

	Commit, BuildDate = "abc1234", "2026-08-01"
	require.Equal(t, "1.2.3 (commit abc1234, built 2026-08-01)", versionString())
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "upgrade")
	require.Contains(t, names, "check")
	require.Contains(t, names, "status")
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	require.Equal(t, "ls-updater.toml", flag.DefValue)
}
