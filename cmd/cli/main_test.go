package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// A manifest with a syntax error is guaranteed to panic during the
	// loading phase inside app.NewApp().
	invalidHCL := `
		operation "prepare" {
			handler = "OnPrepare"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	modulesDir := filepath.Join(tempDir, "modules")
	require.NoError(t, os.MkdirAll(modulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modulesDir, "bad.hcl"), []byte(invalidHCL), 0o600))

	datasetPath := filepath.Join(tempDir, "frame.yaml")
	require.NoError(t, os.WriteFile(datasetPath, []byte("name: frame\ntags: [RAW]\npixels: [1]\n"), 0o600))

	args := []string{
		"--modules-path", modulesDir,
		"--recipes", tempDir,
		datasetPath,
	}
	out := &bytes.Buffer{}

	runErr := run(out, args)

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
