package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePopulatesConfig(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"--recipes", "r",
		"--modules-path", "m",
		"--calibs", "c.yaml",
		"--recipe", "reduce",
		"--skip-completed",
		"--best-effort",
		"--log-level", "debug",
		"data/frame1.yaml", "data/frame2.yaml",
	}, out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, []string{"data/frame1.yaml", "data/frame2.yaml"}, cfg.DatasetPaths)
	assert.Equal(t, "r", cfg.RecipesPath)
	assert.Equal(t, "m", cfg.ModulesPath)
	assert.Equal(t, "c.yaml", cfg.CalibsPath)
	assert.Equal(t, "reduce", cfg.Recipe)
	assert.True(t, cfg.SkipCompleted)
	assert.True(t, cfg.BestEffort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseNoDatasetsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseRejectsBadLogFormat(t *testing.T) {
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--log-format", "xml", "frame.yaml"}, out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParseRejectsBadLogLevel(t *testing.T) {
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--log-level", "verbose", "frame.yaml"}, out)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}
