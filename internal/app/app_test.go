package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prepareManifest = `
operation "prepare" {
  handler         = "OnPrepare"
  completion_mark = "PREPARED"

  param "trim" {
    type    = bool
    default = true
  }
}
`

const subtractDarkManifest = `
operation "subtract_dark" {
  handler         = "OnSubtractDark"
  completion_mark = "DARK_CORRECTED"

  param "cal_type" {
    type    = string
    default = "dark"
  }
  param "optional" {
    type    = bool
    default = false
  }
}
`

const stackFramesManifest = `
operation "stack_frames" {
  handler         = "OnStackFrames"
  completion_mark = "STACKED"
  fanout          = false

  param "method" {
    type    = string
    default = "median"
    choices = ["mean", "median"]
  }
  param "from_stream" {
    type    = string
    default = ""
  }
  param "suffix" {
    type    = string
    default = "_stack"
  }
}
`

const baselineLibrary = `
library "baseline" {
  default = "reduce"

  recipe "reduce" {
    step "prepare" {}
    step "subtract_dark" {}
    step "stack_frames" {}
  }

  recipe "reduceNoStack" {
    step "prepare" {}
    step "subtract_dark" {}
  }
}
`

// writeFiles materializes a workspace of config and data files in a temp dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func reductionWorkspace(t *testing.T) string {
	t.Helper()
	return writeFiles(t, map[string]string{
		"modules/prepare.hcl":       prepareManifest,
		"modules/subtract_dark.hcl": subtractDarkManifest,
		"modules/stack_frames.hcl":  stackFramesManifest,
		"recipes/baseline.hcl":      baselineLibrary,
		"data/frame1.yaml":          "name: frame1\ntags: [RAW]\npixels: [9, 11, 21, 31, 9]\n",
		"data/frame2.yaml":          "name: frame2\ntags: [RAW]\npixels: [9, 13, 23, 33, 9]\n",
		"calibs/dark.yaml":          "name: dark\ntags: [DARK]\npixels: [1, 1, 1]\n",
		"calibs/index.yaml": "- type: dark\n  tags: [RAW]\n  path: dark.yaml\n",
	})
}

func TestAppRunsDefaultRecipe(t *testing.T) {
	root := reductionWorkspace(t)
	cfg, err := NewConfig(Config{
		DatasetPaths: []string{filepath.Join(root, "data")},
		RecipesPath:  filepath.Join(root, "recipes"),
		ModulesPath:  filepath.Join(root, "modules"),
		CalibsPath:   filepath.Join(root, "calibs", "index.yaml"),
	})
	require.NoError(t, err)

	testApp, out := SetupAppTest(t, cfg)
	require.NoError(t, testApp.Run(context.Background(), cfg))

	output := out.String()
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, `recipe "reduce"`)
	assert.Contains(t, output, "final: frame1_stack")
}

func TestAppRunsNamedRecipe(t *testing.T) {
	root := reductionWorkspace(t)
	cfg, err := NewConfig(Config{
		DatasetPaths: []string{filepath.Join(root, "data")},
		RecipesPath:  filepath.Join(root, "recipes"),
		ModulesPath:  filepath.Join(root, "modules"),
		CalibsPath:   filepath.Join(root, "calibs", "index.yaml"),
		Recipe:       "reduceNoStack",
	})
	require.NoError(t, err)

	testApp, out := SetupAppTest(t, cfg)
	require.NoError(t, testApp.Run(context.Background(), cfg))

	output := out.String()
	assert.Contains(t, output, `recipe "reduceNoStack"`)
	assert.Contains(t, output, "final: frame1")
	assert.Contains(t, output, "final: frame2")
	assert.NotContains(t, output, "_stack")
}

func TestAppAbortsWithoutMandatoryCalibration(t *testing.T) {
	root := reductionWorkspace(t)
	cfg, err := NewConfig(Config{
		DatasetPaths: []string{filepath.Join(root, "data")},
		RecipesPath:  filepath.Join(root, "recipes"),
		ModulesPath:  filepath.Join(root, "modules"),
		// No CalibsPath: every dark lookup misses.
	})
	require.NoError(t, err)

	testApp, out := SetupAppTest(t, cfg)
	err = testApp.Run(context.Background(), cfg)

	require.ErrorContains(t, err, "reduction failed")
	assert.Contains(t, out.String(), "aborted")
}

func TestAppUserOverridesApply(t *testing.T) {
	root := reductionWorkspace(t)
	overridesPath := filepath.Join(root, "overrides.yaml")
	require.NoError(t, os.WriteFile(overridesPath,
		[]byte("subtract_dark:\n  optional: true\n"), 0o644))

	cfg, err := NewConfig(Config{
		DatasetPaths:  []string{filepath.Join(root, "data")},
		RecipesPath:   filepath.Join(root, "recipes"),
		ModulesPath:   filepath.Join(root, "modules"),
		OverridesPath: overridesPath,
		// No CalibsPath: the override makes the missing dark survivable.
	})
	require.NoError(t, err)

	testApp, out := SetupAppTest(t, cfg)
	require.NoError(t, testApp.Run(context.Background(), cfg))
	assert.Contains(t, out.String(), "completed")
}

func TestAppStartupPanicsOnUnknownHandler(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"modules/bad.hcl":      "operation \"bogus\" {\n  handler = \"OnNoSuchHandler\"\n}\n",
		"recipes/baseline.hcl": baselineLibrary,
		"data/frame1.yaml":     "name: frame1\ntags: [RAW]\npixels: [1]\n",
	})
	cfg, err := NewConfig(Config{
		DatasetPaths: []string{filepath.Join(root, "data")},
		RecipesPath:  filepath.Join(root, "recipes"),
		ModulesPath:  filepath.Join(root, "modules"),
	})
	require.NoError(t, err)

	require.Panics(t, func() {
		SetupAppTest(t, cfg)
	})
}
