package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/avolkov/starflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("starflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Starflow - A tag-driven scientific data reduction engine.

Usage:
  starflow [options] DATASET...

Arguments:
  DATASET
    One or more dataset descriptor files, or directories of them.

Options:
`)
		flagSet.PrintDefaults()
	}

	recipesFlag := flagSet.String("recipes", "recipes", "Path to the recipe library file or directory.")
	modulesPathFlag := flagSet.String("modules-path", "modules", "Path to the directory containing operation manifests.")
	calibsFlag := flagSet.String("calibs", "", "Path to a YAML calibration index. Empty disables calibration lookup.")
	overridesFlag := flagSet.String("overrides", "", "Path to a YAML parameter overrides file.")
	recipeFlag := flagSet.String("recipe", "", "Recipe name to run. Empty selects the library default.")
	skipFlag := flagSet.Bool("skip-completed", false, "Skip steps whose completion mark the datasets already carry.")
	bestEffortFlag := flagSet.Bool("best-effort", false, "Drop failing datasets instead of aborting the run.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No dataset paths provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		DatasetPaths:    flagSet.Args(),
		RecipesPath:     *recipesFlag,
		ModulesPath:     *modulesPathFlag,
		CalibsPath:      *calibsFlag,
		OverridesPath:   *overridesFlag,
		Recipe:          *recipeFlag,
		SkipCompleted:   *skipFlag,
		BestEffort:      *bestEffortFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
