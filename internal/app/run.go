package app

import (
	"context"
	"fmt"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/engine"
	"github.com/avolkov/starflow/internal/fsutil"
	"github.com/avolkov/starflow/internal/overrides"
)

// Run executes one reduction based on the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if cfg.HealthcheckPort > 0 {
		a.startWebserver(cfg.HealthcheckPort)
	}

	datasets, err := a.loadDatasets(cfg.DatasetPaths)
	if err != nil {
		return err
	}
	a.logger.Info("Datasets loaded.", "count", len(datasets))

	var userOverrides overrides.Set
	if cfg.OverridesPath != "" {
		userOverrides, err = overrides.Load(cfg.OverridesPath)
		if err != nil {
			return fmt.Errorf("failed to load parameter overrides: %w", err)
		}
		a.logger.Debug("User parameter overrides loaded.", "operations", len(userOverrides))
	}

	result, err := a.engine.Run(ctx, engine.RunConfig{
		Datasets:      datasets,
		Recipe:        cfg.Recipe,
		UserOverrides: userOverrides,
		SkipCompleted: cfg.SkipCompleted,
		BestEffort:    cfg.BestEffort,
	})
	if result != nil {
		a.printSummary(result)
	}
	if err != nil {
		return fmt.Errorf("reduction failed: %w", err)
	}
	return nil
}

// loadDatasets reads every descriptor found under the configured paths.
// A path may name a single descriptor file or a directory of them.
func (a *App) loadDatasets(paths []string) ([]*dataset.Dataset, error) {
	var out []*dataset.Dataset
	for _, p := range paths {
		files, err := fsutil.FindFilesByExtension(p, ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset path %s: %w", p, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no dataset descriptors found under %s", p)
		}
		for _, f := range files {
			d, err := dataset.Load(f)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// printSummary writes the run outcome and provenance to the output writer.
func (a *App) printSummary(result *engine.Result) {
	fmt.Fprintf(a.outW, "run %s: %s (recipe %q from library %q)\n",
		result.RunID, result.State, result.Recipe, result.Library)
	for _, rec := range result.Provenance {
		fmt.Fprintf(a.outW, "  %-10s %s (%d in, %d out)\n",
			rec.Status, rec.Operation, len(rec.InputIDs), len(rec.OutputIDs))
	}
	for _, d := range result.Final {
		fmt.Fprintf(a.outW, "final: %s\n", d)
	}
}
