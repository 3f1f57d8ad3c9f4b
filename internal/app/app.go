package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avolkov/starflow/internal/calib"
	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/engine"
	"github.com/avolkov/starflow/internal/hcl"
	"github.com/avolkov/starflow/internal/metric"
	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/recipe"
	"github.com/avolkov/starflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	selector *recipe.Selector
	engine   *engine.Engine
	promReg  *prometheus.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup errors are fatal and panic; the entrypoint recovers them into a
// clean exit.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	loader := hcl.NewLoader()

	if cfg.ModulesPath != "" {
		ops, err := loader.LoadOperations(ctx, cfg.ModulesPath)
		if err != nil {
			panic(fmt.Errorf("failed to load operation manifests: %w", err))
		}
		reg.AddOperations(ops...)
		logger.Debug("Operation manifests loaded.", "count", len(ops))
	}

	// Validate the integrity of the registry: every manifest has a handler,
	// every handler signature is well formed, and manifest parameters line
	// up with the handler's input struct.
	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	libs, err := loader.LoadLibraries(ctx, cfg.RecipesPath)
	if err != nil {
		panic(fmt.Errorf("failed to load recipe libraries: %w", err))
	}
	selector := recipe.NewSelector()
	selector.Add(libs...)
	logger.Debug("Recipe libraries loaded.", "count", len(libs))

	resolver := params.NewResolver()
	for _, s := range reg.SpecSets() {
		resolver.AddSpec(s)
	}

	var cal calib.Manager = calib.None{}
	if cfg.CalibsPath != "" {
		store, err := calib.LoadFileStore(cfg.CalibsPath)
		if err != nil {
			panic(fmt.Errorf("failed to load calibration index: %w", err))
		}
		cal = store
		logger.Debug("Calibration index loaded.", "path", cfg.CalibsPath)
	}

	promReg := prometheus.NewRegistry()
	metrics := metric.New(promReg)

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		selector: selector,
		engine:   engine.New(reg, selector, resolver, cal, metrics),
		promReg:  promReg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
