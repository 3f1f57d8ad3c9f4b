// Package engine executes a resolved recipe over dataset streams.
//
// A run moves through Idle → Resolving → Running → {Completed, Aborted}.
// Resolution happens once, against the initial primary stream's tags: the
// operation table, the recipe, and every step's final parameters are fixed
// before the first body executes. An operation may re-tag the datasets it
// returns, but later steps still use the implementations resolved at run
// start; re-resolution mid-run would make a recipe's behavior depend on how
// far it got, which is exactly the nondeterminism this engine exists to
// avoid.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/avolkov/starflow/internal/calib"
	"github.com/avolkov/starflow/internal/compose"
	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/metric"
	"github.com/avolkov/starflow/internal/overrides"
	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/provenance"
	"github.com/avolkov/starflow/internal/recipe"
	"github.com/avolkov/starflow/internal/registry"
	"github.com/avolkov/starflow/internal/tagset"
)

// State is a run's lifecycle phase.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// OperationError reports an operation body failure, naming the datasets that
// were in flight.
type OperationError struct {
	Operation string
	Datasets  []string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %q failed for %s: %v",
		e.Operation, strings.Join(e.Datasets, ", "), e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// RunConfig configures one run.
type RunConfig struct {
	// Datasets form the initial primary stream. They must all carry the
	// same tag set; resolution from a mixed batch would have to guess.
	Datasets []*dataset.Dataset

	// Recipe names the recipe to run. Empty selects the default recipe of
	// the most specific applicable library.
	Recipe string

	// UserOverrides are run-wide parameter overrides keyed by operation.
	UserOverrides overrides.Set

	// CallOverrides are per-invocation overrides from the caller, the
	// highest-precedence layer.
	CallOverrides map[string]map[string]cty.Value

	// SkipCompleted skips steps whose completion mark a dataset already
	// carries, logging a Skipped provenance record instead.
	SkipCompleted bool

	// BestEffort keeps a run going when one dataset of a fanned-out step
	// fails: the failure is recorded and that dataset is dropped while its
	// siblings proceed.
	BestEffort bool
}

// Result is the outcome of a run. On an aborted run it still carries the
// provenance collected so far and the stream contents at the point of
// failure.
type Result struct {
	RunID      uuid.UUID
	State      State
	Recipe     string
	Library    string
	Final      []*dataset.Dataset
	Provenance []provenance.Record
}

// Engine runs recipes. It is read-only after construction and safe to share
// across concurrently executing runs; all mutable state lives in the
// per-run pipeline context.
type Engine struct {
	reg      *registry.Registry
	composer *compose.Composer
	selector *recipe.Selector
	resolver *params.Resolver
	cal      calib.Manager
	metrics  *metric.Metrics
}

// New creates an engine over the given registry and recipe libraries.
// Metrics may be nil.
func New(reg *registry.Registry, sel *recipe.Selector, res *params.Resolver, cal calib.Manager, m *metric.Metrics) *Engine {
	return &Engine{
		reg:      reg,
		composer: compose.New(reg),
		selector: sel,
		resolver: res,
		cal:      cal,
		metrics:  m,
	}
}

// plannedStep is one fully resolved step: the winning registration, its Go
// handler, and the final validated parameters.
type plannedStep struct {
	op       *registry.Operation
	handler  *registry.Handler
	values   params.Values
	rendered map[string]string
}

// Run executes a recipe over the configured datasets. Fatal resolution
// errors (ambiguity, no applicable implementation or recipe, invalid
// parameters) return before any operation body runs. Execution failures
// return the partial Result alongside the error.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	run := pipeline.NewContext(e.cal)
	logger := ctxlog.FromContext(ctx).With("run_id", run.RunID)
	ctx = ctxlog.WithLogger(ctx, logger)

	tags, err := initialTags(cfg.Datasets)
	if err != nil {
		return nil, err
	}

	// Resolving: freeze the implementation table, the recipe, and every
	// step's parameters against the initial tags.
	rcp, lib, err := e.selector.Select(tags, cfg.Recipe)
	if err != nil {
		return nil, err
	}
	logger = logger.With("recipe", rcp.Name, "library", lib.Name)
	logger.Info("Recipe resolved.", "tags", tags.String(), "steps", len(rcp.Steps))

	plan, err := e.plan(tags, rcp, cfg)
	if err != nil {
		return nil, err
	}

	e.metrics.RunStarted()
	result := &Result{
		RunID:   run.RunID,
		State:   StateRunning,
		Recipe:  rcp.Name,
		Library: lib.Name,
	}
	run.SetStream(pipeline.PrimaryStream, cfg.Datasets)

	for i, ps := range plan {
		// Cooperative abort point between steps.
		if err := ctx.Err(); err != nil {
			logger.Warn("Run cancelled between steps.", "step", ps.op.Name)
			e.metrics.RunAborted()
			return e.finish(result, run, StateAborted), err
		}

		stepLogger := logger.With("step", fmt.Sprintf("%d/%d", i+1, len(plan)), "operation", ps.op.Name)
		stepCtx := ctxlog.WithLogger(ctx, stepLogger)
		stepLogger.Info("▶️ Starting step")

		if err := e.runStep(stepCtx, run, ps, cfg); err != nil {
			stepLogger.Error("❌ Step failed, aborting run.", "error", err)
			e.metrics.RunAborted()
			return e.finish(result, run, StateAborted), err
		}
		stepLogger.Info("✅ Finished step", "stream_size", len(run.Stream(pipeline.PrimaryStream)))
	}

	logger.Info("Run completed.", "final_datasets", len(run.Stream(pipeline.PrimaryStream)))
	return e.finish(result, run, StateCompleted), nil
}

func (e *Engine) finish(result *Result, run *pipeline.Context, state State) *Result {
	result.State = state
	result.Final = run.Stream(pipeline.PrimaryStream)
	result.Provenance = run.Provenance.Records()
	return result
}

// initialTags returns the shared tag set of the initial stream. A mixed
// batch cannot be resolved deterministically, so it is rejected outright.
func initialTags(ds []*dataset.Dataset) (tagset.Set, error) {
	if len(ds) == 0 {
		return tagset.Set{}, fmt.Errorf("run needs at least one dataset")
	}
	first := ds[0].Tags
	for _, d := range ds[1:] {
		if !d.Tags.Equal(first) {
			return tagset.Set{}, fmt.Errorf("datasets in the initial stream carry different tags: %s has %s, %s has %s",
				ds[0], first, d, d.Tags)
		}
	}
	return first, nil
}

func (e *Engine) plan(tags tagset.Set, rcp *recipe.Recipe, cfg RunConfig) ([]plannedStep, error) {
	table := e.composer.Resolve(tags)

	plan := make([]plannedStep, 0, len(rcp.Steps))
	for _, step := range rcp.Steps {
		op, err := table.Lookup(step.Operation)
		if err != nil {
			return nil, err
		}
		handler, ok := e.reg.Handler(op.HandlerName)
		if !ok {
			return nil, fmt.Errorf("operation %q resolved to unregistered handler %q", op.Name, op.HandlerName)
		}
		values, err := e.resolver.Resolve(op.Name, tags,
			step.Overrides,
			cfg.UserOverrides.ForOperation(op.Name),
			cfg.CallOverrides[op.Name],
		)
		if err != nil {
			return nil, err
		}
		plan = append(plan, plannedStep{
			op:       op,
			handler:  handler,
			values:   values,
			rendered: values.Render(),
		})
	}
	return plan, nil
}
