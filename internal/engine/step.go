package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/provenance"
)

// runStep executes one planned step against the primary stream, applying the
// skip and failure policies and recording provenance.
func (e *Engine) runStep(ctx context.Context, run *pipeline.Context, ps plannedStep, cfg RunConfig) error {
	logger := ctxlog.FromContext(ctx)
	in := run.Stream(pipeline.PrimaryStream)

	todo := in
	var skipped []*dataset.Dataset
	if cfg.SkipCompleted && ps.op.CompletionMark != "" {
		todo, skipped = partitionByMark(in, ps.op.CompletionMark)
		if len(skipped) > 0 {
			logger.Info("⏭️ Skipping datasets already carrying completion mark.",
				"mark", ps.op.CompletionMark, "skipped", len(skipped))
			e.metrics.StepSkipped()
			run.Provenance.Append(provenance.Record{
				Operation:  ps.op.Name,
				Parameters: ps.rendered,
				InputIDs:   ids(skipped),
				OutputIDs:  ids(skipped),
				Status:     provenance.StatusSkipped,
				Detail:     fmt.Sprintf("completion mark %q already present", ps.op.CompletionMark),
			})
		}
		if len(todo) == 0 {
			return nil
		}
	}

	if len(todo) == 0 && ps.op.Fanout {
		// Nothing in the primary stream to fan out over; stream-level
		// operations still run, they may feed from side streams.
		logger.Warn("Primary stream is empty, nothing to do.")
		return nil
	}

	var out []*dataset.Dataset
	if ps.op.Fanout {
		for _, d := range todo {
			produced, err := e.invoke(ctx, run, ps, []*dataset.Dataset{d})
			if err != nil {
				e.metrics.StepFailed()
				run.Provenance.Append(provenance.Record{
					Operation:  ps.op.Name,
					Parameters: ps.rendered,
					InputIDs:   ids([]*dataset.Dataset{d}),
					Status:     provenance.StatusFailed,
					Detail:     err.Error(),
				})
				if !cfg.BestEffort {
					return &OperationError{Operation: ps.op.Name, Datasets: names([]*dataset.Dataset{d}), Err: err}
				}
				logger.Warn("Dataset dropped from stream, siblings proceed.", "dataset", d.String(), "error", err)
				continue
			}
			e.recordExecuted(run, ps, []*dataset.Dataset{d}, produced)
			out = append(out, produced...)
		}
	} else {
		produced, err := e.invoke(ctx, run, ps, todo)
		if err != nil {
			e.metrics.StepFailed()
			run.Provenance.Append(provenance.Record{
				Operation:  ps.op.Name,
				Parameters: ps.rendered,
				InputIDs:   ids(todo),
				Status:     provenance.StatusFailed,
				Detail:     err.Error(),
			})
			// A stream-level failure has no siblings to salvage; best-effort
			// cannot scope it to one dataset.
			return &OperationError{Operation: ps.op.Name, Datasets: names(todo), Err: err}
		}
		e.recordExecuted(run, ps, todo, produced)
		out = produced
	}

	run.SetStream(pipeline.PrimaryStream, append(out, skipped...))
	return nil
}

// invoke decodes a fresh input struct for the handler and calls it.
func (e *Engine) invoke(ctx context.Context, run *pipeline.Context, ps plannedStep, in []*dataset.Dataset) ([]*dataset.Dataset, error) {
	input := ps.handler.NewInput()
	if err := params.Decode(ps.values, input); err != nil {
		return nil, fmt.Errorf("failed to decode parameters for operation %q: %w", ps.op.Name, err)
	}

	fn := reflect.ValueOf(ps.handler.Fn)
	results := fn.Call([]reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(run),
		reflect.ValueOf(in),
		reflect.ValueOf(input),
	})
	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}
	out, _ := results[0].Interface().([]*dataset.Dataset)
	return out, nil
}

func (e *Engine) recordExecuted(run *pipeline.Context, ps plannedStep, in, out []*dataset.Dataset) {
	if ps.op.CompletionMark != "" {
		for _, d := range out {
			d.AddMark(ps.op.CompletionMark)
		}
	}
	e.metrics.StepExecuted()
	run.Provenance.Append(provenance.Record{
		Operation:  ps.op.Name,
		Parameters: ps.rendered,
		InputIDs:   ids(in),
		OutputIDs:  ids(out),
		Status:     provenance.StatusExecuted,
	})
}

func partitionByMark(ds []*dataset.Dataset, mark string) (todo, done []*dataset.Dataset) {
	for _, d := range ds {
		if d.HasMark(mark) {
			done = append(done, d)
		} else {
			todo = append(todo, d)
		}
	}
	return todo, done
}

func ids(ds []*dataset.Dataset) []uuid.UUID {
	out := make([]uuid.UUID, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func names(ds []*dataset.Dataset) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
