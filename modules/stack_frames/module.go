// Package stack_frames combines a stream of datasets into a single stacked
// frame using a per-pixel mean or median.
package stack_frames

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the parameters of the stack_frames body.
type Input struct {
	Method     string `sf:"method"`
	FromStream string `sf:"from_stream"`
	Suffix     string `sf:"suffix"`
}

// OnStackFrames combines all frames into one dataset. When from_stream is
// set, the named side stream is drained and merged into the batch first.
func OnStackFrames(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *Input) ([]*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)

	frames := in
	if input.FromStream != "" {
		side := run.TakeStream(input.FromStream)
		frames = append(frames, side...)
		logger.Info("Merged side stream into stack.", "stream", input.FromStream, "frames", len(side))
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to stack")
	}

	first := frames[0]
	n := len(first.Pixels)
	for _, f := range frames[1:] {
		if len(f.Pixels) != n {
			return nil, fmt.Errorf("cannot stack %s: %d pixels, expected %d", f.Name, len(f.Pixels), n)
		}
	}

	pixels := make([]float64, n)
	switch input.Method {
	case "mean":
		for _, f := range frames {
			for i, v := range f.Pixels {
				pixels[i] += v
			}
		}
		for i := range pixels {
			pixels[i] /= float64(len(frames))
		}
	case "median":
		column := make([]float64, len(frames))
		for i := range pixels {
			for j, f := range frames {
				column[j] = f.Pixels[i]
			}
			pixels[i] = median(column)
		}
	default:
		return nil, fmt.Errorf("unknown stacking method %q", input.Method)
	}

	stacked := first.Derive(first.Name + input.Suffix)
	stacked.Pixels = pixels
	stacked.Shape = append([]int(nil), first.Shape...)
	stacked.Header["NCOMBINE"] = len(frames)
	logger.Info("Stacked frames.", "frames", len(frames), "method", input.Method, "result", stacked.Name)
	return []*dataset.Dataset{stacked}, nil
}

func median(v []float64) float64 {
	sort.Float64s(v)
	mid := len(v) / 2
	if len(v)%2 == 1 {
		return v[mid]
	}
	return (v[mid-1] + v[mid]) / 2
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnStackFrames", &registry.Handler{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnStackFrames,
	})
}
