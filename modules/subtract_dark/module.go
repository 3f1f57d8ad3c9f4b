// Package subtract_dark implements dark-current correction: it asks the
// calibration manager for the matching dark frame and subtracts it from each
// dataset.
package subtract_dark

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/avolkov/starflow/internal/calib"
	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the parameters of the subtract_dark body.
type Input struct {
	CalType  string `sf:"cal_type"`
	Optional bool   `sf:"optional"`
}

// OnSubtractDark subtracts the associated dark frame. A missing calibration
// fails the operation unless the step is configured as optional, in which
// case the dataset passes through uncorrected.
func OnSubtractDark(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *Input) ([]*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)

	for _, d := range in {
		path, err := run.Calib.Lookup(ctx, input.CalType, d)
		if err != nil {
			var notFound *calib.NotFoundError
			if errors.As(err, &notFound) && input.Optional {
				logger.Info("No dark calibration found, correction marked optional, passing through.", "dataset", d.Name)
				continue
			}
			return nil, err
		}

		dark, err := dataset.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load dark frame %s: %w", path, err)
		}
		if len(dark.Pixels) != len(d.Pixels) {
			return nil, fmt.Errorf("dark frame %s has %d pixels, dataset %s has %d",
				dark.Name, len(dark.Pixels), d, len(d.Pixels))
		}
		for i := range d.Pixels {
			d.Pixels[i] -= dark.Pixels[i]
		}
		d.Header["DARKIM"] = path
	}
	return in, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnSubtractDark", &registry.Handler{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnSubtractDark,
	})
}
