// Package prepare implements the `prepare` operation: header normalization
// and payload validation at the start of every recipe, with a NIR-specific
// body layered over the generic one.
package prepare

import (
	"context"
	"fmt"
	"reflect"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the parameters of the generic prepare body.
type Input struct {
	Trim bool `sf:"trim"`
}

// NIRInput defines the parameters of the NIR-specific body.
type NIRInput struct {
	Trim        bool    `sf:"trim"`
	LinearLimit float64 `sf:"linear_limit"`
}

// OnPrepare is the generic prepare body: it checks payload consistency and
// optionally trims the reference pixels at both ends of the frame.
func OnPrepare(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *Input) ([]*dataset.Dataset, error) {
	for _, d := range in {
		if err := prepareOne(d, input.Trim); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// OnPrepareNIR is the NIR override: generic preparation plus a nonlinearity
// screen against the detector's linear regime.
func OnPrepareNIR(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *NIRInput) ([]*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)
	for _, d := range in {
		if err := prepareOne(d, input.Trim); err != nil {
			return nil, err
		}
		nonlinear := 0
		for _, px := range d.Pixels {
			if px > input.LinearLimit {
				nonlinear++
			}
		}
		d.Header["NONLINEAR"] = nonlinear
		if nonlinear > 0 {
			logger.Warn("Frame has pixels above the linear regime.", "dataset", d.Name, "count", nonlinear)
		}
	}
	return in, nil
}

func prepareOne(d *dataset.Dataset, trim bool) error {
	if len(d.Pixels) == 0 {
		return fmt.Errorf("dataset %s has an empty payload", d)
	}
	if n := shapeSize(d.Shape); n > 0 && n != len(d.Pixels) {
		return fmt.Errorf("dataset %s: shape %v does not match payload length %d", d, d.Shape, len(d.Pixels))
	}
	if trim && len(d.Pixels) > 2 {
		d.Pixels = d.Pixels[1 : len(d.Pixels)-1]
		d.Shape = []int{len(d.Pixels)}
	}
	d.Header["PREPARED"] = true
	return nil
}

func shapeSize(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Register registers both prepare bodies with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnPrepare", &registry.Handler{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnPrepare,
	})
	r.RegisterHandler("OnPrepareNIR", &registry.Handler{
		NewInput:  func() any { return new(NIRInput) },
		InputType: reflect.TypeOf(NIRInput{}),
		Fn:        OnPrepareNIR,
	})
}
