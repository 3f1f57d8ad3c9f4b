// Package separate_flats splits a batch of flat-field exposures into
// lamp-on and lamp-off groups, moving the lamp-off frames onto a named
// side stream for later use.
package separate_flats

import (
	"context"
	"reflect"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/pipeline"
	"github.com/avolkov/starflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the parameters of the separate_flats body.
type Input struct {
	OffStream string `sf:"off_stream"`
}

// OnSeparateFlats keeps lamp-on frames on the incoming stream and appends
// lamp-off frames to the configured side stream.
func OnSeparateFlats(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *Input) ([]*dataset.Dataset, error) {
	logger := ctxlog.FromContext(ctx)

	var on, off []*dataset.Dataset
	for _, d := range in {
		if d.Tags.Has("LAMPOFF") {
			off = append(off, d)
		} else {
			on = append(on, d)
		}
	}

	if len(off) > 0 {
		run.AppendToStream(input.OffStream, off...)
		logger.Info("Separated lamp-off frames onto side stream.",
			"stream", input.OffStream, "lamp_on", len(on), "lamp_off", len(off))
	}
	return on, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnSeparateFlats", &registry.Handler{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnSeparateFlats,
	})
}
