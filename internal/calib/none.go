package calib

import (
	"context"

	"github.com/avolkov/starflow/internal/dataset"
)

// None is the manager used when no calibration index is configured. Every
// lookup misses, so optional correction steps pass through and mandatory
// ones fail with a clear error.
type None struct{}

func (None) Lookup(_ context.Context, calType string, d *dataset.Dataset) (string, error) {
	return "", &NotFoundError{Type: calType, Dataset: d.Name}
}
