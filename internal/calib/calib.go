// Package calib defines the calibration manager consumed by operations, and
// a file-backed reference implementation driven by a YAML index.
//
// The engine itself never looks up calibrations; individual operations do,
// through the handle carried in the run context.
package calib

import (
	"context"
	"fmt"

	"github.com/avolkov/starflow/internal/dataset"
)

// Manager resolves a calibration type (e.g. "dark", "flat") for a dataset to
// a file path.
type Manager interface {
	Lookup(ctx context.Context, calType string, d *dataset.Dataset) (string, error)
}

// NotFoundError reports that no calibration of the requested type applies to
// the dataset.
type NotFoundError struct {
	Type    string
	Dataset string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %q calibration found for dataset %s", e.Type, e.Dataset)
}
