// Package dataset defines the unit of data flowing through a reduction run:
// a pixel payload with classification tags, header metadata, and the
// completion marks used by the skip policy.
package dataset

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/avolkov/starflow/internal/tagset"
)

// Dataset is one observation in a stream. Operations may update Pixels and
// Header in place, or derive replacement datasets; the ID identifies the
// dataset in provenance records either way.
type Dataset struct {
	ID     uuid.UUID
	Name   string
	Tags   tagset.Set
	Header map[string]any
	Pixels []float64
	Shape  []int

	marks map[string]struct{}
}

// New creates a dataset with a fresh ID and the given tags.
func New(name string, tags tagset.Set) *Dataset {
	return &Dataset{
		ID:     uuid.New(),
		Name:   name,
		Tags:   tags,
		Header: make(map[string]any),
		marks:  make(map[string]struct{}),
	}
}

// Derive creates a new dataset descended from d: fresh ID, copied tags,
// header and marks, empty payload. Used by operations that produce a new
// product (e.g. a stack) rather than transforming inputs in place.
func (d *Dataset) Derive(name string) *Dataset {
	nd := New(name, d.Tags)
	for k, v := range d.Header {
		nd.Header[k] = v
	}
	for m := range d.marks {
		nd.marks[m] = struct{}{}
	}
	return nd
}

// Retag returns a shallow copy of d carrying the new tag set. The ID, header,
// payload and marks are shared with the original; the original's tags are
// untouched so provenance written against it stays consistent.
func (d *Dataset) Retag(tags tagset.Set) *Dataset {
	nd := *d
	nd.Tags = tags
	return &nd
}

// AddMark records a completion mark on the dataset.
func (d *Dataset) AddMark(mark string) {
	if mark == "" {
		return
	}
	if d.marks == nil {
		d.marks = make(map[string]struct{})
	}
	d.marks[mark] = struct{}{}
}

// HasMark reports whether the dataset carries the given completion mark.
func (d *Dataset) HasMark(mark string) bool {
	_, ok := d.marks[mark]
	return ok
}

// Marks returns the completion marks as a tag set.
func (d *Dataset) Marks() tagset.Set {
	out := make([]string, 0, len(d.marks))
	for m := range d.marks {
		out = append(out, m)
	}
	return tagset.New(out...)
}

// String identifies the dataset in logs and error messages.
func (d *Dataset) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.ID)
}
