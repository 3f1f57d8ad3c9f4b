// Package pipeline holds the state threaded through one reduction run: the
// named dataset streams, the calibration handle, and the provenance log.
// Operation bodies receive this context; the engine owns it.
package pipeline

import (
	"sort"

	"github.com/google/uuid"

	"github.com/avolkov/starflow/internal/calib"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/provenance"
)

// PrimaryStream is the stream a recipe's steps read from and write to unless
// an operation explicitly addresses a side stream.
const PrimaryStream = "main"

// Context is the mutable state of a single run. It is run-local: concurrent
// runs each get their own Context, so no locking is needed here.
type Context struct {
	RunID      uuid.UUID
	Calib      calib.Manager
	Provenance *provenance.Log

	streams map[string][]*dataset.Dataset
}

// NewContext creates an empty run context with a fresh run ID.
func NewContext(cal calib.Manager) *Context {
	return &Context{
		RunID:      uuid.New(),
		Calib:      cal,
		Provenance: &provenance.Log{},
		streams:    make(map[string][]*dataset.Dataset),
	}
}

// Stream returns the datasets currently in the named stream.
func (c *Context) Stream(name string) []*dataset.Dataset {
	return c.streams[name]
}

// SetStream replaces the named stream's contents.
func (c *Context) SetStream(name string, ds []*dataset.Dataset) {
	c.streams[name] = ds
}

// AppendToStream adds datasets to the end of the named stream, creating it
// if needed.
func (c *Context) AppendToStream(name string, ds ...*dataset.Dataset) {
	c.streams[name] = append(c.streams[name], ds...)
}

// TakeStream removes and returns the named stream's contents. Operations use
// this to merge a side stream back into their processing.
func (c *Context) TakeStream(name string) []*dataset.Dataset {
	ds := c.streams[name]
	delete(c.streams, name)
	return ds
}

// StreamNames returns the names of all non-empty streams in lexical order.
func (c *Context) StreamNames() []string {
	names := make([]string, 0, len(c.streams))
	for n, ds := range c.streams {
		if len(ds) > 0 {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
