// Package compose builds the effective operation table for a tag set: every
// operation name independently resolved to its most specific registration.
//
// This is the override mechanism of the engine. A generic registration
// (small tag requirement) is the fallback body; an instrument-specific one
// (larger requirement) overrides it. Because each name resolves over a flat
// registry there is no inheritance chain to walk and no diamond to
// disambiguate.
package compose

import (
	"fmt"
	"sync"

	"github.com/avolkov/starflow/internal/match"
	"github.com/avolkov/starflow/internal/registry"
	"github.com/avolkov/starflow/internal/tagset"
)

// Table is the resolved operation table for one tag set. Operations that
// could not be resolved keep their error so the failure surfaces, with full
// detail, only when a recipe actually needs them.
type Table struct {
	Tags tagset.Set

	ops  map[string]*registry.Operation
	errs map[string]error
}

// Lookup returns the resolved registration for an operation name.
func (t *Table) Lookup(name string) (*registry.Operation, error) {
	if op, ok := t.ops[name]; ok {
		return op, nil
	}
	if err, ok := t.errs[name]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("operation %q: %w", name, &match.NoMatchError{Tags: t.Tags})
}

// Composer resolves operation tables, caching per distinct tag set. Tag sets
// are shared by many datasets within a run, so each distinct set is resolved
// exactly once.
type Composer struct {
	reg *registry.Registry

	mu    sync.Mutex
	cache map[string]*Table
}

// New creates a composer over the given registry.
func New(reg *registry.Registry) *Composer {
	return &Composer{
		reg:   reg,
		cache: make(map[string]*Table),
	}
}

// Resolve returns the effective operation table for the tag set.
func (c *Composer) Resolve(tags tagset.Set) *Table {
	key := tags.Key()

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.cache[key]; ok {
		return t
	}

	t := &Table{
		Tags: tags,
		ops:  make(map[string]*registry.Operation),
		errs: make(map[string]error),
	}
	for _, name := range c.reg.OperationNames() {
		op, err := match.MostSpecific(c.reg.Registrations(name), tags)
		if err != nil {
			t.errs[name] = fmt.Errorf("operation %q: %w", name, err)
			continue
		}
		t.ops[name] = op
	}

	c.cache[key] = t
	return t
}
