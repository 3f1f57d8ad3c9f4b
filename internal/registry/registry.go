// Package registry is the operation registry: the process-wide mapping from
// operation names to tag-scoped registrations, and from handler names to the
// compiled Go bodies that implement them.
//
// Registrations come from two sides that must agree: HCL operation manifests
// declare the tag requirement, parameters and handler name, while Go modules
// register the handler functions. The registry is populated once at startup,
// validated, and read-only afterwards, so concurrent runs share it without
// locking.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/tagset"
)

// Handler holds the compiled Go parts of one operation body.
type Handler struct {
	NewInput  func() any
	InputType reflect.Type
	Fn        any
}

// Operation is one manifest-declared registration: a tag requirement binding
// an operation name to a handler and its parameter spec layer.
type Operation struct {
	Name           string
	Tags           tagset.Set
	HandlerName    string
	CompletionMark string
	Fanout         bool
	Description    string
	Params         *params.SpecSet
	Source         string
}

// RequiredTags makes Operation rankable by the tag matcher.
func (o *Operation) RequiredTags() tagset.Set { return o.Tags }

// Module is implemented by packages that contribute handlers at startup.
type Module interface {
	Register(r *Registry)
}

// Registry holds all registrations for one application instance.
type Registry struct {
	handlers map[string]*Handler
	ops      map[string][]*Operation
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]*Handler),
		ops:      make(map[string][]*Operation),
	}
}

// RegisterHandler registers a Go handler under its manifest-visible name.
// A duplicate name is a programmer error.
func (r *Registry) RegisterHandler(name string, h *Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering operation handler.", "name", name)
	r.handlers[name] = h
}

// AddOperations records manifest-declared registrations.
func (r *Registry) AddOperations(ops ...*Operation) {
	for _, op := range ops {
		r.ops[op.Name] = append(r.ops[op.Name], op)
	}
}

// Registrations returns all registrations for an operation name.
func (r *Registry) Registrations(name string) []*Operation {
	return r.ops[name]
}

// OperationNames returns every registered operation name in lexical order.
func (r *Registry) OperationNames() []string {
	names := make([]string, 0, len(r.ops))
	for n := range r.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Handler looks up a registered Go handler by name.
func (r *Registry) Handler(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// SpecSets returns every parameter spec layer attached to a registration,
// for seeding the parameter resolver.
func (r *Registry) SpecSets() []*params.SpecSet {
	var out []*params.SpecSet
	for _, name := range r.OperationNames() {
		for _, op := range r.ops[name] {
			if op.Params != nil {
				out = append(out, op.Params)
			}
		}
	}
	return out
}
