package params

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/avolkov/starflow/internal/match"
	"github.com/avolkov/starflow/internal/tagset"
)

// Resolver resolves final parameter values for operation invocations. Spec
// sets are added once at startup; Resolve is read-only afterwards and safe
// to share across runs.
type Resolver struct {
	specs map[string][]*SpecSet
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{specs: make(map[string][]*SpecSet)}
}

// AddSpec registers a spec layer for its operation.
func (r *Resolver) AddSpec(s *SpecSet) {
	r.specs[s.Operation] = append(r.specs[s.Operation], s)
}

// Resolve merges spec defaults with the given override layers, lowest to
// highest precedence, and validates every final value. Override layers are
// applied in argument order (recipe-inline, then user, then call-site).
func (r *Resolver) Resolve(operation string, tags tagset.Set, overrideLayers ...map[string]cty.Value) (Values, error) {
	declared, err := r.effectiveSpec(operation, tags)
	if err != nil {
		return nil, err
	}

	values := make(Values, len(declared))
	for name, p := range declared {
		if p.Default != cty.NilVal {
			values[name] = p.Default
		}
	}

	for _, layer := range overrideLayers {
		for name, val := range layer {
			p, ok := declared[name]
			if !ok {
				return nil, &InvalidParameterError{
					Operation:  operation,
					Param:      name,
					Value:      val,
					Constraint: "not a declared parameter",
				}
			}
			converted, err := convert.Convert(val, p.Type)
			if err != nil {
				return nil, &InvalidParameterError{
					Operation:  operation,
					Param:      name,
					Value:      val,
					Constraint: fmt.Sprintf("declared type %s", p.Type.FriendlyName()),
				}
			}
			values[name] = converted
		}
	}

	for name, p := range declared {
		val, ok := values[name]
		if !ok {
			return nil, &InvalidParameterError{
				Operation:  operation,
				Param:      name,
				Value:      cty.NilVal,
				Constraint: "required parameter with no default and no override",
			}
		}
		if err := validate(operation, p, val); err != nil {
			return nil, err
		}
	}

	return values, nil
}

// effectiveSpec layers all applicable spec sets, least specific first, so a
// more specific manifest overrides individual parameters of a generic one.
// Two distinct layers at the same specificity are ambiguous, exactly as for
// operation bodies.
func (r *Resolver) effectiveSpec(operation string, tags tagset.Set) (map[string]*Param, error) {
	var layers []*SpecSet
	for _, s := range r.specs[operation] {
		if s.Tags.SubsetOf(tags) {
			layers = append(layers, s)
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Tags.Len() < layers[j].Tags.Len()
	})

	for i := 1; i < len(layers); i++ {
		if layers[i].Tags.Len() == layers[i-1].Tags.Len() {
			return nil, fmt.Errorf("parameter specs for operation %q: %w", operation, &match.AmbiguousError{
				Tags:         tags,
				Requirements: []tagset.Set{layers[i-1].Tags, layers[i].Tags},
			})
		}
	}

	declared := make(map[string]*Param)
	for _, layer := range layers {
		for name, p := range layer.Params {
			declared[name] = p
		}
	}
	return declared, nil
}

func validate(operation string, p *Param, val cty.Value) error {
	fail := func(constraint string) error {
		return &InvalidParameterError{Operation: operation, Param: p.Name, Value: val, Constraint: constraint}
	}

	if val.IsNull() {
		return fail("null is not a valid value")
	}

	if len(p.Choices) > 0 {
		ok := false
		for _, c := range p.Choices {
			if val.RawEquals(c) {
				ok = true
				break
			}
		}
		if !ok {
			choices := make([]string, len(p.Choices))
			for i, c := range p.Choices {
				choices[i] = renderValue(c)
			}
			return fail(fmt.Sprintf("choices %v", choices))
		}
	}

	if p.Min != nil && val.Type() == cty.Number && val.LessThan(*p.Min).True() {
		return fail(fmt.Sprintf("minimum %s", renderValue(*p.Min)))
	}
	if p.Max != nil && val.Type() == cty.Number && val.GreaterThan(*p.Max).True() {
		return fail(fmt.Sprintf("maximum %s", renderValue(*p.Max)))
	}

	return nil
}
