// Package params implements the layered parameter system: declared parameter
// specs (type, default, constraints) resolved by tag specificity, merged with
// recipe-inline, user and call-site overrides, and validated strictly. Values
// never get clamped or guessed: anything outside a declared constraint fails
// the run before any operation body executes.
package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/avolkov/starflow/internal/tagset"
)

// Param is one declared parameter of an operation.
type Param struct {
	Name        string
	Type        cty.Type
	Default     cty.Value // cty.NilVal means the parameter is required
	Choices     []cty.Value
	Min         *cty.Value
	Max         *cty.Value
	Description string
}

// SpecSet is the parameter declarations one manifest attaches to an
// operation, scoped by the manifest's tag requirement. Spec sets layer by
// specificity exactly like operation bodies.
type SpecSet struct {
	Operation string
	Tags      tagset.Set
	Params    map[string]*Param
}

// RequiredTags makes SpecSet rankable by the tag matcher.
func (s *SpecSet) RequiredTags() tagset.Set { return s.Tags }

// Values holds the final resolved configuration for one operation
// invocation.
type Values map[string]cty.Value

// Render produces a deterministic string form of the values for provenance
// records.
func (v Values) Render() map[string]string {
	out := make(map[string]string, len(v))
	for name, val := range v {
		out[name] = renderValue(val)
	}
	return out
}

func renderValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case ty == cty.Bool:
		return strconv.FormatBool(v.True())
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			parts = append(parts, renderValue(ev))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ty.IsMapType() || ty.IsObjectType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			parts = append(parts, renderValue(k)+"="+renderValue(ev))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.GoString()
	}
}

// InvalidParameterError reports a value that failed type, range or choice
// validation, or an override naming an undeclared parameter.
type InvalidParameterError struct {
	Operation  string
	Param      string
	Value      cty.Value
	Constraint string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s.%s: value %s violates %s",
		e.Operation, e.Param, renderValue(e.Value), e.Constraint)
}
