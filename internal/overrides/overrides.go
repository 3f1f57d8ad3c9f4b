// Package overrides loads run-wide user parameter overrides from a YAML
// file: a mapping from operation name to parameter name to value. Values are
// converted to cty and validated against the declared specs by the parameter
// resolver, not here.
package overrides

import (
	"fmt"
	"os"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Set maps operation name to parameter overrides for a whole run.
type Set map[string]map[string]cty.Value

// ForOperation returns the override layer for one operation, which may be
// nil.
func (s Set) ForOperation(name string) map[string]cty.Value {
	return s[name]
}

// Load reads an override file.
func Load(path string) (Set, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes override YAML.
func Parse(raw []byte) (Set, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse overrides: %w", err)
	}

	out := make(Set, len(doc))
	for op, paramMap := range doc {
		layer := make(map[string]cty.Value, len(paramMap))
		for name, v := range paramMap {
			val, err := toCty(v)
			if err != nil {
				return nil, fmt.Errorf("override %s.%s: %w", op, name, err)
			}
			layer[name] = val
		}
		out[op] = layer
	}
	return out, nil
}

// toCty converts a decoded YAML value into its cty equivalent. Sequences
// become tuples and mappings become objects; the parameter resolver converts
// those to the declared list/map types during validation.
func toCty(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case float64:
		return cty.NumberFloatVal(tv), nil
	case string:
		return cty.StringVal(tv), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(tv))
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ev, err := toCty(tv[k])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}
