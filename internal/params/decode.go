package params

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty/gocty"
)

// Decode populates an operation's Go input struct from resolved values using
// `sf` struct tags. Fields without a matching resolved value keep their zero
// value; the resolver has already enforced required parameters, so a missing
// value here means the field is not a declared parameter.
func Decode(values Values, target any) error {
	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	if structVal.Kind() != reflect.Struct {
		return fmt.Errorf("decode target must point to a struct, got %s", structVal.Kind())
	}
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := FieldParamName(field)
		if name == "" {
			continue
		}

		val, ok := values[name]
		if !ok {
			continue
		}
		if err := gocty.FromCtyValue(val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode parameter %q into field %s: %w", name, field.Name, err)
		}
	}
	return nil
}

// FieldParamName returns the parameter name an input struct field binds to,
// or "" for fields excluded from decoding.
func FieldParamName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	tag := field.Tag.Get("sf")
	name := strings.Split(tag, ",")[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}
