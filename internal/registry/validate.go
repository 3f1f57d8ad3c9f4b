package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/dataset"
	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/pipeline"
)

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	runCtxType  = reflect.TypeOf((*pipeline.Context)(nil))
	datasetsTyp = reflect.TypeOf([]*dataset.Dataset(nil))
	errType     = reflect.TypeOf((*error)(nil)).Elem()
)

// Validate performs a strict parity check between manifests and Go code
// before any run starts: every registration must name a registered handler
// with the expected signature, every declared parameter must have a matching
// input struct field with a compatible type, and every input struct field
// must be declared by some manifest layer of its operation.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, name := range r.OperationNames() {
		declaredAnywhere := make(map[string]struct{})
		for _, op := range r.ops[name] {
			if op.Params != nil {
				for p := range op.Params.Params {
					declaredAnywhere[p] = struct{}{}
				}
			}
		}

		for _, op := range r.ops[name] {
			handler, ok := r.handlers[op.HandlerName]
			if !ok {
				errs = append(errs, fmt.Sprintf("operation '%s' (%s): handler '%s' is not registered",
					op.Name, op.Source, op.HandlerName))
				continue
			}
			if err := checkSignature(handler); err != nil {
				errs = append(errs, fmt.Sprintf("operation '%s': handler '%s': %v", op.Name, op.HandlerName, err))
				continue
			}
			errs = append(errs, checkParamParity(op, handler, declaredAnywhere)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "operations", len(r.ops), "handlers", len(r.handlers))
	return nil
}

// checkSignature enforces the operation handler contract:
//
//	func(ctx context.Context, run *pipeline.Context, in []*dataset.Dataset, input *X) ([]*dataset.Dataset, error)
func checkSignature(h *Handler) error {
	if h.Fn == nil || h.NewInput == nil || h.InputType == nil {
		return fmt.Errorf("handler is missing Fn, NewInput or InputType")
	}
	fn := reflect.TypeOf(h.Fn)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("Fn is %s, not a function", fn.Kind())
	}
	if fn.NumIn() != 4 || fn.NumOut() != 2 {
		return fmt.Errorf("want func(context.Context, *pipeline.Context, []*dataset.Dataset, *Input) ([]*dataset.Dataset, error)")
	}
	if fn.In(0) != ctxType || fn.In(1) != runCtxType || fn.In(2) != datasetsTyp {
		return fmt.Errorf("unexpected argument types")
	}
	if fn.In(3) != reflect.PointerTo(h.InputType) {
		return fmt.Errorf("input argument is %s, want *%s", fn.In(3), h.InputType)
	}
	if fn.Out(0) != datasetsTyp || fn.Out(1) != errType {
		return fmt.Errorf("unexpected return types")
	}
	return nil
}

func checkParamParity(op *Operation, handler *Handler, declaredAnywhere map[string]struct{}) []string {
	var errs []string

	goFields := make(map[string]reflect.StructField)
	for i := 0; i < handler.InputType.NumField(); i++ {
		field := handler.InputType.Field(i)
		if name := params.FieldParamName(field); name != "" {
			goFields[name] = field
		}
	}

	// Struct fields may be satisfied by any layer of the operation, since a
	// specific handler still receives generic-layer parameters.
	for name := range goFields {
		if _, ok := declaredAnywhere[name]; !ok {
			errs = append(errs, fmt.Sprintf("operation '%s': handler '%s' has input field for parameter '%s' which no manifest declares",
				op.Name, op.HandlerName, name))
		}
	}

	if op.Params == nil {
		return errs
	}
	for name, p := range op.Params.Params {
		field, ok := goFields[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("operation '%s' (%s): manifest declares parameter '%s' which handler '%s' has no field for",
				op.Name, op.Source, name, op.HandlerName))
			continue
		}
		if p.Type.Equals(cty.DynamicPseudoType) {
			continue
		}
		implied, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("operation '%s', parameter '%s': cannot imply cty type from Go field %s: %v",
				op.Name, name, field.Type, err))
			continue
		}
		if !unifiable(p.Type, implied) {
			errs = append(errs, fmt.Sprintf("operation '%s', parameter '%s': manifest type '%s' does not match Go field '%s' of type '%s'",
				op.Name, name, p.Type.FriendlyName(), field.Name, implied.FriendlyName()))
		}
	}
	return errs
}

// unifiable reports whether a manifest type and the type implied by a Go
// field are interchangeable for decoding purposes.
func unifiable(manifest, implied cty.Type) bool {
	if manifest.Equals(implied) {
		return true
	}
	// gocty implies list types for slices; a manifest set(...) still decodes.
	if manifest.IsSetType() && implied.IsListType() {
		return manifest.ElementType().Equals(implied.ElementType())
	}
	return false
}
