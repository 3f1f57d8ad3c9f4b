// Package hcl loads the two declarative surfaces of the engine: operation
// manifests and recipe libraries. Files are parsed with hclparse, decoded
// through the schema structs, and translated into the loader-agnostic
// registry and recipe models.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/avolkov/starflow/internal/ctxlog"
	"github.com/avolkov/starflow/internal/fsutil"
	"github.com/avolkov/starflow/internal/params"
	"github.com/avolkov/starflow/internal/recipe"
	"github.com/avolkov/starflow/internal/registry"
	"github.com/avolkov/starflow/internal/tagset"
)

// Loader parses manifest and recipe files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a loader with a fresh parser cache.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// LoadOperations walks path for .hcl operation manifests and translates
// every operation block into a registration.
func (l *Loader) LoadOperations(ctx context.Context, path string) ([]*registry.Operation, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk manifests path %s: %w", path, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl operation manifests found in path", "path", path)
	}

	var ops []*registry.Operation
	for _, filePath := range paths {
		file, diags := l.parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}

		var parsed operationFile
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", filePath, diags)
		}
		for _, block := range parsed.Operations {
			op, err := translateOperation(block, filePath)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: %w", filePath, err)
			}
			ops = append(ops, op)
		}
		logger.Debug("Loaded operation manifest.", "file", filePath, "operations", len(parsed.Operations))
	}

	logger.Info("Operation manifests loaded.", "registrations", len(ops))
	return ops, nil
}

// LoadLibraries walks path for .hcl recipe library files.
func (l *Loader) LoadLibraries(ctx context.Context, path string) ([]*recipe.Library, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk recipes path %s: %w", path, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl recipe libraries found in path", "path", path)
	}

	var libs []*recipe.Library
	for _, filePath := range paths {
		file, diags := l.parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}

		var parsed libraryFile
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode recipe library %s: %w", filePath, diags)
		}
		for _, block := range parsed.Libraries {
			lib, err := translateLibrary(block, filePath)
			if err != nil {
				return nil, fmt.Errorf("recipe library %s: %w", filePath, err)
			}
			libs = append(libs, lib)
		}
		logger.Debug("Loaded recipe library file.", "file", filePath, "libraries", len(parsed.Libraries))
	}

	logger.Info("Recipe libraries loaded.", "libraries", len(libs))
	return libs, nil
}

func translateOperation(block *operationBlock, source string) (*registry.Operation, error) {
	tags := tagset.New(block.Tags...)
	spec := &params.SpecSet{
		Operation: block.Name,
		Tags:      tags,
		Params:    make(map[string]*params.Param, len(block.Params)),
	}
	for _, pb := range block.Params {
		p, err := translateParam(block.Name, pb)
		if err != nil {
			return nil, err
		}
		spec.Params[p.Name] = p
	}

	fanout := true
	if block.Fanout != nil {
		fanout = *block.Fanout
	}
	return &registry.Operation{
		Name:           block.Name,
		Tags:           tags,
		HandlerName:    block.Handler,
		CompletionMark: block.CompletionMark,
		Fanout:         fanout,
		Description:    block.Description,
		Params:         spec,
		Source:         source,
	}, nil
}

func translateParam(operation string, pb *paramBlock) (*params.Param, error) {
	ty, err := typeExprToCtyType(pb.Type)
	if err != nil {
		return nil, fmt.Errorf("operation %q, param %q: %w", operation, pb.Name, err)
	}

	p := &params.Param{
		Name:        pb.Name,
		Type:        ty,
		Description: pb.Description,
	}

	if def, ok, err := evalOptional(pb.Default); err != nil {
		return nil, fmt.Errorf("operation %q, param %q default: %w", operation, pb.Name, err)
	} else if ok {
		converted, err := convert.Convert(def, ty)
		if err != nil {
			return nil, fmt.Errorf("operation %q, param %q: default does not fit declared type %s: %w",
				operation, pb.Name, ty.FriendlyName(), err)
		}
		p.Default = converted
	}

	if choices, ok, err := evalOptional(pb.Choices); err != nil {
		return nil, fmt.Errorf("operation %q, param %q choices: %w", operation, pb.Name, err)
	} else if ok {
		if !choices.CanIterateElements() {
			return nil, fmt.Errorf("operation %q, param %q: choices must be a list", operation, pb.Name)
		}
		for it := choices.ElementIterator(); it.Next(); {
			_, cv := it.Element()
			converted, err := convert.Convert(cv, ty)
			if err != nil {
				return nil, fmt.Errorf("operation %q, param %q: choice does not fit declared type %s: %w",
					operation, pb.Name, ty.FriendlyName(), err)
			}
			p.Choices = append(p.Choices, converted)
		}
	}

	for _, bound := range []struct {
		expr   hcl.Expression
		target **cty.Value
		label  string
	}{
		{pb.Min, &p.Min, "min"},
		{pb.Max, &p.Max, "max"},
	} {
		v, ok, err := evalOptional(bound.expr)
		if err != nil {
			return nil, fmt.Errorf("operation %q, param %q %s: %w", operation, pb.Name, bound.label, err)
		}
		if !ok {
			continue
		}
		if v.Type() != cty.Number {
			return nil, fmt.Errorf("operation %q, param %q: %s must be a number", operation, pb.Name, bound.label)
		}
		*bound.target = &v
	}

	return p, nil
}

func translateLibrary(block *libraryBlock, source string) (*recipe.Library, error) {
	lib := &recipe.Library{
		Name:          block.Name,
		Tags:          tagset.New(block.Tags...),
		DefaultRecipe: block.Default,
		Recipes:       make(map[string]*recipe.Recipe, len(block.Recipes)),
		Source:        source,
	}
	for _, rb := range block.Recipes {
		if _, exists := lib.Recipes[rb.Name]; exists {
			return nil, fmt.Errorf("library %q defines recipe %q twice", block.Name, rb.Name)
		}
		r := &recipe.Recipe{Name: rb.Name}
		for _, sb := range rb.Steps {
			overrides, err := stepOverrides(sb)
			if err != nil {
				return nil, fmt.Errorf("library %q, recipe %q: %w", block.Name, rb.Name, err)
			}
			r.Steps = append(r.Steps, recipe.Step{Operation: sb.Operation, Overrides: overrides})
		}
		lib.Recipes[rb.Name] = r
	}
	if lib.DefaultRecipe != "" {
		if _, ok := lib.Recipes[lib.DefaultRecipe]; !ok {
			return nil, fmt.Errorf("library %q declares default recipe %q but does not define it", block.Name, lib.DefaultRecipe)
		}
	}
	return lib, nil
}

// stepOverrides evaluates a step block's attributes into static values.
// Recipe sources are declarative data: expressions referencing other steps
// are not part of the model, so evaluation uses an empty context.
func stepOverrides(sb *stepBlock) (map[string]cty.Value, error) {
	attrs, diags := sb.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("step %q: %w", sb.Operation, diags)
	}
	if len(attrs) == 0 {
		return nil, nil
	}

	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q, override %q: %w", sb.Operation, name, diags)
		}
		out[name] = val
	}
	return out, nil
}

// ParseTypeExpr exposes type-expression parsing for tests and tooling that
// construct specs outside manifest files.
func ParseTypeExpr(src string) (cty.Type, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<type>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, diags
	}
	return typeExprToCtyType(expr)
}

func evalOptional(expr hcl.Expression) (cty.Value, bool, error) {
	if expr == nil {
		return cty.NilVal, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, false, diags
	}
	if val.IsNull() {
		return cty.NilVal, false, nil
	}
	return val, true, nil
}
