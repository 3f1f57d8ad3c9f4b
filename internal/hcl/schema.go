package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// operationFile is the top-level structure of an operation manifest file.
type operationFile struct {
	Operations []*operationBlock `hcl:"operation,block"`
	Body       hcl.Body          `hcl:",remain"`
}

// operationBlock declares one tag-scoped registration of an operation name.
type operationBlock struct {
	Name           string         `hcl:"name,label"`
	Tags           []string       `hcl:"tags,optional"`
	Handler        string         `hcl:"handler"`
	Description    string         `hcl:"description,optional"`
	CompletionMark string         `hcl:"completion_mark,optional"`
	Fanout         *bool          `hcl:"fanout,optional"`
	Params         []*paramBlock  `hcl:"param,block"`
}

// paramBlock declares one parameter: its type, default, and constraints.
// Type and constraint values are kept as expressions and evaluated during
// translation so type keywords like `number` parse naturally.
type paramBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Choices     hcl.Expression `hcl:"choices,optional"`
	Min         hcl.Expression `hcl:"min,optional"`
	Max         hcl.Expression `hcl:"max,optional"`
	Description string         `hcl:"description,optional"`
}

// libraryFile is the top-level structure of a recipe library file.
type libraryFile struct {
	Libraries []*libraryBlock `hcl:"library,block"`
	Body      hcl.Body        `hcl:",remain"`
}

// libraryBlock declares one tag-scoped recipe library.
type libraryBlock struct {
	Name    string         `hcl:"name,label"`
	Tags    []string       `hcl:"tags,optional"`
	Default string         `hcl:"default,optional"`
	Recipes []*recipeBlock `hcl:"recipe,block"`
}

// recipeBlock is a named ordered list of steps.
type recipeBlock struct {
	Name  string       `hcl:"name,label"`
	Steps []*stepBlock `hcl:"step,block"`
}

// stepBlock invokes one operation; its attributes are inline parameter
// overrides.
type stepBlock struct {
	Operation string   `hcl:"operation,label"`
	Body      hcl.Body `hcl:",remain"`
}
