// Package recipe defines recipe libraries (named, tag-scoped collections of
// ordered step lists) and the selector that picks the right library for a
// dataset's tags.
package recipe

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/avolkov/starflow/internal/match"
	"github.com/avolkov/starflow/internal/tagset"
)

// Step is one entry in a recipe: an operation name plus the inline parameter
// overrides attached at the call site in the recipe source.
type Step struct {
	Operation string
	Overrides map[string]cty.Value
}

// Recipe is a named ordered sequence of steps.
type Recipe struct {
	Name  string
	Steps []Step
}

// Library is a tag-scoped collection of recipes, optionally declaring one of
// them as its default.
type Library struct {
	Name          string
	Tags          tagset.Set
	DefaultRecipe string
	Recipes       map[string]*Recipe
	Source        string
}

// RequiredTags makes Library rankable by the tag matcher.
func (l *Library) RequiredTags() tagset.Set { return l.Tags }

// NoApplicableError reports that no library offers the requested recipe for
// the given tags.
type NoApplicableError struct {
	Recipe string
	Tags   tagset.Set
}

func (e *NoApplicableError) Error() string {
	if e.Recipe == "" {
		return fmt.Sprintf("no recipe library declares a default recipe for tags %s", e.Tags)
	}
	return fmt.Sprintf("no recipe library defines %q for tags %s", e.Recipe, e.Tags)
}

// Selector locates recipes across all registered libraries. Libraries are
// added once at startup; Select is read-only and safe to share across runs.
type Selector struct {
	libs []*Library
}

// NewSelector creates an empty selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Add registers a library.
func (s *Selector) Add(libs ...*Library) {
	s.libs = append(s.libs, libs...)
}

// Libraries returns all registered libraries.
func (s *Selector) Libraries() []*Library {
	return s.libs
}

// Select returns the named recipe from the most specific library applicable
// to the tags. With an empty name it selects the default recipe of the most
// specific applicable library that declares one. Equally specific candidate
// libraries are an ambiguity error, never an ordering accident.
func (s *Selector) Select(tags tagset.Set, name string) (*Recipe, *Library, error) {
	var candidates []*Library
	for _, lib := range s.libs {
		if name == "" {
			if lib.DefaultRecipe != "" {
				candidates = append(candidates, lib)
			}
			continue
		}
		if _, ok := lib.Recipes[name]; ok {
			candidates = append(candidates, lib)
		}
	}

	lib, err := match.MostSpecific(candidates, tags)
	if err != nil {
		var noMatch *match.NoMatchError
		if errors.As(err, &noMatch) {
			return nil, nil, &NoApplicableError{Recipe: name, Tags: tags}
		}
		return nil, nil, fmt.Errorf("recipe %q: %w", name, err)
	}

	recipeName := name
	if recipeName == "" {
		recipeName = lib.DefaultRecipe
	}
	r, ok := lib.Recipes[recipeName]
	if !ok {
		return nil, nil, fmt.Errorf("library %q declares default recipe %q but does not define it", lib.Name, recipeName)
	}
	return r, lib, nil
}
