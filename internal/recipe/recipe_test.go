package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/starflow/internal/match"
	"github.com/avolkov/starflow/internal/tagset"
)

func lib(name string, tags tagset.Set, def string, recipes ...string) *Library {
	l := &Library{Name: name, Tags: tags, DefaultRecipe: def, Recipes: make(map[string]*Recipe)}
	for _, r := range recipes {
		l.Recipes[r] = &Recipe{Name: r, Steps: []Step{{Operation: "prepare"}}}
	}
	return l
}

func TestMoreSpecificLibraryWins(t *testing.T) {
	// Library A requires {}, library B requires {FLAT}, both define
	// makeProcessedFlat; a dataset tagged {FLAT} selects B's definition.
	s := NewSelector()
	s.Add(
		lib("A", tagset.New(), "", "makeProcessedFlat"),
		lib("B", tagset.New("FLAT"), "", "makeProcessedFlat"),
	)

	_, winner, err := s.Select(tagset.New("FLAT"), "makeProcessedFlat")
	require.NoError(t, err)
	assert.Equal(t, "B", winner.Name)
}

func TestLibraryWithoutRecipeIgnored(t *testing.T) {
	s := NewSelector()
	s.Add(
		lib("A", tagset.New(), "", "reduce"),
		lib("B", tagset.New("FLAT"), "", "makeProcessedFlat"),
	)

	_, winner, err := s.Select(tagset.New("FLAT"), "reduce")
	require.NoError(t, err)
	assert.Equal(t, "A", winner.Name)
}

func TestDefaultRecipeSelection(t *testing.T) {
	s := NewSelector()
	s.Add(
		lib("A", tagset.New(), "reduce", "reduce"),
		lib("B", tagset.New("FLAT"), "makeProcessedFlat", "makeProcessedFlat"),
	)

	r, winner, err := s.Select(tagset.New("FLAT", "NIR"), "")
	require.NoError(t, err)
	assert.Equal(t, "B", winner.Name)
	assert.Equal(t, "makeProcessedFlat", r.Name)

	r, winner, err = s.Select(tagset.New("GMOS"), "")
	require.NoError(t, err)
	assert.Equal(t, "A", winner.Name)
	assert.Equal(t, "reduce", r.Name)
}

func TestNoDefaultAnywhere(t *testing.T) {
	s := NewSelector()
	s.Add(lib("A", tagset.New(), "", "reduce"))

	_, _, err := s.Select(tagset.New("FLAT"), "")
	var noApp *NoApplicableError
	require.ErrorAs(t, err, &noApp)
}

func TestNoApplicableRecipe(t *testing.T) {
	s := NewSelector()
	s.Add(lib("B", tagset.New("FLAT"), "", "makeProcessedFlat"))

	_, _, err := s.Select(tagset.New("DARK"), "makeProcessedFlat")
	var noApp *NoApplicableError
	require.ErrorAs(t, err, &noApp)
	assert.Contains(t, err.Error(), "makeProcessedFlat")

	_, _, err = s.Select(tagset.New("FLAT"), "unknownRecipe")
	require.ErrorAs(t, err, &noApp)
}

func TestEquallySpecificLibrariesAmbiguous(t *testing.T) {
	s := NewSelector()
	s.Add(
		lib("A", tagset.New("NIR"), "", "reduce"),
		lib("B", tagset.New("FLAT"), "", "reduce"),
	)

	_, _, err := s.Select(tagset.New("NIR", "FLAT"), "reduce")
	var amb *match.AmbiguousError
	require.ErrorAs(t, err, &amb)
}

func TestBrokenDefaultDeclaration(t *testing.T) {
	s := NewSelector()
	broken := lib("A", tagset.New(), "missing", "reduce")
	s.Add(broken)

	_, _, err := s.Select(tagset.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
