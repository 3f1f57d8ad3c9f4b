package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/starflow/internal/tagset"
)

type fakeReg struct {
	name string
	tags tagset.Set
}

func (f *fakeReg) RequiredTags() tagset.Set { return f.tags }

func TestMoreSpecificWins(t *testing.T) {
	generic := &fakeReg{name: "generic", tags: tagset.New()}
	nir := &fakeReg{name: "nir", tags: tagset.New("NIR")}

	got, err := MostSpecific([]*fakeReg{generic, nir}, tagset.New("NIR", "FLAT"))
	require.NoError(t, err)
	assert.Equal(t, "nir", got.name)
}

func TestSubsetBeatsSupersetOfSubset(t *testing.T) {
	// A ⊂ B, dataset tagged B ∪ C: the B requirement must win.
	a := &fakeReg{name: "a", tags: tagset.New("GEM")}
	b := &fakeReg{name: "b", tags: tagset.New("GEM", "NIR")}

	got, err := MostSpecific([]*fakeReg{a, b}, tagset.New("GEM", "NIR", "FLAT"))
	require.NoError(t, err)
	assert.Equal(t, "b", got.name)
}

func TestNonMatchingCandidateIgnored(t *testing.T) {
	nir := &fakeReg{name: "nir", tags: tagset.New("NIR")}
	gmos := &fakeReg{name: "gmos", tags: tagset.New("GMOS", "SPECT")}

	got, err := MostSpecific([]*fakeReg{gmos, nir}, tagset.New("NIR"))
	require.NoError(t, err)
	assert.Equal(t, "nir", got.name)
}

func TestNoMatch(t *testing.T) {
	nir := &fakeReg{name: "nir", tags: tagset.New("NIR")}

	_, err := MostSpecific([]*fakeReg{nir}, tagset.New("GMOS"))
	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "{GMOS}", noMatch.Tags.String())
}

func TestEquallySpecificIsAmbiguous(t *testing.T) {
	a := &fakeReg{name: "a", tags: tagset.New("NIR")}
	b := &fakeReg{name: "b", tags: tagset.New("FLAT")}

	_, err := MostSpecific([]*fakeReg{a, b}, tagset.New("NIR", "FLAT"))
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Len(t, amb.Requirements, 2)
}

func TestAmbiguityNotResolvedByOrder(t *testing.T) {
	a := &fakeReg{name: "a", tags: tagset.New("NIR")}
	b := &fakeReg{name: "b", tags: tagset.New("FLAT")}
	tags := tagset.New("NIR", "FLAT")

	_, err1 := MostSpecific([]*fakeReg{a, b}, tags)
	_, err2 := MostSpecific([]*fakeReg{b, a}, tags)
	require.Error(t, err1)
	require.Error(t, err2)
}

func TestIdenticalRequirementsAreAmbiguous(t *testing.T) {
	a := &fakeReg{name: "a", tags: tagset.New("NIR")}
	b := &fakeReg{name: "b", tags: tagset.New("NIR")}

	_, err := MostSpecific([]*fakeReg{a, b}, tagset.New("NIR"))
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
}

func TestTieBelowMaximumIsFine(t *testing.T) {
	a := &fakeReg{name: "a", tags: tagset.New("NIR")}
	b := &fakeReg{name: "b", tags: tagset.New("FLAT")}
	c := &fakeReg{name: "c", tags: tagset.New("NIR", "FLAT")}

	got, err := MostSpecific([]*fakeReg{a, b, c}, tagset.New("NIR", "FLAT"))
	require.NoError(t, err)
	assert.Equal(t, "c", got.name)
}

func TestEmptyRequirementMatchesAnything(t *testing.T) {
	generic := &fakeReg{name: "generic", tags: tagset.New()}

	got, err := MostSpecific([]*fakeReg{generic}, tagset.New("WHATEVER"))
	require.NoError(t, err)
	assert.Equal(t, "generic", got.name)
}
