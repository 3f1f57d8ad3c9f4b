package tagset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDropsDuplicatesAndEmpty(t *testing.T) {
	s := New("NIR", "FLAT", "NIR", "")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("NIR"))
	assert.True(t, s.Has("FLAT"))
	assert.False(t, s.Has(""))
}

func TestSubsetOf(t *testing.T) {
	testCases := []struct {
		name   string
		sub    Set
		super  Set
		expect bool
	}{
		{"empty is subset of empty", New(), New(), true},
		{"empty is subset of anything", New(), New("NIR"), true},
		{"strict subset", New("NIR"), New("NIR", "FLAT"), true},
		{"equal sets", New("NIR", "FLAT"), New("FLAT", "NIR"), true},
		{"disjoint", New("GMOS"), New("NIR", "FLAT"), false},
		{"superset is not subset", New("NIR", "FLAT"), New("NIR"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.sub.SubsetOf(tc.super))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, New("A", "B").Equal(New("B", "A")))
	assert.False(t, New("A").Equal(New("A", "B")))
	assert.False(t, New("A", "B").Equal(New("A")))
}

func TestUnionDoesNotMutate(t *testing.T) {
	a := New("A")
	b := New("B")
	u := a.Union(b)
	require.Equal(t, 2, u.Len())
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestKeyIsCanonical(t *testing.T) {
	assert.Equal(t, New("B", "A", "C").Key(), New("C", "A", "B").Key())
	assert.Equal(t, "A,B,C", New("B", "A", "C").Key())
	assert.Equal(t, "", New().Key())
}

func TestString(t *testing.T) {
	assert.Equal(t, "{FLAT, NIR}", New("NIR", "FLAT").String())
}
