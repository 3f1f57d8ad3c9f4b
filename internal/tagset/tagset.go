// Package tagset provides the immutable tag sets used to classify datasets
// and to rank the specificity of operation and recipe registrations.
package tagset

import (
	"sort"
	"strings"
)

// Set is an immutable collection of classification tags. All constructors
// copy their input; a Set never changes after creation.
type Set struct {
	tags map[string]struct{}
}

// New builds a Set from the given tags. Duplicates and empty strings are
// dropped.
func New(tags ...string) Set {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		m[t] = struct{}{}
	}
	return Set{tags: m}
}

// Len returns the number of tags in the set. Len is the specificity of a
// registration requirement: a larger requirement is more specific.
func (s Set) Len() int {
	return len(s.tags)
}

// Has reports whether the set contains the given tag.
func (s Set) Has(tag string) bool {
	_, ok := s.tags[tag]
	return ok
}

// SubsetOf reports whether every tag in s is present in other. The empty set
// is a subset of everything.
func (s Set) SubsetOf(other Set) bool {
	for t := range s.tags {
		if _, ok := other.tags[t]; !ok {
			return false
		}
	}
	return true
}

// Equal reports whether both sets contain exactly the same tags.
func (s Set) Equal(other Set) bool {
	return len(s.tags) == len(other.tags) && s.SubsetOf(other)
}

// Union returns a new Set containing the tags of both sets.
func (s Set) Union(other Set) Set {
	m := make(map[string]struct{}, len(s.tags)+len(other.tags))
	for t := range s.tags {
		m[t] = struct{}{}
	}
	for t := range other.tags {
		m[t] = struct{}{}
	}
	return Set{tags: m}
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Key returns a canonical string form of the set, suitable as a map key for
// caching resolutions per distinct tag set.
func (s Set) Key() string {
	return strings.Join(s.Sorted(), ",")
}

// String renders the set as {A, B, C} for log and error messages.
func (s Set) String() string {
	return "{" + strings.Join(s.Sorted(), ", ") + "}"
}
