// Package match implements the tag matcher: subset-based candidate matching
// with deterministic specificity ranking.
//
// A candidate applies to a dataset when the candidate's required tag set is a
// subset of the dataset's tags. Specificity is the size of the requirement;
// the strictly most specific applicable candidate wins. Ties between distinct
// requirements are an error, never an arbitrary pick, so resolution can never
// depend on registration order.
package match

import (
	"fmt"
	"strings"

	"github.com/avolkov/starflow/internal/tagset"
)

// Candidate is anything that can be ranked by a required tag set.
type Candidate interface {
	RequiredTags() tagset.Set
}

// NoMatchError reports that no candidate's requirement was a subset of the
// dataset's tags.
type NoMatchError struct {
	Tags tagset.Set
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no registration applies to tags %s", e.Tags)
}

// AmbiguousError reports two or more distinct requirements sharing the
// maximum specificity for the same tags.
type AmbiguousError struct {
	Tags         tagset.Set
	Requirements []tagset.Set
}

func (e *AmbiguousError) Error() string {
	reqs := make([]string, len(e.Requirements))
	for i, r := range e.Requirements {
		reqs[i] = r.String()
	}
	return fmt.Sprintf("ambiguous match for tags %s: requirements %s are equally specific",
		e.Tags, strings.Join(reqs, " and "))
}

// MostSpecific returns the single applicable candidate with the greatest
// specificity. It returns a *NoMatchError when nothing applies and an
// *AmbiguousError when two distinct requirements tie at the maximum.
// Candidates with identical requirements at the maximum also count as a tie:
// the registry cannot tell them apart, so guessing is not allowed.
func MostSpecific[T Candidate](candidates []T, tags tagset.Set) (T, error) {
	var (
		best    T
		bestLen = -1
		tied    []tagset.Set
	)

	for _, c := range candidates {
		req := c.RequiredTags()
		if !req.SubsetOf(tags) {
			continue
		}
		switch {
		case req.Len() > bestLen:
			best = c
			bestLen = req.Len()
			tied = nil
		case req.Len() == bestLen:
			tied = append(tied, req)
		}
	}

	var zero T
	if bestLen < 0 {
		return zero, &NoMatchError{Tags: tags}
	}
	if len(tied) > 0 {
		return zero, &AmbiguousError{
			Tags:         tags,
			Requirements: append([]tagset.Set{best.RequiredTags()}, tied...),
		}
	}
	return best, nil
}
