package filter

import (
	"slices"
	"strings"

	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matcher holds the per-call state of the predicate conjunction.
type matcher struct {
	criteria Criteria
	search   string
	lower    cases.Caser
}

func newMatcher(c Criteria) *matcher {
	m := &matcher{criteria: c, lower: cases.Lower(language.Und)}
	m.search = m.lower.String(c.Search)
	return m
}

func (m *matcher) match(p model.Project) bool {
	// Client matching is case-sensitive, search is not.
	if !strings.Contains(p.Name, m.criteria.Client) {
		return false
	}
	if m.search != "" && !strings.Contains(m.lower.String(p.Name), m.search) {
		return false
	}
	// A set program filter never matches an empty program.
	if m.criteria.Program != "" && !strings.Contains(p.Program, m.criteria.Program) {
		return false
	}
	return true
}

// Matches reports whether p satisfies the client, search and program
// filters of c. The role filter is applied separately by NarrowByRole.
func Matches(p model.Project, c Criteria) bool {
	return newMatcher(c).match(p)
}

// Compare orders projects by expiry date, soonest first, then by name in
// descending order.
func Compare(a, b model.Project) int {
	if c := a.ExpireDate.Compare(b.ExpireDate); c != 0 {
		return c
	}
	return strings.Compare(b.Name, a.Name)
}

// FilterAndSort returns the projects matching c ordered by Compare. The
// input slice is left untouched. The first malformed record aborts the call
// with a *model.InvalidProjectError.
func FilterAndSort(projects []model.Project, c Criteria) ([]model.Project, error) {
	for i, p := range projects {
		if err := p.Validate(); err != nil {
			var invalid *model.InvalidProjectError
			if errors.As(err, &invalid) {
				invalid.Index = i
			}
			return nil, err
		}
	}

	m := newMatcher(c)
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if m.match(p) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, Compare)
	return out, nil
}
