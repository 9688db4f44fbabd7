package filter

import "github.com/harrisonrobin/engagements/pkg/model"

// View is everything derived from one (projects, criteria) snapshot.
type View struct {
	Criteria      Criteria        `json:"criteria"`
	Projects      []model.Project `json:"projects"`
	Total         int             `json:"total"`
	FilteredCount int             `json:"filteredCount"`
	Programs      []string        `json:"programs"`
	Roles         []string        `json:"roles"`
	Overview      *RoleOverview   `json:"roleOverview,omitempty"`
}

// Apply runs the full pipeline: filter and sort, then narrow by role. The
// option catalogs are derived from the unfiltered collection.
func Apply(projects []model.Project, c Criteria) (View, error) {
	return ApplySnapshot(model.NewSnapshot(projects), c)
}

// ApplySnapshot is Apply with View.Total taken from the snapshot, so records
// dropped at decode time still count toward the collection size.
func ApplySnapshot(snap model.Snapshot, c Criteria) (View, error) {
	projects := snap.Projects
	filtered, err := FilterAndSort(projects, c)
	if err != nil {
		return View{}, err
	}
	shown := NarrowByRole(filtered, c.Role)

	v := View{
		Criteria:      c,
		Projects:      shown,
		Total:         snap.Total,
		FilteredCount: len(shown),
		Programs:      DistinctPrograms(projects),
		Roles:         DistinctRoles(projects),
	}
	if c.Role != "" {
		overview := AggregateRole(shown, c.Role)
		v.Overview = &overview
	}
	return v, nil
}
