package filter

import (
	"time"

	"github.com/harrisonrobin/engagements/pkg/model"
)

// RoleHours sums the scoped and logged hours of one role id.
type RoleHours struct {
	RoleID      string  `json:"roleID"`
	Role        string  `json:"role"`
	HoursScoped float64 `json:"hoursScoped"`
	HoursLogged float64 `json:"hoursLogged"`
}

// ProjectRoleHours is the selected role's share of a single project.
type ProjectRoleHours struct {
	ProjectID   string      `json:"projectID"`
	Name        string      `json:"name"`
	Program     string      `json:"program,omitempty"`
	ExpireDate  time.Time   `json:"expireDate"`
	Roles       []RoleHours `json:"roles"`
	HoursScoped float64     `json:"hoursScoped"`
	HoursLogged float64     `json:"hoursLogged"`
}

// RoleOverview aggregates one role across a narrowed project set.
type RoleOverview struct {
	Role        string             `json:"role"`
	Projects    []ProjectRoleHours `json:"projects"`
	Roles       []RoleHours        `json:"roles"`
	HoursScoped float64            `json:"hoursScoped"`
	HoursLogged float64            `json:"hoursLogged"`
}

// NarrowByRole keeps the projects with at least one task scoped for role.
// An empty role returns projects unchanged.
func NarrowByRole(projects []model.Project, role string) []model.Project {
	if role == "" {
		return projects
	}
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if p.HasRole(role) {
			out = append(out, p)
		}
	}
	return out
}

// AggregateRole narrows projects to role and totals its hours per role id,
// per project and across the whole set. Project order is preserved.
func AggregateRole(projects []model.Project, role string) RoleOverview {
	overview := RoleOverview{
		Role:     role,
		Projects: []ProjectRoleHours{},
	}
	if role == "" {
		overview.Roles = []RoleHours{}
		return overview
	}

	total := newRoleTally(role)
	for _, p := range NarrowByRole(projects, role) {
		tally := newRoleTally(role)
		tally.add(p)
		total.add(p)

		row := ProjectRoleHours{
			ProjectID:  p.ID,
			Name:       p.Name,
			Program:    p.Program,
			ExpireDate: p.ExpireDate,
			Roles:      tally.rows(),
		}
		row.HoursScoped, row.HoursLogged = tally.sums()
		overview.Projects = append(overview.Projects, row)
	}
	overview.Roles = total.rows()
	overview.HoursScoped, overview.HoursLogged = total.sums()
	return overview
}

// roleTally groups entries of a single role label by role id, keeping the
// first-seen id order.
type roleTally struct {
	role  string
	order []string
	byID  map[string]*RoleHours
}

func newRoleTally(role string) *roleTally {
	return &roleTally{role: role, byID: make(map[string]*RoleHours)}
}

func (t *roleTally) entry(roleID string) *RoleHours {
	rh, ok := t.byID[roleID]
	if !ok {
		rh = &RoleHours{RoleID: roleID, Role: t.role}
		t.byID[roleID] = rh
		t.order = append(t.order, roleID)
	}
	return rh
}

func (t *roleTally) add(p model.Project) {
	for _, task := range p.Tasks {
		if task.Role == t.role {
			t.entry(task.RoleID).HoursScoped += task.HoursScoped
		}
	}
	for _, h := range p.Hours {
		if h.Role == t.role {
			t.entry(h.RoleID).HoursLogged += h.HoursLogged
		}
	}
}

func (t *roleTally) rows() []RoleHours {
	out := make([]RoleHours, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.byID[id])
	}
	return out
}

func (t *roleTally) sums() (scoped, logged float64) {
	for _, id := range t.order {
		scoped += t.byID[id].HoursScoped
		logged += t.byID[id].HoursLogged
	}
	return scoped, logged
}
