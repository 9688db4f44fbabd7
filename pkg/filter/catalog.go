package filter

import (
	"slices"

	"github.com/harrisonrobin/engagements/pkg/model"
)

// DistinctPrograms returns the non-empty programs present in projects,
// deduplicated and sorted ascending.
func DistinctPrograms(projects []model.Project) []string {
	seen := make(map[string]struct{})
	for _, p := range projects {
		if p.Program != "" {
			seen[p.Program] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// DistinctRoles returns the non-empty task roles present in projects,
// deduplicated and sorted ascending.
func DistinctRoles(projects []model.Project) []string {
	seen := make(map[string]struct{})
	for _, p := range projects {
		for _, t := range p.Tasks {
			if t.Role != "" {
				seen[t.Role] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
