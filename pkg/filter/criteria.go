// Package filter narrows, orders and aggregates a fetched project snapshot.
package filter

// Criteria is one immutable snapshot of the active filters. The zero value
// filters nothing.
type Criteria struct {
	Client  string `json:"client,omitempty"`
	Search  string `json:"search,omitempty"`
	Program string `json:"program,omitempty"`
	Role    string `json:"role,omitempty"`
}

// IsZero reports whether no filter is active.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}
