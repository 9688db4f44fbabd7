package model

// Snapshot is one fetched project collection. Total counts every record the
// source returned, including records dropped as malformed.
type Snapshot struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

// NewSnapshot wraps projects that were all accepted.
func NewSnapshot(projects []Project) Snapshot {
	return Snapshot{Projects: projects, Total: len(projects)}
}
