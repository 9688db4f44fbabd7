package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Project is one client engagement as returned by the projects query.
type Project struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Program    string      `json:"program,omitempty"`
	ExpireDate time.Time   `json:"expireDate"`
	Tasks      []Task      `json:"tasks"`
	Hours      []HourEntry `json:"hours,omitempty"`
}

// Task is the scoped budget of one role on a project.
type Task struct {
	RoleID      string  `json:"roleID"`
	Role        string  `json:"role"`
	HoursScoped float64 `json:"hoursScoped"`
}

// HourEntry is time logged against a project by one role.
type HourEntry struct {
	RoleID      string  `json:"roleID"`
	Role        string  `json:"role"`
	HoursLogged float64 `json:"hoursLogged"`
}

// HasRole reports whether at least one task is scoped for role.
func (p Project) HasRole(role string) bool {
	for _, t := range p.Tasks {
		if t.Role == role {
			return true
		}
	}
	return false
}

// HoursScoped totals the scoped hours of every task.
func (p Project) HoursScoped() float64 {
	var sum float64
	for _, t := range p.Tasks {
		sum += t.HoursScoped
	}
	return sum
}

// HoursLogged totals every hour entry.
func (p Project) HoursLogged() float64 {
	var sum float64
	for _, h := range p.Hours {
		sum += h.HoursLogged
	}
	return sum
}

// Validate reports an *InvalidProjectError when a field the pipeline
// depends on is missing. An empty name counts as missing.
func (p Project) Validate() error {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.ExpireDate.IsZero() {
		missing = append(missing, "expireDate")
	}
	if p.Tasks == nil {
		missing = append(missing, "tasks")
	}
	if len(missing) > 0 {
		return &InvalidProjectError{Index: -1, ID: p.ID, Missing: missing}
	}
	return nil
}

// UnmarshalJSON accepts string or numeric ids and the expireDate formats
// emitted by the projects API: RFC 3339, plain dates and epoch milliseconds.
func (p *Project) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Name       string          `json:"name"`
		Program    *string         `json:"program"`
		ExpireDate json.RawMessage `json:"expireDate"`
		Tasks      []Task          `json:"tasks"`
		Hours      []HourEntry     `json:"hours"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	id, err := rawScalar(raw.ID)
	if err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}
	expires, err := ParseExpireDate(raw.ExpireDate)
	if err != nil {
		return err
	}

	*p = Project{
		ID:         id,
		Name:       raw.Name,
		ExpireDate: expires,
		Tasks:      raw.Tasks,
		Hours:      raw.Hours,
	}
	if raw.Program != nil {
		p.Program = *raw.Program
	}
	return nil
}

// ParseExpireDate decodes a JSON expireDate value: an RFC 3339 or
// YYYY-MM-DD string, or a number of epoch milliseconds. null, "" and a
// missing value all yield the zero time.
func ParseExpireDate(b json.RawMessage) (time.Time, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return time.Time{}, nil
	}

	// Only JSON numbers are epoch milliseconds; a quoted "20240601" is not.
	if b[0] != '"' {
		ms, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse expireDate %s", b)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode expireDate: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("failed to parse expireDate '%s'", s)
}

func rawScalar(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
