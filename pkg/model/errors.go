package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidProject matches every *InvalidProjectError via errors.Is.
var ErrInvalidProject = errors.New("invalid project record")

// InvalidProjectError describes a project record missing required fields.
// Index is the record's position in its batch, or -1 when unknown.
type InvalidProjectError struct {
	Index   int
	ID      string
	Missing []string
	// Cause is set when the record could not be decoded at all.
	Cause error
}

func (e *InvalidProjectError) Error() string {
	var b strings.Builder
	b.WriteString("invalid project record")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " #%d", e.Index)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " (id %s)", e.ID)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *InvalidProjectError) Unwrap() error {
	return e.Cause
}

func (e *InvalidProjectError) Is(target error) bool {
	return target == ErrInvalidProject
}
