package source

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoProjects is returned when the response carries no project
// collection at all, as opposed to an empty one.
var ErrNoProjects = errors.New("no projects found")

// QueryError carries the errors[] array of a GraphQL response.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	return "projects query failed: " + strings.Join(e.Messages, "; ")
}

type response struct {
	Data *struct {
		Projects *[]json.RawMessage `json:"projects"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ParseProjects reads either a bare JSON array of projects or a GraphQL
// response envelope. policy is config.InvalidReject or config.InvalidSkip.
func ParseProjects(r io.Reader, policy string) (model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "failed to read projects")
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return model.Snapshot{}, ErrNoProjects
	}
	if b[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(b, &records); err != nil {
			return model.Snapshot{}, errors.Wrap(err, "failed to decode projects json")
		}
		return decodeRecords(records, policy)
	}
	return parseResponse(b, policy)
}

// records returns the raw project records, ErrNoProjects or a *QueryError.
func (r *response) records() ([]json.RawMessage, error) {
	if len(r.Errors) > 0 {
		qe := &QueryError{}
		for _, e := range r.Errors {
			qe.Messages = append(qe.Messages, e.Message)
		}
		return nil, qe
	}
	if r.Data == nil || r.Data.Projects == nil {
		return nil, ErrNoProjects
	}
	return *r.Data.Projects, nil
}

func decodeResponse(b []byte) ([]json.RawMessage, error) {
	var resp response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode projects response")
	}
	return resp.records()
}

func parseResponse(b []byte, policy string) (model.Snapshot, error) {
	records, err := decodeResponse(b)
	if err != nil {
		return model.Snapshot{}, err
	}
	return decodeRecords(records, policy)
}

// decodeRecords decodes and validates each record. Under InvalidSkip a bad
// record is logged and dropped; otherwise the whole batch is rejected. Total
// is the raw record count; on success Projects is never nil.
func decodeRecords(records []json.RawMessage, policy string) (model.Snapshot, error) {
	projects := make([]model.Project, 0, len(records))
	for i, raw := range records {
		p, err := decodeRecord(i, raw)
		if err != nil {
			if policy == config.InvalidSkip {
				logrus.WithError(err).WithField("index", i).Warn("skipping project record")
				continue
			}
			return model.Snapshot{}, err
		}
		projects = append(projects, p)
	}
	return model.Snapshot{Projects: projects, Total: len(records)}, nil
}

func decodeRecord(i int, raw json.RawMessage) (model.Project, error) {
	var p model.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Project{}, &model.InvalidProjectError{Index: i, Cause: err}
	}
	if err := p.Validate(); err != nil {
		var invalid *model.InvalidProjectError
		if errors.As(err, &invalid) {
			invalid.Index = i
		}
		return model.Project{}, err
	}
	return p, nil
}
