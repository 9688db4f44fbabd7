package source

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/harrisonrobin/engagements/pkg/config"
	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Client fetches projects from a GraphQL endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	policy   string
}

// NewClient creates a client for endpoint. httpClient carries the
// authentication, see auth.NewHTTPClient.
func NewClient(httpClient *http.Client, endpoint, policy string) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("no projects endpoint configured")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if policy == "" {
		policy = config.InvalidReject
	}
	return &Client{http: httpClient, endpoint: endpoint, policy: policy}, nil
}

// FetchProjects runs the projects query. A response without a collection
// yields ErrNoProjects; an empty collection is a snapshot with a non-nil
// empty Projects slice.
func (c *Client) FetchProjects(ctx context.Context) (model.Snapshot, error) {
	body, err := c.do(ctx, ProjectsQuery)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap, err := parseResponse(body, c.policy)
	if err != nil {
		return model.Snapshot{}, err
	}
	logrus.WithFields(logrus.Fields{
		"count":   len(snap.Projects),
		"skipped": snap.Total - len(snap.Projects),
	}).Debug("fetched projects")
	return snap, nil
}

func (c *Client) do(ctx context.Context, query string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build projects request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logrus.WithField("endpoint", c.endpoint).Debug("querying projects")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "projects request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read projects response")
	}
	// GraphQL servers report query errors with 4xx bodies too; let the
	// envelope speak when it parses.
	if resp.StatusCode/100 != 2 {
		var env response
		if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
			return body, nil
		}
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, errors.Errorf("projects endpoint returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}
