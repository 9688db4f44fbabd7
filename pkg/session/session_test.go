package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/engagements/pkg/filter"
	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() []model.Project {
	return []model.Project{
		{
			ID: "1", Name: "Acme", Program: "Alpha",
			ExpireDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Tasks:      []model.Task{{RoleID: "d", Role: "Dev", HoursScoped: 10}},
		},
		{
			ID: "2", Name: "Beta Co", Program: "Beta",
			ExpireDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Tasks:      []model.Task{{RoleID: "p", Role: "PM", HoursScoped: 5}},
		},
	}
}

func TestSessionRun(t *testing.T) {
	state := filter.NewState()
	var out bytes.Buffer
	s, unsubscribe, err := New(model.NewSnapshot(snapshot()), state, &out)
	require.NoError(t, err)
	defer unsubscribe()

	input := strings.Join([]string{
		"program Alpha",
		"program Alpha",
		"role PM",
		"count",
		"programs",
		"quit",
		"list",
	}, "\n")
	require.NoError(t, s.Run(context.Background(), strings.NewReader(input)))

	got := out.String()
	assert.Equal(t, 5, strings.Count(got, "projects showing"))
	assert.Contains(t, got, "Role: PM")
	assert.Contains(t, got, "Programs:\n   Alpha\n   Beta\n")
	assert.True(t, strings.HasSuffix(got, "Programs:\n   Alpha\n   Beta\n"))

	assert.Equal(t, filter.Criteria{Role: "PM"}, state.Criteria())
	assert.Equal(t, 1, state.FilteredCount())

	// The first render lists the soonest expiry first.
	assert.Less(t, strings.Index(got, "Beta Co"), strings.Index(got, "Acme"))
}

func TestSessionSharesStateWithOtherSubscribers(t *testing.T) {
	state := filter.NewState()
	var counts []int
	state.Subscribe(func(c filter.Criteria) {
		v, err := filter.Apply(snapshot(), c)
		require.NoError(t, err)
		counts = append(counts, v.FilteredCount)
	})

	var out bytes.Buffer
	s, unsubscribe, err := New(model.NewSnapshot(snapshot()), state, &out)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, s.Run(context.Background(), strings.NewReader("search acme\nclear\n")))
	assert.Equal(t, []int{1, 2}, counts)
	assert.Equal(t, 2, state.FilteredCount())
}

func TestSessionRejectsMalformedSnapshot(t *testing.T) {
	projects := snapshot()
	projects[0].Name = ""

	_, _, err := New(model.NewSnapshot(projects), filter.NewState(), &bytes.Buffer{})
	assert.ErrorIs(t, err, model.ErrInvalidProject)
}

func TestSessionStopsOnCancel(t *testing.T) {
	s, unsubscribe, err := New(model.NewSnapshot(snapshot()), filter.NewState(), &bytes.Buffer{})
	require.NoError(t, err)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, strings.NewReader("list\n")), context.Canceled)
}

func TestSessionStopsOnCancelWhileWaitingForInput(t *testing.T) {
	s, unsubscribe, err := New(model.NewSnapshot(snapshot()), filter.NewState(), &bytes.Buffer{})
	require.NoError(t, err)
	defer unsubscribe()

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, pr) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessionReturnsAtEOF(t *testing.T) {
	s, unsubscribe, err := New(model.NewSnapshot(snapshot()), filter.NewState(), &bytes.Buffer{})
	require.NoError(t, err)
	defer unsubscribe()

	assert.NoError(t, s.Run(context.Background(), strings.NewReader("role Dev\n")))
}

func TestSessionCountUsesSnapshotTotal(t *testing.T) {
	state := filter.NewState()
	var out bytes.Buffer
	snap := model.Snapshot{Projects: snapshot(), Total: 5}
	s, unsubscribe, err := New(snap, state, &out)
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, s.Run(context.Background(), strings.NewReader("role PM\ncount\n")))
	assert.True(t, strings.HasSuffix(out.String(), "1 of 5 projects showing\n"))
}
