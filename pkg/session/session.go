// Package session runs an interactive filter session over one fetched
// project snapshot.
package session

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/harrisonrobin/engagements/pkg/filter"
	"github.com/harrisonrobin/engagements/pkg/model"
	"github.com/harrisonrobin/engagements/pkg/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const help = `Commands:
  client <text>    toggle the client filter (case-sensitive)
  search <text>    toggle the search filter
  program <name>   toggle the program filter
  role <name>      toggle the role filter
  programs         list program options
  roles            list role options
  clear            clear every filter
  list             show the current view
  count            show how many projects are showing
  quit             leave the session
`

// Session re-renders the view whenever the shared filter state changes.
type Session struct {
	snap  model.Snapshot
	state *filter.State
	out   *render.Renderer
}

// New validates the snapshot once and subscribes to state. The returned
// func detaches the session from state.
func New(snap model.Snapshot, state *filter.State, w io.Writer) (*Session, func(), error) {
	if _, err := filter.ApplySnapshot(snap, filter.Criteria{}); err != nil {
		return nil, nil, errors.Wrap(err, "cannot start session")
	}
	s := &Session{snap: snap, state: state, out: render.New(w)}
	unsubscribe := state.Subscribe(s.show)
	return s, unsubscribe, nil
}

// show renders the view for c. It only ever reads the snapshot it was
// given, never the live state.
func (s *Session) show(c filter.Criteria) {
	v, err := filter.ApplySnapshot(s.snap, c)
	if err != nil {
		logrus.WithError(err).Error("could not apply filters")
		return
	}
	s.state.SetFilteredCount(v.FilteredCount)
	s.out.View(v)
}

// Run reads one command per line from in until quit, EOF or ctx is done.
// Cancelling ctx returns at once even while waiting for input; the reader
// goroutine then exits on its next line or EOF.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.show(s.state.Criteria())

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if !s.exec(strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// exec runs one command and reports whether the session continues.
func (s *Session) exec(line string) bool {
	if line == "" {
		return true
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	c := s.state.Criteria()

	switch strings.ToLower(cmd) {
	case "client":
		s.state.SetClientFilter(arg)
	case "search":
		s.state.SetSearchFilter(arg)
	case "program":
		s.state.SetProgramFilter(arg)
	case "role":
		s.state.SetRoleFilter(arg)
	case "programs":
		s.out.Options("Programs", filter.DistinctPrograms(s.snap.Projects), c.Program)
	case "roles":
		s.out.Options("Roles", filter.DistinctRoles(s.snap.Projects), c.Role)
	case "clear":
		s.state.Reset()
	case "list":
		s.show(c)
	case "count":
		s.out.Count(s.state.FilteredCount(), s.snap.Total)
	case "help", "?":
		io.WriteString(s.out.Writer(), help)
	case "quit", "exit", "q":
		return false
	default:
		logrus.WithField("command", cmd).Warn("unknown command, type help")
	}
	return true
}
