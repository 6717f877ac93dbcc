package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/model"
)

// Completion strategies selectable from configuration
const (
	CompletionLocal  = "local"
	CompletionServer = "server"
)

// Description markers written by the server strategy
const (
	completedMarker = "COMPLETED:"
	ongoingMarker   = "ONGOING"
)

// CompletionTracker decides how the completed flag is derived from server
// records and how a toggle is carried out. Exactly one strategy is active.
type CompletionTracker interface {
	ProjectCompleted(rec api.ProjectRecord) bool
	TaskCompleted(projectID string, rec api.TaskRecord) bool

	// Toggle* return the new completed state and an optional notice
	ToggleProject(ctx context.Context, p model.Project) (bool, string, error)
	ToggleTask(ctx context.Context, t model.Task) (bool, string, error)

	// Persists reports whether toggles reach the server
	Persists() bool
}

// NewCompletionTracker builds the strategy named by kind
func NewCompletionTracker(kind string, remote Remote, now func() time.Time) (CompletionTracker, error) {
	switch strings.ToLower(kind) {
	case "", CompletionLocal:
		return NewLocalTracker(), nil
	case CompletionServer:
		return NewServerTracker(remote, now), nil
	}
	return nil, fmt.Errorf("unknown completion strategy %q", kind)
}

// LocalTracker keeps completion on the client only. Overrides outlive
// refreshes but not the process.
type LocalTracker struct {
	mu        sync.Mutex
	overrides map[string]bool
}

// NewLocalTracker creates a tracker with no overrides
func NewLocalTracker() *LocalTracker {
	return &LocalTracker{overrides: make(map[string]bool)}
}

// ProjectCompleted prefers a local toggle over the server state
func (l *LocalTracker) ProjectCompleted(rec api.ProjectRecord) bool {
	if v, ok := l.override(projectOpKey(string(rec.ID))); ok {
		return v
	}
	return model.DeriveProjectCompleted(deref(rec.Status), model.ParseOptionalWireDate(rec.DateCompleted))
}

// TaskCompleted prefers a local toggle over dateCompleted
func (l *LocalTracker) TaskCompleted(projectID string, rec api.TaskRecord) bool {
	if v, ok := l.override(localTaskKey(projectID, string(rec.ID))); ok {
		return v
	}
	return model.ParseOptionalWireDate(rec.DateCompleted) != nil
}

// ToggleProject records the flipped state locally
func (l *LocalTracker) ToggleProject(_ context.Context, p model.Project) (bool, string, error) {
	l.set(projectOpKey(p.ID), !p.Completed)
	return !p.Completed, "", nil
}

// ToggleTask records the flipped state locally
func (l *LocalTracker) ToggleTask(_ context.Context, t model.Task) (bool, string, error) {
	l.set(localTaskKey(t.ProjectID, t.ID), !t.Completed)
	return !t.Completed, "", nil
}

// Persists is false: nothing is sent
func (l *LocalTracker) Persists() bool { return false }

func (l *LocalTracker) override(key string) (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.overrides[key]
	return v, ok
}

func (l *LocalTracker) set(key string, v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[key] = v
}

func localTaskKey(projectID, taskID string) string { return "task:" + projectID + "/" + taskID }

// ServerTracker stores completion in the description field, the only
// writable field the API offers for it.
type ServerTracker struct {
	remote Remote
	now    func() time.Time
}

// NewServerTracker creates a tracker writing through remote
func NewServerTracker(remote Remote, now func() time.Time) *ServerTracker {
	if now == nil {
		now = time.Now
	}
	return &ServerTracker{remote: remote, now: now}
}

// ProjectCompleted reads the description marker, falling back to status
func (s *ServerTracker) ProjectCompleted(rec api.ProjectRecord) bool {
	if v, ok := decodeCompletion(deref(rec.Description)); ok {
		return v
	}
	return model.DeriveProjectCompleted(deref(rec.Status), model.ParseOptionalWireDate(rec.DateCompleted))
}

// TaskCompleted reads the description marker, falling back to dateCompleted
func (s *ServerTracker) TaskCompleted(_ string, rec api.TaskRecord) bool {
	if v, ok := decodeCompletion(deref(rec.Description)); ok {
		return v
	}
	return model.ParseOptionalWireDate(rec.DateCompleted) != nil
}

// ToggleProject writes the flipped state into the project description
func (s *ServerTracker) ToggleProject(ctx context.Context, p model.Project) (bool, string, error) {
	completed := !p.Completed
	desc := s.encode(completed)
	if _, err := s.remote.UpdateProject(ctx, api.UpdateProjectInput{ProjectID: p.ID, Description: &desc}); err != nil {
		return p.Completed, "", err
	}
	return completed, "Saved " + p.Name + " as " + stateWord(completed) + ", refreshing from server", nil
}

// ToggleTask writes the flipped state into the task description
func (s *ServerTracker) ToggleTask(ctx context.Context, t model.Task) (bool, string, error) {
	completed := !t.Completed
	desc := s.encode(completed)
	if _, err := s.remote.UpdateProjectTask(ctx, api.UpdateTaskInput{ID: t.ID, Description: &desc}); err != nil {
		return t.Completed, "", err
	}
	return completed, "Saved " + t.Name + " as " + stateWord(completed) + ", refreshing from server", nil
}

// Persists is true: toggles are followed by a refresh
func (s *ServerTracker) Persists() bool { return true }

func (s *ServerTracker) encode(completed bool) string {
	if completed {
		return completedMarker + model.FormatWireDate(s.now())
	}
	return ongoingMarker
}

// decodeCompletion reads a marker written by ServerTracker. ok is false for
// ordinary descriptions.
func decodeCompletion(desc string) (completed, ok bool) {
	desc = strings.TrimSpace(desc)
	switch {
	case strings.HasPrefix(desc, completedMarker):
		return true, true
	case desc == ongoingMarker:
		return false, true
	}
	return false, false
}

func stateWord(completed bool) string {
	if completed {
		return "completed"
	}
	return "ongoing"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
