package store

import (
	"errors"
	"sync"

	"github.com/dori/todoql/internal/model"
)

var (
	// ErrMissingID is returned when an entity without a server identifier is inserted
	ErrMissingID = errors.New("entity has no server identifier")
	// ErrDuplicateName is returned when the name is already used in the list
	ErrDuplicateName = errors.New("name already exists")
	// ErrProjectNotFound is returned when the referenced project is not held
	ErrProjectNotFound = errors.New("project not found")
)

// Ticket marks the moment a query was issued. Responses are applied with the
// ticket of the query that produced them so deletions confirmed in between
// are not undone by stale data. Every ticket must end in a Replace call or in
// Release.
type Ticket uint64

// Store holds the UI snapshot of projects and their tasks between server
// round-trips. It never talks to the network.
type Store struct {
	mu       sync.Mutex
	projects []model.Project
	selected string

	seq         uint64
	tombstones  map[string]uint64   // entity key -> seq of the confirmed delete
	outstanding map[uint64]struct{} // tickets handed out and not yet settled

	// newest ticket applied to the project list and to each task slice
	listApplied uint64
	taskApplied map[string]uint64
}

// New creates an empty store
func New() *Store {
	return &Store{
		tombstones:  make(map[string]uint64),
		outstanding: make(map[uint64]struct{}),
		taskApplied: make(map[string]uint64),
	}
}

// Ticket returns a ticket for a query about to be issued
func (s *Store) Ticket() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.outstanding[s.seq] = struct{}{}
	return Ticket(s.seq)
}

// Release settles a ticket whose query produced nothing to apply
func (s *Store) Release(ticket Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settle(ticket)
}

// ReplaceProjects overwrites the project list with a fresh query result.
// Incoming projects with nil Tasks keep the tasks already loaded for the same
// identifier; a non-nil slice replaces them. A response older than the last
// one applied is dropped and false is returned.
func (s *Store) ReplaceProjects(ticket Ticket, list []model.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.settle(ticket)

	if uint64(ticket) < s.listApplied {
		return false
	}
	s.listApplied = uint64(ticket)

	loaded := make(map[string][]model.Task, len(s.projects))
	for _, p := range s.projects {
		loaded[p.ID] = p.Tasks
	}

	next := make([]model.Project, 0, len(list))
	for _, p := range list {
		if p.ID == "" || s.isTombstoned(projectKey(p.ID), ticket) {
			continue
		}
		p = p.Clone()
		if p.Tasks == nil {
			p.Tasks = loaded[p.ID]
		}
		if p.Tasks == nil {
			p.Tasks = []model.Task{}
		}
		next = append(next, p)
	}
	s.projects = next

	if s.selected != "" && s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	return true
}

// ReplaceTasksForProject overwrites one project's task slice. It returns false
// without touching anything when the project is no longer in the store, which
// happens when a task query resolves after the project was deleted, or when a
// newer response for the same project was already applied.
func (s *Store) ReplaceTasksForProject(ticket Ticket, projectID string, list []model.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.settle(ticket)

	i := s.indexOf(projectID)
	if i < 0 || uint64(ticket) < s.taskApplied[projectID] {
		return false
	}
	s.taskApplied[projectID] = uint64(ticket)

	tasks := make([]model.Task, 0, len(list))
	for _, t := range list {
		if t.ID == "" || s.isTombstoned(taskKey(projectID, t.ID), ticket) {
			continue
		}
		t.ProjectID = projectID
		tasks = append(tasks, t)
	}
	s.projects[i].Tasks = tasks
	return true
}

// AppendProject adds a project confirmed by the server at the end of the list
func (s *Store) AppendProject(p model.Project) error {
	if p.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if existing.Name == p.Name || existing.ID == p.ID {
			return ErrDuplicateName
		}
	}
	p = p.Clone()
	if p.Tasks == nil {
		p.Tasks = []model.Task{}
	}
	s.projects = append(s.projects, p)
	return nil
}

// AppendTask adds a task confirmed by the server to the end of a project
func (s *Store) AppendTask(projectID string, t model.Task) error {
	if t.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return ErrProjectNotFound
	}
	if s.projects[i].HasTaskName(t.Name) {
		return ErrDuplicateName
	}
	t.ProjectID = projectID
	s.projects[i].Tasks = append(s.projects[i].Tasks, t)
	return nil
}

// RemoveProject drops a project whose deletion was confirmed. The selection
// is reset if it pointed at the project.
func (s *Store) RemoveProject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.projects = append(s.projects[:i], s.projects[i+1:]...)
	s.tombstone(projectKey(id))
	delete(s.taskApplied, id)

	if s.selected == id {
		s.selected = ""
	}
	return true
}

// RemoveTask drops a task whose deletion was confirmed
func (s *Store) RemoveTask(projectID, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return false
	}
	tasks := s.projects[i].Tasks
	for j := range tasks {
		if tasks[j].ID == taskID {
			s.projects[i].Tasks = append(tasks[:j:j], tasks[j+1:]...)
			s.tombstone(taskKey(projectID, taskID))
			return true
		}
	}
	return false
}

// PatchProject applies fn to the project with the given ID
func (s *Store) PatchProject(id string, fn func(*model.Project)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	p := s.projects[i].Clone()
	fn(&p)
	p.ID = id
	s.projects[i] = p
	return true
}

// PatchTask applies fn to one task of one project
func (s *Store) PatchTask(projectID, taskID string, fn func(*model.Task)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return false
	}
	t, ok := s.projects[i].Task(taskID)
	if !ok {
		return false
	}
	patched := *t
	fn(&patched)
	patched.ID = taskID
	patched.ProjectID = projectID
	*t = patched
	return true
}

// Projects returns a deep copy of the project list
func (s *Store) Projects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// Project returns a copy of the project with the given ID
func (s *Store) Project(id string) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Project{}, false
	}
	return s.projects[i].Clone(), true
}

// ProjectAt returns a copy of the project at list position i
func (s *Store) ProjectAt(i int) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.projects) {
		return model.Project{}, false
	}
	return s.projects[i].Clone(), true
}

// Task returns a copy of one task
func (s *Store) Task(projectID, taskID string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return model.Task{}, false
	}
	t, ok := s.projects[i].Task(taskID)
	if !ok {
		return model.Task{}, false
	}
	return *t, true
}

// HasProjectName reports whether a project with this name is held locally
func (s *Store) HasProjectName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.projects {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HasTaskName reports whether the project already holds a task with this name
func (s *Store) HasTaskName(projectID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(projectID)
	if i < 0 {
		return false
	}
	return s.projects[i].HasTaskName(name)
}

// Len returns the number of projects
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects)
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Caller holds mu.
func (s *Store) tombstone(key string) {
	s.seq++
	s.tombstones[key] = s.seq
}

// isTombstoned reports whether key was deleted after ticket was issued.
// Caller holds mu.
func (s *Store) isTombstoned(key string, ticket Ticket) bool {
	seq, ok := s.tombstones[key]
	return ok && seq > uint64(ticket)
}

// settle retires ticket and forgets the tombstones no outstanding ticket
// predates. Caller holds mu.
func (s *Store) settle(ticket Ticket) {
	delete(s.outstanding, uint64(ticket))

	oldest := s.seq + 1
	for t := range s.outstanding {
		oldest = min(oldest, t)
	}
	for key, seq := range s.tombstones {
		if seq < oldest {
			delete(s.tombstones, key)
		}
	}
}

func projectKey(id string) string { return "p:" + id }

func taskKey(projectID, taskID string) string { return "t:" + projectID + "/" + taskID }
