// Package reconcile keeps the local store in step with the GraphQL server.
// Every mutation follows the same shape: guard locally, send, and only then
// touch the store with what the server confirmed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/model"
	"github.com/dori/todoql/internal/store"
)

// Default descriptions sent on create
const (
	DefaultProjectDescription = "Created from the terminal"
	DefaultTaskDescription    = "Task created from the terminal"
)

// Remote is the subset of the GraphQL client the reconciler uses
type Remote interface {
	ListProjects(ctx context.Context) ([]api.ProjectRecord, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]api.TaskRecord, error)
	CreateProject(ctx context.Context, in api.CreateProjectInput) (string, error)
	CreateProjectTask(ctx context.Context, in api.CreateTaskInput) (string, error)
	UpdateProject(ctx context.Context, in api.UpdateProjectInput) (api.ProjectUpdate, error)
	UpdateProjectTask(ctx context.Context, in api.UpdateTaskInput) (api.TaskUpdate, error)
	DeleteProjectTask(ctx context.Context, taskID string) (bool, error)
	DeleteProject(ctx context.Context, projectID string) (bool, error)
}

// TaskInput is what the user typed for a new task
type TaskInput struct {
	Name        string
	Description string
	Due         string // parsed with model.ParseDueInput, "" for no date
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// Reconciler applies server responses to the store
type Reconciler struct {
	remote  Remote
	store   *store.Store
	tracker CompletionTracker
	ops     *opTracker
	log     *zap.Logger
	now     func() time.Time
}

// New creates a reconciler. A nil tracker means local completion.
func New(remote Remote, st *store.Store, tracker CompletionTracker, opts ...Option) *Reconciler {
	r := &Reconciler{
		remote:  remote,
		store:   st,
		tracker: tracker,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracker == nil {
		r.tracker = NewLocalTracker()
	}
	r.ops = newOpTracker(r.now)
	r.log = r.log.Named("reconcile")
	return r
}

// Store returns the store this reconciler writes to
func (r *Reconciler) Store() *store.Store { return r.store }

// Pending returns the operations currently in flight, oldest first
func (r *Reconciler) Pending() []Op { return r.ops.pending() }

// RefreshProjects reloads the project list, then the tasks of the selected
// project if there is one.
func (r *Reconciler) RefreshProjects(ctx context.Context) error {
	if err := r.refreshProjectList(ctx); err != nil {
		return err
	}
	if sel := r.store.SelectedID(); sel != "" {
		return r.RefreshTasks(ctx, sel)
	}
	return nil
}

// RefreshAll reloads the project list and the tasks of every project. The
// agenda views need every task loaded. One project failing does not stop the
// others; their errors are joined.
func (r *Reconciler) RefreshAll(ctx context.Context) error {
	if err := r.refreshProjectList(ctx); err != nil {
		return err
	}
	var errs []error
	for _, p := range r.store.Projects() {
		if err := r.RefreshTasks(ctx, p.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) refreshProjectList(ctx context.Context) error {
	ticket := r.store.Ticket()
	recs, err := r.remote.ListProjects(ctx)
	if err != nil {
		r.store.Release(ticket)
		r.log.Warn("refresh projects failed", zap.Error(err))
		return warn("refresh projects", err)
	}

	projects := make([]model.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, r.projectFromRecord(rec))
	}
	if !r.store.ReplaceProjects(ticket, projects) {
		r.log.Debug("stale project list dropped")
		return nil
	}
	r.log.Debug("projects refreshed", zap.Int("count", len(projects)))
	return nil
}

// RefreshTasks reloads one project's tasks. Records that name a different
// project are dropped; nothing happens if the project left the store while
// the query was running.
func (r *Reconciler) RefreshTasks(ctx context.Context, projectID string) error {
	if projectID == "" {
		return warn("refresh tasks", ErrMissingID)
	}

	ticket := r.store.Ticket()
	recs, err := r.remote.ListProjectTasks(ctx, projectID)
	if err != nil {
		r.store.Release(ticket)
		r.log.Warn("refresh tasks failed", zap.String("project_id", projectID), zap.Error(err))
		return warn("refresh tasks", err)
	}

	tasks := make([]model.Task, 0, len(recs))
	for _, rec := range recs {
		if pid := rec.ProjectID(); pid != "" && pid != projectID {
			continue
		}
		tasks = append(tasks, r.taskFromRecord(projectID, rec))
	}

	if !r.store.ReplaceTasksForProject(ticket, projectID, tasks) {
		r.log.Debug("stale or orphaned tasks dropped", zap.String("project_id", projectID))
	}
	return nil
}

// CreateProject creates a project on the server and appends it locally once
// an identifier comes back.
func (r *Reconciler) CreateProject(ctx context.Context, name string) (model.Project, error) {
	const opName = "create project"

	name = strings.TrimSpace(name)
	if err := model.ValidateProjectName(name); err != nil {
		return model.Project{}, warn(opName, fmt.Errorf("%w: %v", ErrInvalidName, err))
	}
	if r.store.HasProjectName(name) {
		return model.Project{}, warn(opName, ErrDuplicateName)
	}

	op, err := r.ops.begin(newProjectOpKey(name), opName)
	if err != nil {
		return model.Project{}, warn(opName, err)
	}
	defer r.ops.end(op)
	log := r.log.With(zap.String("op", opName), zap.String("op_id", op.ID))

	id, err := r.remote.CreateProject(ctx, api.CreateProjectInput{
		Name:        name,
		Description: DefaultProjectDescription,
		DateDue:     model.FormatWireDate(model.ProjectDueSentinel),
	})
	if err != nil {
		log.Warn("create failed", zap.Error(err))
		return model.Project{}, warn(opName, err)
	}
	if id == "" {
		log.Warn("create returned no identifier")
		r.refreshQuietly(ctx, log)
		return model.Project{}, warn(opName, ErrMissingID)
	}

	p := model.Project{
		ID:          id,
		Name:        name,
		Status:      model.StatusPending,
		Description: DefaultProjectDescription,
		Tasks:       []model.Task{},
	}
	if err := r.store.AppendProject(p); err != nil && !errors.Is(err, ErrDuplicateName) {
		log.Warn("append failed", zap.String("project_id", id), zap.Error(err))
	}
	log.Info("project created", zap.String("project_id", id))

	// pick up derived fields the create response does not echo
	r.refreshQuietly(ctx, log)

	if fresh, ok := r.store.Project(id); ok {
		return fresh, nil
	}
	return p, nil
}

// CreateTask creates a task under projectID. A task without a due date is
// submitted with the current time since the server requires one.
func (r *Reconciler) CreateTask(ctx context.Context, projectID string, in TaskInput) (model.Task, error) {
	const opName = "create task"

	project, ok := r.store.Project(projectID)
	if !ok || project.ID == "" {
		r.log.Warn("create task for unknown project", zap.String("project_id", projectID))
		r.refreshQuietly(ctx, r.log)
		return model.Task{}, warn(opName, ErrMissingID)
	}

	name := strings.TrimSpace(in.Name)
	if err := model.ValidateTaskName(name); err != nil {
		return model.Task{}, warn(opName, fmt.Errorf("%w: %v", ErrInvalidName, err))
	}
	if project.HasTaskName(name) {
		return model.Task{}, warn(opName, ErrDuplicateName)
	}

	now := r.now()
	due, err := model.ParseDueInput(in.Due, now)
	if err != nil {
		return model.Task{}, warn(opName, err)
	}
	submit := now
	if due != nil {
		submit = *due
	}
	desc := in.Description
	if desc == "" {
		desc = DefaultTaskDescription
	}

	op, err := r.ops.begin(newTaskOpKey(projectID, name), opName)
	if err != nil {
		return model.Task{}, warn(opName, err)
	}
	defer r.ops.end(op)
	log := r.log.With(zap.String("op", opName), zap.String("op_id", op.ID), zap.String("project_id", projectID))

	id, err := r.remote.CreateProjectTask(ctx, api.CreateTaskInput{
		Name:        name,
		Description: desc,
		ProjectID:   projectID,
		DateDue:     model.FormatWireDate(submit),
	})
	if err != nil {
		log.Warn("create failed", zap.Error(err))
		return model.Task{}, warn(opName, err)
	}

	if id == "" {
		log.Info("create returned no identifier, reloading tasks")
		if err := r.RefreshTasks(ctx, projectID); err != nil {
			return model.Task{}, err
		}
		if p, ok := r.store.Project(projectID); ok {
			for _, t := range p.Tasks {
				if t.Name == name {
					return t, nil
				}
			}
		}
		log.Warn("created task not found after reload")
		return model.Task{}, warn(opName, ErrMissingID)
	}

	t := model.Task{
		ID:          id,
		ProjectID:   projectID,
		Name:        name,
		Description: desc,
		DueDate:     due,
	}
	if err := r.store.AppendTask(projectID, t); err != nil && !errors.Is(err, ErrDuplicateName) {
		log.Warn("append failed", zap.String("task_id", id), zap.Error(err))
	}
	log.Info("task created", zap.String("task_id", id))
	return t, nil
}

// RenameTask changes a task's name to what the server echoes back
func (r *Reconciler) RenameTask(ctx context.Context, projectID, taskID, name string) error {
	const opName = "rename task"

	task, err := r.lookupTask(opName, projectID, taskID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := model.ValidateTaskName(name); err != nil {
		return warn(opName, fmt.Errorf("%w: %v", ErrInvalidName, err))
	}
	if name != task.Name && r.store.HasTaskName(projectID, name) {
		return warn(opName, ErrDuplicateName)
	}

	upd, err := r.updateTask(ctx, opName, api.UpdateTaskInput{ID: taskID, Name: &name})
	if err != nil {
		return err
	}
	r.store.PatchTask(projectID, taskID, func(t *model.Task) {
		if upd.Name != nil {
			t.Name = *upd.Name
		} else {
			t.Name = name
		}
	})
	return nil
}

// SetTaskDue changes a task's due date. The server has no way to clear a
// due date, so empty input is refused.
func (r *Reconciler) SetTaskDue(ctx context.Context, projectID, taskID, input string) error {
	const opName = "set due date"

	if _, err := r.lookupTask(opName, projectID, taskID); err != nil {
		return err
	}
	due, err := model.ParseDueInput(input, r.now())
	if err != nil {
		return warn(opName, err)
	}
	if due == nil {
		return warn(opName, fmt.Errorf("%w: a due date is required", model.ErrInvalidDate))
	}

	wire := model.FormatWireDate(*due)
	upd, err := r.updateTask(ctx, opName, api.UpdateTaskInput{ID: taskID, DateDue: &wire})
	if err != nil {
		return err
	}
	r.store.PatchTask(projectID, taskID, func(t *model.Task) {
		if upd.DateDue != nil {
			if d, err := model.ParseWireDate(*upd.DateDue); err == nil {
				t.DueDate = &d
				return
			}
		}
		t.DueDate = due
	})
	return nil
}

// DeleteTask deletes a task and removes it locally once the server confirms
func (r *Reconciler) DeleteTask(ctx context.Context, projectID, taskID string) error {
	const opName = "delete task"

	if projectID == "" || taskID == "" {
		r.log.Warn("delete task without identifier", zap.String("project_id", projectID))
		r.refreshQuietly(ctx, r.log)
		return warn(opName, ErrMissingID)
	}
	if _, ok := r.store.Task(projectID, taskID); !ok {
		return nil
	}

	op, err := r.ops.begin(taskOpKey(taskID), opName)
	if err != nil {
		return warn(opName, err)
	}
	defer r.ops.end(op)
	log := r.log.With(zap.String("op", opName), zap.String("op_id", op.ID),
		zap.String("project_id", projectID), zap.String("task_id", taskID))

	ok, err := r.remote.DeleteProjectTask(ctx, taskID)
	if err != nil {
		log.Warn("delete failed", zap.Error(err))
		return warn(opName, err)
	}
	if !ok {
		log.Warn("delete not confirmed")
		return warn(opName, ErrRejected)
	}

	r.store.RemoveTask(projectID, taskID)
	log.Info("task deleted")
	return nil
}

// DeleteProject deletes a project and removes it locally once the server
// confirms. The selection is cleared if it pointed at the project.
func (r *Reconciler) DeleteProject(ctx context.Context, projectID string) error {
	const opName = "delete project"

	if projectID == "" {
		r.log.Warn("delete project without identifier")
		r.refreshQuietly(ctx, r.log)
		return warn(opName, ErrMissingID)
	}
	if _, ok := r.store.Project(projectID); !ok {
		return nil
	}

	op, err := r.ops.begin(projectOpKey(projectID), opName)
	if err != nil {
		return warn(opName, err)
	}
	defer r.ops.end(op)
	log := r.log.With(zap.String("op", opName), zap.String("op_id", op.ID), zap.String("project_id", projectID))

	ok, err := r.remote.DeleteProject(ctx, projectID)
	if err != nil {
		log.Warn("delete failed", zap.Error(err))
		return warn(opName, err)
	}
	if !ok {
		log.Warn("delete not confirmed")
		return warn(opName, ErrRejected)
	}

	r.store.RemoveProject(projectID)
	log.Info("project deleted")
	return nil
}

// ToggleProject flips a project's completed flag through the active
// completion strategy. The returned notice is empty for local toggles.
func (r *Reconciler) ToggleProject(ctx context.Context, projectID string) (string, error) {
	const opName = "toggle project"

	p, ok := r.store.Project(projectID)
	if !ok {
		return "", warn(opName, ErrNotFound)
	}

	op, err := r.ops.begin(projectOpKey(projectID), opName)
	if err != nil {
		return "", warn(opName, err)
	}
	completed, notice, err := r.tracker.ToggleProject(ctx, p)
	r.ops.end(op)
	if err != nil {
		r.log.Warn("toggle failed", zap.String("op_id", op.ID), zap.String("project_id", projectID), zap.Error(err))
		return "", warn(opName, err)
	}

	r.store.PatchProject(projectID, func(p *model.Project) { p.Completed = completed })
	if r.tracker.Persists() {
		r.refreshQuietly(ctx, r.log)
	}
	return notice, nil
}

// ToggleTask flips a task's completed flag through the active completion
// strategy.
func (r *Reconciler) ToggleTask(ctx context.Context, projectID, taskID string) (string, error) {
	const opName = "toggle task"

	t, ok := r.store.Task(projectID, taskID)
	if !ok {
		return "", warn(opName, ErrNotFound)
	}

	op, err := r.ops.begin(taskOpKey(taskID), opName)
	if err != nil {
		return "", warn(opName, err)
	}
	completed, notice, err := r.tracker.ToggleTask(ctx, t)
	r.ops.end(op)
	if err != nil {
		r.log.Warn("toggle failed", zap.String("op_id", op.ID), zap.String("task_id", taskID), zap.Error(err))
		return "", warn(opName, err)
	}

	r.store.PatchTask(projectID, taskID, func(t *model.Task) {
		t.Completed = completed
		if completed {
			now := r.now()
			t.DateCompleted = &now
		} else {
			t.DateCompleted = nil
		}
	})
	if r.tracker.Persists() {
		if err := r.RefreshTasks(ctx, projectID); err != nil {
			r.log.Warn("refresh after toggle failed", zap.Error(err))
		}
	}
	return notice, nil
}

func (r *Reconciler) lookupTask(opName, projectID, taskID string) (model.Task, error) {
	if projectID == "" || taskID == "" {
		return model.Task{}, warn(opName, ErrMissingID)
	}
	t, ok := r.store.Task(projectID, taskID)
	if !ok {
		return model.Task{}, warn(opName, ErrNotFound)
	}
	return t, nil
}

func (r *Reconciler) updateTask(ctx context.Context, opName string, in api.UpdateTaskInput) (api.TaskUpdate, error) {
	op, err := r.ops.begin(taskOpKey(in.ID), opName)
	if err != nil {
		return api.TaskUpdate{}, warn(opName, err)
	}
	defer r.ops.end(op)

	upd, err := r.remote.UpdateProjectTask(ctx, in)
	if err != nil {
		r.log.Warn("update failed", zap.String("op_id", op.ID), zap.String("task_id", in.ID), zap.Error(err))
		return api.TaskUpdate{}, warn(opName, err)
	}
	return upd, nil
}

// refreshQuietly reloads the project list; failures are only logged
func (r *Reconciler) refreshQuietly(ctx context.Context, log *zap.Logger) {
	if err := r.RefreshProjects(ctx); err != nil {
		log.Warn("background refresh failed", zap.Error(err))
	}
}

func (r *Reconciler) projectFromRecord(rec api.ProjectRecord) model.Project {
	return model.Project{
		ID:            string(rec.ID),
		Name:          rec.Name,
		Status:        deref(rec.Status),
		Description:   deref(rec.Description),
		DateCompleted: model.ParseOptionalWireDate(rec.DateCompleted),
		Completed:     r.tracker.ProjectCompleted(rec),
	}
}

func (r *Reconciler) taskFromRecord(projectID string, rec api.TaskRecord) model.Task {
	return model.Task{
		ID:            string(rec.ID),
		ProjectID:     projectID,
		Name:          rec.Name,
		Description:   deref(rec.Description),
		DueDate:       model.ParseOptionalWireDate(rec.DateDue),
		DateCompleted: model.ParseOptionalWireDate(rec.DateCompleted),
		Completed:     r.tracker.TaskCompleted(projectID, rec),
	}
}
