package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/model"
	"github.com/dori/todoql/internal/store"
)

// MockRemote is a mock of the GraphQL client
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ListProjects(ctx context.Context) ([]api.ProjectRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.ProjectRecord), args.Error(1)
}

func (m *MockRemote) ListProjectTasks(ctx context.Context, projectID string) ([]api.TaskRecord, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.TaskRecord), args.Error(1)
}

func (m *MockRemote) CreateProject(ctx context.Context, in api.CreateProjectInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockRemote) CreateProjectTask(ctx context.Context, in api.CreateTaskInput) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *MockRemote) UpdateProject(ctx context.Context, in api.UpdateProjectInput) (api.ProjectUpdate, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(api.ProjectUpdate), args.Error(1)
}

func (m *MockRemote) UpdateProjectTask(ctx context.Context, in api.UpdateTaskInput) (api.TaskUpdate, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(api.TaskUpdate), args.Error(1)
}

func (m *MockRemote) DeleteProjectTask(ctx context.Context, taskID string) (bool, error) {
	args := m.Called(ctx, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRemote) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2025, time.May, 30, 9, 0, 0, 0, time.Local)

func str(s string) *string { return &s }

func newReconciler(t *testing.T, remote *MockRemote, tracker CompletionTracker) *Reconciler {
	t.Helper()
	return New(remote, store.New(), tracker,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(zaptest.NewLogger(t)),
	)
}

func seed(t *testing.T, r *Reconciler, projects ...model.Project) {
	t.Helper()
	r.store.ReplaceProjects(r.store.Ticket(), projects)
}

func TestGroceriesScenario(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, NewLocalTracker())

	remote.On("CreateProject", ctx, mock.MatchedBy(func(in api.CreateProjectInput) bool {
		return in.Name == "Groceries" && in.DateDue == "2099-12-31 00:00:00.000000 +0300"
	})).Return("7", nil).Once()
	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{
		{ID: "7", Name: "Groceries", Status: str("PENDING")},
	}, nil)

	p, err := r.CreateProject(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "7", p.ID)

	projects := r.store.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "Groceries", projects[0].Name)
	assert.Equal(t, "7", projects[0].ID)
	assert.Empty(t, projects[0].Tasks)

	remote.On("CreateProjectTask", ctx, mock.MatchedBy(func(in api.CreateTaskInput) bool {
		return in.Name == "Milk" && in.ProjectID == "7" && in.DateDue == "2025-06-01 10:00:00.000000 +0300"
	})).Return("42", nil).Once()

	task, err := r.CreateTask(ctx, "7", TaskInput{Name: "Milk", Due: "2025-06-01T10:00"})
	require.NoError(t, err)
	assert.Equal(t, "42", task.ID)

	stored, ok := r.store.Task("7", "42")
	require.True(t, ok)
	assert.Equal(t, "Milk", stored.Name)
	assert.False(t, stored.Completed)
	require.NotNil(t, stored.DueDate)
	assert.Equal(t, time.Date(2025, time.June, 1, 10, 0, 0, 0, time.Local), *stored.DueDate)

	notice, err := r.ToggleTask(ctx, "7", "42")
	require.NoError(t, err)
	assert.Empty(t, notice)

	stored, _ = r.store.Task("7", "42")
	assert.True(t, stored.Completed)

	remote.AssertNotCalled(t, "UpdateProjectTask", mock.Anything, mock.Anything)
	remote.AssertExpectations(t)
}

func TestCreateProjectInCallOrder(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)

	remote.On("CreateProject", ctx, mock.MatchedBy(func(in api.CreateProjectInput) bool { return in.Name == "A" })).Return("1", nil)
	remote.On("CreateProject", ctx, mock.MatchedBy(func(in api.CreateProjectInput) bool { return in.Name == "B" })).Return("2", nil)
	// The server list lags behind; the refresh fails and only gets logged
	remote.On("ListProjects", ctx).Return(nil, api.ErrUnavailable)

	_, err := r.CreateProject(ctx, "A")
	require.NoError(t, err)
	_, err = r.CreateProject(ctx, "B")
	require.NoError(t, err)

	projects := r.store.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, "1", projects[0].ID)
	assert.Equal(t, "2", projects[1].ID)
}

func TestCreateProjectDuplicateMakesNoCall(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	_, err := r.CreateProject(ctx, "Groceries")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)

	var w *Warning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, KindInput, w.Kind())

	remote.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
	assert.Equal(t, 1, r.store.Len())
}

func TestCreateProjectValidatesName(t *testing.T) {
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)

	_, err := r.CreateProject(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	long := make([]rune, model.MaxProjectNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = r.CreateProject(context.Background(), string(long))
	assert.ErrorIs(t, err, ErrInvalidName)

	remote.AssertNotCalled(t, "CreateProject", mock.Anything, mock.Anything)
}

func TestCreateProjectFailureLeavesStore(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)

	remote.On("CreateProject", ctx, mock.Anything).Return("", errors.New("boom"))

	_, err := r.CreateProject(ctx, "Groceries")
	require.Error(t, err)

	var w *Warning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, KindFailure, w.Kind())
	assert.Equal(t, 0, r.store.Len())
	assert.Empty(t, r.Pending())
}

func TestCreateProjectWithoutIDRefreshes(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)

	remote.On("CreateProject", ctx, mock.Anything).Return("", nil)
	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{{ID: "9", Name: "Groceries"}}, nil).Once()

	_, err := r.CreateProject(ctx, "Groceries")
	assert.ErrorIs(t, err, ErrMissingID)

	projects := r.store.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "9", projects[0].ID)
	remote.AssertExpectations(t)
}

func TestCreateTaskForUnknownProject(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{}, nil).Once()

	_, err := r.CreateTask(ctx, "404", TaskInput{Name: "Milk"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingID)

	remote.AssertNotCalled(t, "CreateProjectTask", mock.Anything, mock.Anything)
	remote.AssertExpectations(t)
}

func TestCreateTaskWithoutDateSubmitsNow(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	remote.On("CreateProjectTask", ctx, mock.MatchedBy(func(in api.CreateTaskInput) bool {
		return in.DateDue == model.FormatWireDate(fixedNow) && in.Description == DefaultTaskDescription
	})).Return("42", nil).Once()

	task, err := r.CreateTask(ctx, "7", TaskInput{Name: "Bread"})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)
	remote.AssertExpectations(t)
}

func TestCreateTaskRejectsDuplicateAndBadDate(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries", Tasks: []model.Task{{ID: "42", Name: "Milk"}}})

	_, err := r.CreateTask(ctx, "7", TaskInput{Name: "Milk"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = r.CreateTask(ctx, "7", TaskInput{Name: "Eggs", Due: "someday"})
	assert.ErrorIs(t, err, model.ErrInvalidDate)

	remote.AssertNotCalled(t, "CreateProjectTask", mock.Anything, mock.Anything)
}

func TestCreateTaskWithoutIDRefreshesTasks(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	remote.On("CreateProjectTask", ctx, mock.Anything).Return("", nil)
	remote.On("ListProjectTasks", ctx, "7").Return([]api.TaskRecord{{ID: "43", Name: "Eggs"}}, nil).Once()

	task, err := r.CreateTask(ctx, "7", TaskInput{Name: "Eggs"})
	require.NoError(t, err)
	assert.Equal(t, "43", task.ID)
	remote.AssertExpectations(t)
}

func TestCreateTaskWithoutIDNotFoundAfterReload(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	remote.On("CreateProjectTask", ctx, mock.Anything).Return("", nil)
	remote.On("ListProjectTasks", ctx, "7").Return([]api.TaskRecord{}, nil).Once()

	task, err := r.CreateTask(ctx, "7", TaskInput{Name: "Eggs"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Empty(t, task.ID)

	var warning *Warning
	require.True(t, errors.As(err, &warning))
	assert.Equal(t, KindMissingID, warning.Kind())
	remote.AssertExpectations(t)
}

func TestRefreshTasksDropsForeignRecords(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	mine := api.TaskRecord{ID: "1", Name: "Milk", DateDue: str("2025-06-01 10:00:00.000000 +0300")}
	mine.Project = &api.ProjectRef{ID: "7"}
	other := api.TaskRecord{ID: "2", Name: "Report"}
	other.Project = &api.ProjectRef{ID: "8"}

	remote.On("ListProjectTasks", ctx, "7").Return([]api.TaskRecord{mine, other}, nil)

	require.NoError(t, r.RefreshTasks(ctx, "7"))

	p, _ := r.store.Project("7")
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "Milk", p.Tasks[0].Name)
	require.NotNil(t, p.Tasks[0].DueDate)
}

func TestRefreshProjectsLoadsSelectedTasks(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})
	require.NoError(t, r.store.Select("7"))

	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{
		{ID: "7", Name: "Groceries", Status: str("COMPLETED")},
	}, nil)
	remote.On("ListProjectTasks", ctx, "7").Return([]api.TaskRecord{{ID: "42", Name: "Milk"}}, nil)

	require.NoError(t, r.RefreshProjects(ctx))

	p, ok := r.store.Selected()
	require.True(t, ok)
	assert.True(t, p.Completed)
	assert.Len(t, p.Tasks, 1)
	remote.AssertExpectations(t)
}

func TestRefreshAllLoadsEveryProject(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)

	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{
		{ID: "1", Name: "A"},
		{ID: "2", Name: "B"},
	}, nil)
	remote.On("ListProjectTasks", ctx, "1").Return([]api.TaskRecord{{ID: "10", Name: "a1"}}, nil)
	remote.On("ListProjectTasks", ctx, "2").Return(nil, api.ErrUnavailable)

	err := r.RefreshAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnavailable)

	p, _ := r.store.Project("1")
	assert.Len(t, p.Tasks, 1)
}

func TestRefreshAllKeepsGoingWhenSelectedProjectFails(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "1", Name: "A"}, model.Project{ID: "2", Name: "B"})
	require.NoError(t, r.store.Select("1"))

	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{
		{ID: "1", Name: "A"},
		{ID: "2", Name: "B"},
	}, nil).Once()
	remote.On("ListProjectTasks", ctx, "1").Return(nil, api.ErrUnavailable).Once()
	remote.On("ListProjectTasks", ctx, "2").Return([]api.TaskRecord{{ID: "20", Name: "b1"}}, nil).Once()

	err := r.RefreshAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnavailable)

	p, _ := r.store.Project("2")
	assert.Len(t, p.Tasks, 1)
	remote.AssertExpectations(t)
}

func TestDeleteUnknownProjectIsNoop(t *testing.T) {
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	assert.NoError(t, r.DeleteProject(context.Background(), "404"))
	assert.NoError(t, r.DeleteTask(context.Background(), "7", "404"))
	assert.Equal(t, 1, r.store.Len())
	remote.AssertNotCalled(t, "DeleteProject", mock.Anything, mock.Anything)
}

func TestDeleteWithoutIdentifierNudgesRefresh(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	remote.On("ListProjects", ctx).Return([]api.ProjectRecord{}, nil).Twice()

	assert.ErrorIs(t, r.DeleteProject(ctx, ""), ErrMissingID)
	assert.ErrorIs(t, r.DeleteTask(ctx, "7", ""), ErrMissingID)
	remote.AssertExpectations(t)
}

func TestDeleteSoftFailureKeepsEntity(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries", Tasks: []model.Task{{ID: "42", Name: "Milk"}}})

	remote.On("DeleteProjectTask", ctx, "42").Return(false, nil).Once()

	err := r.DeleteTask(ctx, "7", "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)

	var w *Warning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, KindRejected, w.Kind())

	_, ok := r.store.Task("7", "42")
	assert.True(t, ok)
}

func TestDeleteFailureKeepsEntity(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	remote.On("DeleteProject", ctx, "7").Return(false, api.ErrUnavailable).Once()

	err := r.DeleteProject(ctx, "7")
	assert.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, 1, r.store.Len())
}

func TestDeleteProjectClearsSelection(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"}, model.Project{ID: "8", Name: "Work"})
	require.NoError(t, r.store.Select("7"))

	remote.On("DeleteProject", ctx, "7").Return(true, nil).Once()

	require.NoError(t, r.DeleteProject(ctx, "7"))
	assert.Equal(t, 1, r.store.Len())
	assert.Equal(t, "", r.store.SelectedID())
}

func TestDeletedTaskStaysGoneAfterStaleRefresh(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries", Tasks: []model.Task{{ID: "42", Name: "Milk"}}})

	// The list query is answered with data read before the delete landed
	started := make(chan struct{})
	release := make(chan struct{})
	remote.On("ListProjectTasks", ctx, "7").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]api.TaskRecord{{ID: "42", Name: "Milk"}}, nil).Once()
	remote.On("DeleteProjectTask", ctx, "42").Return(true, nil).Once()

	done := make(chan error)
	go func() { done <- r.RefreshTasks(ctx, "7") }()

	// the refresh has taken its ticket and is blocked in the call
	<-started

	require.NoError(t, r.DeleteTask(ctx, "7", "42"))
	close(release)
	require.NoError(t, <-done)

	_, ok := r.store.Task("7", "42")
	assert.False(t, ok)
}

func TestSecondOperationOnSameEntityFailsFast(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries"})

	release := make(chan struct{})
	remote.On("DeleteProject", ctx, "7").
		Run(func(mock.Arguments) { <-release }).
		Return(true, nil).Once()

	done := make(chan error)
	go func() { done <- r.DeleteProject(ctx, "7") }()

	require.Eventually(t, func() bool { return len(r.Pending()) == 1 }, time.Second, time.Millisecond)
	op := r.Pending()[0]
	assert.Equal(t, "delete project", op.Kind)
	assert.NotEmpty(t, op.ID)

	err := r.DeleteProject(ctx, "7")
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, r.Pending())
	assert.Equal(t, 0, r.store.Len())
	remote.AssertNumberOfCalls(t, "DeleteProject", 1)
}

func TestRenameTaskUsesServerEcho(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries", Tasks: []model.Task{
		{ID: "42", Name: "Milk"},
		{ID: "43", Name: "Eggs"},
	}})

	assert.ErrorIs(t, r.RenameTask(ctx, "7", "42", "Eggs"), ErrDuplicateName)
	assert.ErrorIs(t, r.RenameTask(ctx, "7", "404", "Bread"), ErrNotFound)

	remote.On("UpdateProjectTask", ctx, mock.MatchedBy(func(in api.UpdateTaskInput) bool {
		return in.ID == "42" && in.Name != nil && *in.Name == "Oat milk" && in.DateDue == nil
	})).Return(api.TaskUpdate{Name: str("Oat Milk")}, nil).Once()

	require.NoError(t, r.RenameTask(ctx, "7", "42", "Oat milk"))
	task, _ := r.store.Task("7", "42")
	assert.Equal(t, "Oat Milk", task.Name)
	remote.AssertExpectations(t)
}

func TestSetTaskDue(t *testing.T) {
	ctx := context.Background()
	remote := new(MockRemote)
	r := newReconciler(t, remote, nil)
	seed(t, r, model.Project{ID: "7", Name: "Groceries", Tasks: []model.Task{{ID: "42", Name: "Milk"}}})

	assert.ErrorIs(t, r.SetTaskDue(ctx, "7", "42", ""), model.ErrInvalidDate)

	remote.On("UpdateProjectTask", ctx, mock.MatchedBy(func(in api.UpdateTaskInput) bool {
		return in.DateDue != nil && *in.DateDue == "2025-06-02 08:30:00.000000 +0300"
	})).Return(api.TaskUpdate{DateDue: str("2025-06-02 08:30:00.000000 +0300")}, nil).Once()

	require.NoError(t, r.SetTaskDue(ctx, "7", "42", "2025-06-02T08:30"))
	task, _ := r.store.Task("7", "42")
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2025, time.June, 2, 8, 30, 0, 0, time.Local), *task.DueDate)
}

func TestToggleUnknownTask(t *testing.T) {
	r := newReconciler(t, new(MockRemote), nil)
	_, err := r.ToggleTask(context.Background(), "7", "42")
	assert.ErrorIs(t, err, ErrNotFound)
}
