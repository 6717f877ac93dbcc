package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dori/todoql/internal/agenda"
	"github.com/dori/todoql/internal/model"
	"github.com/dori/todoql/internal/reconcile"
	"github.com/dori/todoql/internal/store"
	"github.com/dori/todoql/internal/ui/theme"
)

// BoardMode represents the current input mode of the board
type BoardMode int

const (
	BoardModeNormal BoardMode = iota
	BoardModeAddProject
	BoardModeAddTask
	BoardModeRename
	BoardModeDue
	BoardModeConfirmDelete
)

type pane int

const (
	paneSidebar pane = iota
	paneTasks
)

// Sidebar rows that come before the projects
const (
	rowToday = iota
	rowThisWeek
	fixedRows
)

// BoardOptions carries what the board needs besides the reconciler
type BoardOptions struct {
	WeekStart time.Weekday
	Now       func() time.Time
	// Restore reselects the remembered project after the first load
	Restore func(ctx context.Context)
	// Persist remembers the selection; called whenever it changes
	Persist func(ctx context.Context)
	Log     *zap.Logger
}

// BoardView shows the project sidebar next to the tasks of the selected row
type BoardView struct {
	ctx   context.Context
	rec   *reconcile.Reconciler
	store *store.Store
	opts  BoardOptions

	width  int
	height int

	pane    pane
	row     int // sidebar cursor
	cursor  int // task cursor
	offset  int
	loading bool

	mode         BoardMode
	input        textinput.Model
	editProject  string
	editTask     string
	deleteTarget string
}

// NewBoardView creates the board
func NewBoardView(ctx context.Context, rec *reconcile.Reconciler, opts BoardOptions) BoardView {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	ti := textinput.New()
	ti.CharLimit = model.MaxTaskNameLen + 40

	return BoardView{
		ctx:     ctx,
		rec:     rec,
		store:   rec.Store(),
		opts:    opts,
		input:   ti,
		loading: true,
	}
}

// Init loads everything from the server
func (v BoardView) Init() tea.Cmd {
	return v.load(true)
}

// IsInputMode returns true when the board is capturing text input
func (v BoardView) IsInputMode() bool {
	return v.mode != BoardModeNormal
}

// SetSize updates the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	v.input.Width = max(10, width-v.sidebarWidth()-8)
	return v
}

// Row returns the sidebar cursor
func (v BoardView) Row() int { return v.row }

// Cursor returns the task cursor
func (v BoardView) Cursor() int { return v.cursor }

// Mode returns the current input mode
func (v BoardView) Mode() BoardMode { return v.mode }

func (v BoardView) load(initial bool) tea.Cmd {
	ctx, rec, restore := v.ctx, v.rec, v.opts.Restore
	return func() tea.Msg {
		err := rec.RefreshAll(ctx)
		if initial && restore != nil {
			restore(ctx)
		}
		return refreshedMsg{err: err}
	}
}

func (v BoardView) loadTasks(projectID string) tea.Cmd {
	ctx, rec := v.ctx, v.rec
	return func() tea.Msg {
		return refreshedMsg{err: rec.RefreshTasks(ctx, projectID)}
	}
}

func (v BoardView) action(run func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		notice, err := run(ctx)
		return actionDoneMsg{notice: notice, err: err}
	}
}

func (v BoardView) persist() tea.Cmd {
	if v.opts.Persist == nil {
		return nil
	}
	ctx, persist := v.ctx, v.opts.Persist
	return func() tea.Msg {
		persist(ctx)
		return nil
	}
}

// Update handles messages for the board
func (v BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshedMsg:
		wasLoading := v.loading
		v.loading = false
		if wasLoading {
			v.syncRow()
		}
		v.clamp()
		if msg.err != nil {
			return v, errorCmd(msg.err)
		}
		return v, nil

	case actionDoneMsg:
		v.syncRow()
		v.clamp()
		if msg.err != nil {
			return v, errorCmd(msg.err)
		}
		if msg.notice != "" {
			return v, statusCmd(msg.notice)
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case BoardModeNormal:
			return v.handleNormalMode(msg)
		case BoardModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		default:
			return v.handleInputMode(msg)
		}
	}
	return v, nil
}

func (v BoardView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		return v.move(-1)
	case "down", "j":
		return v.move(1)

	case "tab", "l", "right":
		if v.pane == paneSidebar {
			v.pane = paneTasks
		} else if msg.String() == "tab" {
			v.pane = paneSidebar
		}
		return v, nil
	case "shift+tab", "h", "left", "esc":
		v.pane = paneSidebar
		return v, nil

	case "enter":
		if v.pane == paneSidebar {
			v.pane = paneTasks
			return v, nil
		}
		return v.toggle()
	case " ", "x":
		return v.toggle()

	case "A":
		return v.startInput(BoardModeAddProject, "New project...", "")

	case "a":
		p, ok := v.selectedProject()
		if !ok {
			return v, statusCmd("Pick a project to add tasks to")
		}
		v.editProject = p.ID
		return v.startInput(BoardModeAddTask, "Task name, optionally due:tomorrow", "")

	case "r":
		t, ok := v.currentTask()
		if !ok || v.pane != paneTasks {
			return v, nil
		}
		v.editProject, v.editTask = t.ProjectID, t.ID
		return v.startInput(BoardModeRename, "Task name", t.Name)

	case "s":
		t, ok := v.currentTask()
		if !ok || v.pane != paneTasks {
			return v, nil
		}
		v.editProject, v.editTask = t.ProjectID, t.ID
		value := ""
		if t.DueDate != nil {
			value = t.DueDate.Format("2006-01-02 15:04")
		}
		return v.startInput(BoardModeDue, "today, tomorrow, friday or 2006-01-02 15:04", value)

	case "d":
		if v.pane == paneTasks {
			t, ok := v.currentTask()
			if !ok {
				return v, nil
			}
			v.editProject, v.editTask = t.ProjectID, t.ID
			v.deleteTarget = fmt.Sprintf("task %q", t.Name)
		} else {
			p, ok := v.selectedProject()
			if !ok {
				return v, nil
			}
			v.editProject, v.editTask = p.ID, ""
			v.deleteTarget = fmt.Sprintf("project %q and its tasks", p.Name)
		}
		v.mode = BoardModeConfirmDelete
		return v, nil

	case "R", "ctrl+r":
		v.loading = true
		return v, tea.Batch(statusCmd("Refreshing..."), v.load(false))
	}
	return v, nil
}

func (v BoardView) move(delta int) (tea.Model, tea.Cmd) {
	if v.pane == paneTasks {
		v.cursor += delta
		v.clamp()
		return v, nil
	}

	prev := v.row
	v.row += delta
	v.clamp()
	if v.row == prev {
		return v, nil
	}
	v.cursor, v.offset = 0, 0

	if p, ok := v.selectedProject(); ok {
		if err := v.store.Select(p.ID); err != nil {
			v.opts.Log.Debug("select project", zap.String("project_id", p.ID), zap.Error(err))
			return v, nil
		}
		return v, tea.Batch(v.loadTasks(p.ID), v.persist())
	}
	v.store.ClearSelection()
	return v, v.persist()
}

func (v BoardView) toggle() (tea.Model, tea.Cmd) {
	rec := v.rec
	if v.pane == paneSidebar {
		p, ok := v.selectedProject()
		if !ok {
			return v, nil
		}
		return v, v.action(func(ctx context.Context) (string, error) {
			return rec.ToggleProject(ctx, p.ID)
		})
	}

	t, ok := v.currentTask()
	if !ok {
		return v, nil
	}
	return v, v.action(func(ctx context.Context) (string, error) {
		return rec.ToggleTask(ctx, t.ProjectID, t.ID)
	})
}

func (v BoardView) startInput(mode BoardMode, placeholder, value string) (tea.Model, tea.Cmd) {
	v.mode = mode
	v.input.Placeholder = placeholder
	v.input.SetValue(value)
	v.input.CursorEnd()
	cmd := v.input.Focus()
	return v, cmd
}

func (v BoardView) endInput() BoardView {
	v.mode = BoardModeNormal
	v.input.Blur()
	v.input.SetValue("")
	return v
}

func (v BoardView) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return v.endInput(), nil
	case "enter":
		value := strings.TrimSpace(v.input.Value())
		mode, projectID, taskID := v.mode, v.editProject, v.editTask
		v = v.endInput()
		if value == "" && mode != BoardModeDue {
			return v, nil
		}
		return v, v.submit(mode, projectID, taskID, value)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v BoardView) submit(mode BoardMode, projectID, taskID, value string) tea.Cmd {
	rec, st := v.rec, v.store
	switch mode {
	case BoardModeAddProject:
		return v.action(func(ctx context.Context) (string, error) {
			p, err := rec.CreateProject(ctx, value)
			if err != nil {
				return "", err
			}
			_ = st.Select(p.ID)
			return fmt.Sprintf("Created project %q", p.Name), nil
		})

	case BoardModeAddTask:
		q := model.ParseQuickAdd(value)
		return v.action(func(ctx context.Context) (string, error) {
			t, err := rec.CreateTask(ctx, projectID, reconcile.TaskInput{Name: q.Name, Due: q.Due})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %q", t.Name), nil
		})

	case BoardModeRename:
		return v.action(func(ctx context.Context) (string, error) {
			return "", rec.RenameTask(ctx, projectID, taskID, value)
		})

	case BoardModeDue:
		return v.action(func(ctx context.Context) (string, error) {
			if err := rec.SetTaskDue(ctx, projectID, taskID, value); err != nil {
				return "", err
			}
			return "Due date updated", nil
		})
	}
	return nil
}

func (v BoardView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	projectID, taskID := v.editProject, v.editTask
	v.mode = BoardModeNormal
	v.deleteTarget = ""
	if msg.String() != "y" && msg.String() != "Y" {
		return v, nil
	}

	rec := v.rec
	if taskID == "" {
		return v, v.action(func(ctx context.Context) (string, error) {
			if err := rec.DeleteProject(ctx, projectID); err != nil {
				return "", err
			}
			return "Project deleted", nil
		})
	}
	return v, v.action(func(ctx context.Context) (string, error) {
		if err := rec.DeleteTask(ctx, projectID, taskID); err != nil {
			return "", err
		}
		return "Task deleted", nil
	})
}

// syncRow moves the sidebar cursor onto the selected project
func (v *BoardView) syncRow() {
	sel := v.store.SelectedID()
	if sel == "" {
		return
	}
	for i, p := range v.store.Projects() {
		if p.ID == sel {
			v.row = fixedRows + i
			return
		}
	}
}

func (v *BoardView) clamp() {
	rows := fixedRows + v.store.Len()
	v.row = max(0, min(v.row, rows-1))

	n := len(v.tasks())
	v.cursor = max(0, min(v.cursor, n-1))

	visible := v.visibleTaskCount()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
	v.offset = max(0, min(v.offset, max(0, n-visible)))
}

func (v BoardView) visibleTaskCount() int {
	// border, title, blank line
	return max(1, v.height-5)
}

func (v BoardView) selectedProject() (model.Project, bool) {
	if v.row < fixedRows {
		return model.Project{}, false
	}
	return v.store.ProjectAt(v.row - fixedRows)
}

// currentRow returns the project behind the sidebar cursor; Today and This
// Week are built on the fly from every loaded task.
func (v BoardView) currentRow() model.Project {
	now := v.opts.Now()
	switch v.row {
	case rowToday:
		return agenda.Today(v.store.Projects(), now)
	case rowThisWeek:
		return agenda.ThisWeek(v.store.Projects(), now, v.opts.WeekStart)
	}
	p, _ := v.selectedProject()
	return p
}

func (v BoardView) tasks() []model.Task {
	return v.currentRow().Tasks
}

func (v BoardView) currentTask() (model.Task, bool) {
	tasks := v.tasks()
	if v.cursor < 0 || v.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[v.cursor], true
}

func (v BoardView) sidebarWidth() int {
	return max(18, min(32, v.width/3))
}

// View renders the board
func (v BoardView) View() string {
	styles := theme.Current.Styles

	sideStyle, taskStyle := styles.PanelFocused, styles.Panel
	if v.pane == paneTasks {
		sideStyle, taskStyle = styles.Panel, styles.PanelFocused
	}

	innerHeight := max(1, v.height-2)
	sideWidth := v.sidebarWidth()
	taskWidth := max(20, v.width-sideWidth-4)

	sidebar := sideStyle.
		Width(sideWidth).
		Height(innerHeight).
		Render(v.renderSidebar(sideWidth - 2))
	tasks := taskStyle.
		Width(taskWidth).
		Height(innerHeight).
		Render(v.renderTasks(taskWidth - 2))

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, tasks)
}

func (v BoardView) renderSidebar(width int) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	now := v.opts.Now()
	projects := v.store.Projects()

	var lines []string
	lines = append(lines, styles.PanelTitle.Render("Projects"))

	row := func(i int, label string, style lipgloss.Style) string {
		label = truncate(label, width-2)
		if i == v.row {
			if v.pane == paneSidebar {
				return styles.TaskSelected.Width(width).Render(label)
			}
			return style.Bold(true).Padding(0, 1).Render(label)
		}
		return style.Padding(0, 1).Render(label)
	}

	plain := lipgloss.NewStyle().Foreground(t.Foreground)
	today := agenda.Today(projects, now)
	week := agenda.ThisWeek(projects, now, v.opts.WeekStart)
	lines = append(lines,
		row(rowToday, fmt.Sprintf("%s (%d)", agenda.TodayName, len(today.Tasks)), plain.Foreground(t.Secondary)),
		row(rowThisWeek, fmt.Sprintf("%s (%d)", agenda.ThisWeekName, len(week.Tasks)), plain.Foreground(t.Secondary)),
		"",
	)

	if len(projects) == 0 && v.loading {
		lines = append(lines, styles.Label.Render(" Loading..."))
	}
	for i, p := range projects {
		mark := "○"
		if p.Completed {
			mark = "●"
		}
		label := fmt.Sprintf("%s %s", mark, p.Name)
		if len(p.Tasks) > 0 {
			label += fmt.Sprintf(" %d/%d", p.CompletedCount(), len(p.Tasks))
		}
		lines = append(lines, row(fixedRows+i, label, plain.Foreground(t.StatusColor(p.Status))))
	}

	return strings.Join(lines, "\n")
}

func (v BoardView) renderTasks(width int) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	now := v.opts.Now()
	current := v.currentRow()

	var b strings.Builder

	title := current.Name
	if title == "" {
		title = "No project"
	}
	if n := len(v.rec.Pending()); n > 0 {
		title += styles.Label.Render(fmt.Sprintf("  (%d pending)", n))
	}
	b.WriteString(styles.PanelTitle.Render(title))
	if current.Description != "" && !current.Virtual {
		b.WriteString("  " + styles.Subtitle.Render(truncate(current.Description, width/2)))
	}
	b.WriteString("\n")

	switch v.mode {
	case BoardModeAddProject, BoardModeAddTask, BoardModeRename, BoardModeDue:
		b.WriteString(styles.InputFocused.Render(v.input.View()))
		b.WriteString("\n")
	case BoardModeConfirmDelete:
		confirm := lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
		b.WriteString(confirm.Render(fmt.Sprintf("Delete %s? (y/n)", v.deleteTarget)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(current.Tasks) == 0 {
		empty := "No tasks"
		if current.Virtual {
			empty = "Nothing due"
		}
		b.WriteString(styles.Label.Render(empty))
		return b.String()
	}

	end := min(len(current.Tasks), v.offset+v.visibleTaskCount())
	for i := v.offset; i < end; i++ {
		b.WriteString(v.renderTask(current.Tasks[i], i == v.cursor, width, now))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (v BoardView) renderTask(task model.Task, selected bool, width int, now time.Time) string {
	styles := theme.Current.Styles

	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	due := task.DueLabel(now)
	name := truncate(task.DisplayName(), max(4, width-len(check)-len(due)-6))
	gap := max(1, width-lipgloss.Width(check)-lipgloss.Width(name)-lipgloss.Width(due)-4)
	line := check + " " + name + strings.Repeat(" ", gap) + due

	switch {
	case selected && v.pane == paneTasks:
		return styles.TaskSelected.Render(line)
	case task.Completed:
		return styles.TaskDone.Render(line)
	case task.IsOverdue(now):
		return styles.TaskOverdue.Render(line)
	default:
		return styles.TaskNormal.Render(line)
	}
}

func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

func statusCmd(message string) tea.Cmd {
	return func() tea.Msg { return StatusMsg{Message: message} }
}
