package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dori/todoql/internal/api"
	"github.com/dori/todoql/internal/app"
	"github.com/dori/todoql/internal/db"
	"github.com/dori/todoql/internal/ui/theme"
	"github.com/dori/todoql/internal/ui/views"
)

// RootModel is the main application model that manages views
type RootModel struct {
	app    *app.App
	ctx    context.Context
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView View
	loginView   views.LoginView
	boardView   views.BoardView
	helpVisible bool

	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(ctx context.Context, application *app.App) RootModel {
	h := help.New()
	h.ShowAll = true

	m := RootModel{
		app:       application,
		ctx:       ctx,
		keys:      DefaultKeyMap(),
		help:      h,
		loginView: views.NewLoginView(ctx, loginFunc(application)),
		boardView: newBoard(ctx, application),
	}
	if !application.Session.LoggedIn() {
		m.currentView = ViewLogin
	}
	return m
}

func loginFunc(a *app.App) views.LoginFunc {
	return func(ctx context.Context, email, password string) (string, error) {
		if err := a.Session.Login(ctx, a.Client, email, password); err != nil {
			a.Log.Info("login failed", zap.Error(err))
			return "", err
		}
		return a.Session.Subject(), nil
	}
}

func newBoard(ctx context.Context, a *app.App) views.BoardView {
	return views.NewBoardView(ctx, a.Reconciler, views.BoardOptions{
		WeekStart: a.Config.WeekStartDay(),
		Restore:   a.RestoreSelection,
		Persist:   a.SaveSelection,
		Log:       a.Log,
	})
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}
	return m.boardView.Init()
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.IsInputMode()
	case ViewBoard:
		return m.boardView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header (1 line) and footer (up to 3 lines)
		contentHeight := m.height - 4
		m.loginView = m.loginView.SetSize(m.width, contentHeight)
		m.boardView = m.boardView.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.errorMsg = ""
		inputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// q is a character while typing
			if msg.String() == "ctrl+c" || !inputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			return m, m.cycleTheme()
		}

		if inputMode {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = !m.helpVisible
			return m, nil

		case key.Matches(msg, m.keys.Logout):
			return m, m.logout()
		}

		if m.helpVisible {
			m.helpVisible = false
			return m, nil
		}

	case views.ErrorMsg:
		if errors.Is(msg.Err, api.ErrUnauthenticated) && m.currentView == ViewBoard {
			m.errorMsg = "Session expired, please log in again"
			return m, m.logout()
		}
		m.errorMsg = msg.Err.Error()
		return m, nil

	case views.StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil

	case views.LoggedInMsg:
		next, cmd := m.loginView.Update(msg)
		m.loginView = next.(views.LoginView)
		if msg.Err != nil {
			return m, cmd
		}
		m.app.Log.Info("logged in", zap.String("subject", msg.Subject))
		m.currentView = ViewBoard
		m.statusMsg = "Logged in as " + msg.Subject
		m.boardView = newBoard(m.ctx, m.app).SetSize(m.width, m.height-4)
		return m, m.boardView.Init()

	case loggedOutMsg:
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
		}
		m.app.Store.ReplaceProjects(m.app.Store.Ticket(), nil)
		m.app.Store.ClearSelection()
		m.currentView = ViewLogin
		m.loginView = m.loginView.Reset()
		return m, m.loginView.Init()
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewLogin:
		var next tea.Model
		next, cmd = m.loginView.Update(msg)
		m.loginView = next.(views.LoginView)
	case ViewBoard:
		var next tea.Model
		next, cmd = m.boardView.Update(msg)
		m.boardView = next.(views.BoardView)
	}
	return m, cmd
}

func (m RootModel) logout() tea.Cmd {
	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		err := a.Session.Logout(ctx)
		if err != nil {
			a.Log.Warn("logout", zap.Error(err))
		}
		return loggedOutMsg{err: err}
	}
}

// cycleTheme switches to the next theme and remembers it
func (m RootModel) cycleTheme() tea.Cmd {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)

	ctx, a := m.ctx, m.app
	return func() tea.Msg {
		if err := a.DB.SetSetting(ctx, db.SettingTheme, next.Name); err != nil {
			a.Log.Warn("save theme", zap.Error(err))
		}
		return ThemeChangedMsg{ThemeName: next.Name}
	}
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := m.height - 4
	var content string
	switch {
	case m.helpVisible:
		content = m.renderHelp()
	case m.currentView == ViewLogin:
		content = m.loginView.View()
	default:
		content = m.boardView.View()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("todoql")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView.String()))

	right := fmt.Sprintf("theme: %s", t.Name)
	if who := m.app.Session.Subject(); who != "" {
		right = who + "  " + right
	}
	rightSide := viewStyle.Render(right)

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	gap := max(0, m.width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide))

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var lines []string
	if m.errorMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(m.errorMsg))
	} else if m.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg))
	}

	switch {
	case m.currentView == ViewLogin:
		lines = append(lines,
			key("tab", "next field")+sep+key("enter", "log in")+sep+key("ctrl+c", "quit"))

	case m.isInputMode():
		lines = append(lines, key("enter", "confirm")+sep+key("esc", "cancel"))

	default:
		lines = append(lines,
			key("a", "add task")+sep+
				key("A", "add project")+sep+
				key("space", "done")+sep+
				key("r", "rename")+sep+
				key("s", "due")+sep+
				key("d", "del"),
			key("tab", "pane")+sep+
				key("R", "refresh")+sep+
				key("ctrl+t", "theme")+sep+
				key("ctrl+l", "log out")+sep+
				key("?", "help"),
		)
	}

	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.Title.Render("Keys"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.Label.Render("Due dates: today, tomorrow, nextweek, a weekday, or 2006-01-02 15:04"))
	b.WriteString("\n")
	b.WriteString(styles.Label.Render("Quick add: Buy milk due:tomorrow"))
	return styles.Panel.Render(b.String())
}
