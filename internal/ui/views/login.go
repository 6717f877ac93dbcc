package views

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/todoql/internal/ui/theme"
)

// LoginFunc exchanges credentials for a session and returns who logged in
type LoginFunc func(ctx context.Context, email, password string) (string, error)

const (
	fieldEmail = iota
	fieldPassword
)

// LoginView asks for credentials until a login succeeds
type LoginView struct {
	ctx    context.Context
	login  LoginFunc
	width  int
	height int

	inputs  []textinput.Model
	focused int
	busy    bool
	failure string
}

// NewLoginView creates a login form
func NewLoginView(ctx context.Context, login LoginFunc) LoginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return LoginView{
		ctx:    ctx,
		login:  login,
		inputs: []textinput.Model{email, password},
	}
}

// Init starts the cursor blinking
func (v LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// IsInputMode is always true: every key belongs to the form
func (v LoginView) IsInputMode() bool { return true }

// SetSize updates the view dimensions
func (v LoginView) SetSize(width, height int) LoginView {
	v.width = width
	v.height = height
	for i := range v.inputs {
		v.inputs[i].Width = min(40, max(10, width-20))
	}
	return v
}

// Reset clears the form, keeping the email
func (v LoginView) Reset() LoginView {
	v.inputs[fieldPassword].SetValue("")
	v.busy = false
	v.failure = ""
	return v.focus(fieldEmail)
}

func (v LoginView) focus(i int) LoginView {
	v.focused = i
	for j := range v.inputs {
		if j == i {
			v.inputs[j].Focus()
		} else {
			v.inputs[j].Blur()
		}
	}
	return v
}

// Update handles messages for the login form
func (v LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoggedInMsg:
		v.busy = false
		if msg.Err != nil {
			v.failure = msg.Err.Error()
			v.inputs[fieldPassword].SetValue("")
			return v.focus(fieldPassword), nil
		}
		return v, nil

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		switch msg.String() {
		case "tab", "down":
			return v.focus((v.focused + 1) % len(v.inputs)), nil
		case "shift+tab", "up":
			return v.focus((v.focused + len(v.inputs) - 1) % len(v.inputs)), nil
		case "enter":
			if v.focused == fieldEmail {
				return v.focus(fieldPassword), nil
			}
			return v.submit()
		}
	}

	var cmd tea.Cmd
	v.inputs[v.focused], cmd = v.inputs[v.focused].Update(msg)
	return v, cmd
}

func (v LoginView) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(v.inputs[fieldEmail].Value())
	password := v.inputs[fieldPassword].Value()
	if email == "" || password == "" {
		v.failure = "email and password are required"
		return v, nil
	}

	v.busy = true
	v.failure = ""
	ctx, login := v.ctx, v.login
	return v, func() tea.Msg {
		if login == nil {
			return LoggedInMsg{Err: errors.New("login is not available")}
		}
		subject, err := login(ctx, email, password)
		return LoggedInMsg{Subject: subject, Err: err}
	}
}

// View renders the login form
func (v LoginView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	b.WriteString(styles.Title.Render("Log in"))
	b.WriteString("\n")
	for i, in := range v.inputs {
		style := styles.Input
		if i == v.focused {
			style = styles.InputFocused
		}
		b.WriteString(style.Render(in.View()))
		b.WriteString("\n")
	}

	switch {
	case v.busy:
		b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Render("Logging in..."))
	case v.failure != "":
		b.WriteString(lipgloss.NewStyle().Foreground(t.Error).Render(v.failure))
	}

	form := b.String()
	if v.width == 0 {
		return form
	}
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, form)
}
