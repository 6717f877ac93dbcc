package ui

// View represents the current active view
type View int

const (
	ViewBoard View = iota
	ViewLogin
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewBoard:
		return "Board"
	case ViewLogin:
		return "Login"
	default:
		return "Unknown"
	}
}

// ThemeChangedMsg indicates the theme was changed
type ThemeChangedMsg struct {
	ThemeName string
}

// loggedOutMsg is sent once the stored session is gone
type loggedOutMsg struct {
	err error
}
