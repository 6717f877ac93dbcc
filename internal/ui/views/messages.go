package views

// Messages the views send up to the root model

// ErrorMsg reports a failure in the footer
type ErrorMsg struct {
	Err error
}

// StatusMsg reports a notice in the footer
type StatusMsg struct {
	Message string
}

// LoggedInMsg is sent once a login attempt finishes
type LoggedInMsg struct {
	Subject string
	Err     error
}

// refreshedMsg is sent when a reload from the server finishes
type refreshedMsg struct {
	err error
}

// actionDoneMsg is sent when a mutation finishes
type actionDoneMsg struct {
	notice string
	err    error
}
