package model

import (
	"time"
)

// Task represents a todo item owned by exactly one project
type Task struct {
	ID            string     `json:"id" yaml:"id"`
	ProjectID     string     `json:"project_id" yaml:"project_id"`
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"` // nil means "no date"
	DateCompleted *time.Time `json:"date_completed,omitempty" yaml:"date_completed,omitempty"`
	Completed     bool       `json:"completed" yaml:"completed"`

	// Name of the owning project, only set on copies inside a virtual project
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// HasDueDate returns false for the "no date" sentinel
func (t *Task) HasDueDate() bool {
	return t.DueDate != nil
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return now.After(*t.DueDate)
}

// IsDueOn returns true if the task is due on the calendar day of day,
// compared in day's location.
func (t *Task) IsDueOn(day time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	d := t.DueDate.In(day.Location())
	return d.Year() == day.Year() && d.YearDay() == day.YearDay()
}

// DisplayName returns the name shown in lists; tasks copied into a virtual
// project carry their project name in parentheses.
func (t *Task) DisplayName() string {
	if t.Source == "" {
		return t.Name
	}
	return t.Name + " (" + t.Source + ")"
}

// DueLabel formats the due date for display
func (t *Task) DueLabel(now time.Time) string {
	if t.DueDate == nil {
		return "No date"
	}
	due := *t.DueDate

	if t.IsDueOn(now) {
		return "today " + due.Format("15:04")
	}

	tomorrow := now.AddDate(0, 0, 1)
	if t.IsDueOn(tomorrow) {
		return "tomorrow " + due.Format("15:04")
	}

	if due.Year() == now.Year() {
		return due.Format("Mon, Jan 2 15:04")
	}

	return due.Format("Jan 2, 2006")
}
