package model

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Project statuses as reported by the server
const (
	StatusPending   = "PENDING"
	StatusOngoing   = "ONGOING"
	StatusArchived  = "ARCHIVED"
	StatusCompleted = "COMPLETED"
)

// Name limits enforced before anything is submitted
const (
	MaxProjectNameLen = 50
	MaxTaskNameLen    = 100
)

// Project represents a server-side project and the tasks loaded for it
type Project struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Status        string     `json:"status,omitempty" yaml:"status,omitempty"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	DateCompleted *time.Time `json:"date_completed,omitempty" yaml:"date_completed,omitempty"`
	Completed     bool       `json:"completed" yaml:"completed"`
	Tasks         []Task     `json:"tasks" yaml:"tasks"`

	// Virtual projects (Today, This Week) are computed views, never persisted
	Virtual bool `json:"virtual,omitempty" yaml:"virtual,omitempty"`
}

// Clone returns a copy that shares no slices with p
func (p Project) Clone() Project {
	out := p
	if p.Tasks != nil {
		out.Tasks = make([]Task, len(p.Tasks))
		copy(out.Tasks, p.Tasks)
	}
	return out
}

// Task returns the task with the given ID
func (p *Project) Task(id string) (*Task, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}

// HasTaskName reports whether a task with this name already exists in the project
func (p *Project) HasTaskName(name string) bool {
	for _, t := range p.Tasks {
		if t.Name == name {
			return true
		}
	}
	return false
}

// CompletedCount returns how many of the loaded tasks are done
func (p *Project) CompletedCount() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// DeriveProjectCompleted applies the server completion rule: an explicit
// COMPLETED status or a non-null completion timestamp.
func DeriveProjectCompleted(status string, dateCompleted *time.Time) bool {
	return strings.EqualFold(status, StatusCompleted) || dateCompleted != nil
}

// ValidateProjectName checks a project name before submission
func ValidateProjectName(name string) error {
	return validateName("project", name, MaxProjectNameLen)
}

// ValidateTaskName checks a task name before submission
func ValidateTaskName(name string) error {
	return validateName("task", name, MaxTaskNameLen)
}

func validateName(kind, name string, limit int) error {
	if strings.TrimSpace(name) == "" {
		return &NameError{Kind: kind, Reason: "name is required"}
	}
	if utf8.RuneCountInString(name) > limit {
		return &NameError{Kind: kind, Reason: "name is too long", Limit: limit}
	}
	return nil
}

// NameError describes why a project or task name was refused
type NameError struct {
	Kind   string
	Reason string
	Limit  int
}

func (e *NameError) Error() string {
	if e.Limit > 0 {
		return e.Kind + " " + e.Reason + " (max " + strconv.Itoa(e.Limit) + " characters)"
	}
	return e.Kind + " " + e.Reason
}
