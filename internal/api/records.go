package api

import (
	"bytes"
	"encoding/json"
)

// ID is a server identifier. The server may encode it as a JSON string or
// number; both decode to the same text.
type ID string

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// ProjectRecord is one entry of the project list query
type ProjectRecord struct {
	ID            ID      `json:"id"`
	Name          string  `json:"name"`
	Status        *string `json:"status"`
	DateCompleted *string `json:"dateCompleted"`
	Description   *string `json:"description"`
}

// TaskRecord is one entry of the project task query
type TaskRecord struct {
	ID            ID          `json:"id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description"`
	DateDue       *string     `json:"dateDue"`
	DateCompleted *string     `json:"dateCompleted"`
	Project       *ProjectRef `json:"project"`
}

// ProjectRef is the nested project selection of a task record
type ProjectRef struct {
	ID ID `json:"id"`
}

// ProjectID returns the owning project identifier, "" when the server
// did not include it.
func (r TaskRecord) ProjectID() string {
	if r.Project == nil {
		return ""
	}
	return string(r.Project.ID)
}

// CreateProjectInput is the argument of the createProject mutation
type CreateProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DateDue     string `json:"dateDue"`
}

// CreateTaskInput is the argument of the createProjectTask mutation
type CreateTaskInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProjectID   string `json:"-"`
	DateDue     string `json:"dateDue"`
}

// UpdateProjectInput is the argument of the updateProject mutation
type UpdateProjectInput struct {
	ProjectID   string
	Description *string
}

// UpdateTaskInput is the argument of the updateProjectTask mutation. Nil
// fields are left out of the request.
type UpdateTaskInput struct {
	ID          string
	Name        *string
	Description *string
	DateDue     *string
}

// TaskUpdate is the updateProjectTask response. Fields the server did not
// echo back are nil.
type TaskUpdate struct {
	Name        *string `json:"name"`
	DateDue     *string `json:"dateDue"`
	Description *string `json:"description"`
}

// ProjectUpdate is the updateProject response
type ProjectUpdate struct {
	Description *string `json:"description"`
}

// LoginResult is the login mutation response
type LoginResult struct {
	Token   string `json:"jwtToken"`
	Message string `json:"message"`
}
