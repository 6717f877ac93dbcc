package api

import (
	"context"

	"github.com/machinebox/graphql"
)

const retrieveProjectsQuery = `
query RetrieveProjects {
  retrieveProjects {
    id
    name
    status
    dateCompleted
    description
  }
}`

const createProjectMutation = `
mutation CreateProject($args: CreateProjectInput!) {
  createProject(args: $args) {
    id
  }
}`

const updateProjectMutation = `
mutation UpdateProject($args: UpdateProjectInput!) {
  updateProject(args: $args) {
    description
  }
}`

const deleteProjectMutation = `
mutation DeleteProject($projectId: Int!) {
  deleteProject(projectId: $projectId)
}`

// ListProjects returns every project of the signed-in user. Tasks are not
// included; they are fetched per project.
func (c *Client) ListProjects(ctx context.Context) ([]ProjectRecord, error) {
	var resp struct {
		RetrieveProjects []ProjectRecord `json:"retrieveProjects"`
	}
	if err := c.run(ctx, "retrieveProjects", graphql.NewRequest(retrieveProjectsQuery), &resp); err != nil {
		return nil, err
	}
	if resp.RetrieveProjects == nil {
		return []ProjectRecord{}, nil
	}
	return resp.RetrieveProjects, nil
}

// CreateProject creates a project and returns its identifier. An empty
// identifier with a nil error means the server accepted the call without
// echoing one back.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (string, error) {
	req := graphql.NewRequest(createProjectMutation)
	req.Var("args", in)

	var resp struct {
		CreateProject *struct {
			ID ID `json:"id"`
		} `json:"createProject"`
	}
	if err := c.run(ctx, "createProject", req, &resp); err != nil {
		return "", err
	}
	if resp.CreateProject == nil {
		return "", nil
	}
	return string(resp.CreateProject.ID), nil
}

// UpdateProject changes a project's description
func (c *Client) UpdateProject(ctx context.Context, in UpdateProjectInput) (ProjectUpdate, error) {
	args := map[string]any{"projectId": idVar(in.ProjectID)}
	if in.Description != nil {
		args["description"] = *in.Description
	}
	req := graphql.NewRequest(updateProjectMutation)
	req.Var("args", args)

	var resp struct {
		UpdateProject *ProjectUpdate `json:"updateProject"`
	}
	if err := c.run(ctx, "updateProject", req, &resp); err != nil {
		return ProjectUpdate{}, err
	}
	if resp.UpdateProject == nil {
		return ProjectUpdate{}, nil
	}
	return *resp.UpdateProject, nil
}

// DeleteProject deletes a project. The boolean is the server's own success
// flag; false with a nil error is a soft failure.
func (c *Client) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	req := graphql.NewRequest(deleteProjectMutation)
	req.Var("projectId", idVar(projectID))

	var resp struct {
		DeleteProject bool `json:"deleteProject"`
	}
	if err := c.run(ctx, "deleteProject", req, &resp); err != nil {
		return false, err
	}
	return resp.DeleteProject, nil
}
