package api

import (
	"context"

	"github.com/machinebox/graphql"
)

const retrieveProjectTasksQuery = `
query RetrieveProjectTasks($projectId: Int!) {
  retrieveProjectTasks(projectId: $projectId) {
    id
    name
    description
    dateDue
    dateCompleted
    project {
      id
    }
  }
}`

const createProjectTaskMutation = `
mutation CreateProjectTask($args: CreateProjectTaskInput!) {
  createProjectTask(args: $args) {
    id
  }
}`

const updateProjectTaskMutation = `
mutation UpdateProjectTask($args: UpdateProjectTaskInput!) {
  updateProjectTask(args: $args) {
    name
    dateDue
    description
  }
}`

const deleteProjectTaskMutation = `
mutation DeleteProjectTask($taskId: Int!) {
  deleteProjectTask(taskId: $taskId)
}`

// ListProjectTasks returns the tasks of one project
func (c *Client) ListProjectTasks(ctx context.Context, projectID string) ([]TaskRecord, error) {
	req := graphql.NewRequest(retrieveProjectTasksQuery)
	req.Var("projectId", idVar(projectID))

	var resp struct {
		RetrieveProjectTasks []TaskRecord `json:"retrieveProjectTasks"`
	}
	if err := c.run(ctx, "retrieveProjectTasks", req, &resp); err != nil {
		return nil, err
	}
	if resp.RetrieveProjectTasks == nil {
		return []TaskRecord{}, nil
	}
	return resp.RetrieveProjectTasks, nil
}

// CreateProjectTask creates a task and returns its identifier, "" if the
// server did not return one.
func (c *Client) CreateProjectTask(ctx context.Context, in CreateTaskInput) (string, error) {
	req := graphql.NewRequest(createProjectTaskMutation)
	req.Var("args", map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"projectId":   idVar(in.ProjectID),
		"dateDue":     in.DateDue,
	})

	var resp struct {
		CreateProjectTask *struct {
			ID ID `json:"id"`
		} `json:"createProjectTask"`
	}
	if err := c.run(ctx, "createProjectTask", req, &resp); err != nil {
		return "", err
	}
	if resp.CreateProjectTask == nil {
		return "", nil
	}
	return string(resp.CreateProjectTask.ID), nil
}

// UpdateProjectTask changes the given fields of a task
func (c *Client) UpdateProjectTask(ctx context.Context, in UpdateTaskInput) (TaskUpdate, error) {
	args := map[string]any{"id": idVar(in.ID)}
	if in.Name != nil {
		args["name"] = *in.Name
	}
	if in.Description != nil {
		args["description"] = *in.Description
	}
	if in.DateDue != nil {
		args["dateDue"] = *in.DateDue
	}
	req := graphql.NewRequest(updateProjectTaskMutation)
	req.Var("args", args)

	var resp struct {
		UpdateProjectTask *TaskUpdate `json:"updateProjectTask"`
	}
	if err := c.run(ctx, "updateProjectTask", req, &resp); err != nil {
		return TaskUpdate{}, err
	}
	if resp.UpdateProjectTask == nil {
		return TaskUpdate{}, nil
	}
	return *resp.UpdateProjectTask, nil
}

// DeleteProjectTask deletes a task; false with a nil error is a soft failure
func (c *Client) DeleteProjectTask(ctx context.Context, taskID string) (bool, error) {
	req := graphql.NewRequest(deleteProjectTaskMutation)
	req.Var("taskId", idVar(taskID))

	var resp struct {
		DeleteProjectTask bool `json:"deleteProjectTask"`
	}
	if err := c.run(ctx, "deleteProjectTask", req, &resp); err != nil {
		return false, err
	}
	return resp.DeleteProjectTask, nil
}
