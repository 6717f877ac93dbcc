package api

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
)

const loginMutation = `
mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password) {
    jwtToken
    message
  }
}`

// Login exchanges credentials for a session token. A response without a
// token is reported as ErrUnauthenticated carrying the server message.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	req := graphql.NewRequest(loginMutation)
	req.Var("email", email)
	req.Var("password", password)

	var resp struct {
		Login *LoginResult `json:"login"`
	}
	if err := c.run(ctx, "login", req, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.Login == nil || resp.Login.Token == "" {
		msg := "no token returned"
		if resp.Login != nil && resp.Login.Message != "" {
			msg = resp.Login.Message
		}
		return LoginResult{}, fmt.Errorf("login: %w: %s", ErrUnauthenticated, msg)
	}
	return *resp.Login, nil
}
