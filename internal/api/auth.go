package api

import (
	"context"
	"net/http"
)

type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message,omitempty"`
}

// Register creates an account. It needs no session; a refusal comes back
// as *Error carrying the service message.
func (c *Client) Register(ctx context.Context, cred Credentials) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, c.anon, http.MethodPost, "/auth/register", cred, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, cred Credentials) (AuthResult, error) {
	cred.Email = ""
	var out AuthResult
	err := c.do(ctx, c.anon, http.MethodPost, "/auth/login", cred, &out)
	return out, err
}
