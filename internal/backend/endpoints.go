package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"hrify/internal/domain/auth"
	"hrify/internal/domain/tenant"
)

func (c *Client) GetEmployee(ctx context.Context, scope Scope, id string) (Employee, error) {
	var out Employee
	err := c.Do(ctx, scope, http.MethodGet, "/admin/employee/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) CreateEmployee(ctx context.Context, scope Scope, input EmployeeInput) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodPost, "/admin/employee", nil, input, &out)
	return out, err
}

func (c *Client) UpdateEmployee(ctx context.Context, scope Scope, id string, input EmployeeInput) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodPatch, "/admin/employee/"+url.PathEscape(id), nil, input, &out)
	return out, err
}

func (c *Client) CreateLoan(ctx context.Context, scope Scope, input LoanInput) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodPost, "/loan", nil, input, &out)
	return out, err
}

func (c *Client) UpdateLoan(ctx context.Context, scope Scope, id string, input LoanInput) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodPatch, "/loan/"+url.PathEscape(id), nil, input, &out)
	return out, err
}

func (c *Client) DeleteLoan(ctx context.Context, scope Scope, id string) error {
	return c.Do(ctx, scope, http.MethodDelete, "/loan/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListUsers(ctx context.Context, scope Scope, query url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodGet, "/user/users", query, nil, &out)
	return out, err
}

func (c *Client) ListSalaryIncrements(ctx context.Context, scope Scope, employeeID string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodGet, "/salary-increments/employee/"+url.PathEscape(employeeID), nil, nil, &out)
	return out, err
}

func (c *Client) CreateSalaryIncrement(ctx context.Context, scope Scope, input SalaryIncrementInput) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.Do(ctx, scope, http.MethodPost, "/salary-increments", nil, input, &out)
	return out, err
}

// Authenticate signs in against POST /auth/login. Client errors map to
// auth.ErrInvalidCredentials; anything else is returned as is.
func (c *Client) Authenticate(ctx context.Context, creds auth.Credentials) (auth.Identity, error) {
	scope := Scope{Tenant: tenant.FromLabel(creds.Tenant)}
	var resp signInResponse
	err := c.Do(ctx, scope, http.MethodPost, "/auth/login", nil, signInRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Tenant:   scope.Tenant.Label,
	}, &resp)
	if apiErr, ok := AsAPIError(err); ok && apiErr.Status >= 400 && apiErr.Status < 500 {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return auth.Identity{}, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	userID := idString(resp.User.ID)
	if token == "" || userID == "" {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	email := resp.User.Email
	if email == "" {
		email = creds.Email
	}
	return auth.Identity{
		UserID:       userID,
		Email:        strings.ToLower(email),
		Name:         resp.User.Name,
		Role:         resp.User.Role,
		BackendToken: token,
	}, nil
}
