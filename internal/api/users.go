package api

import "context"

// Role names used by the backend for dashboard and navigation dispatch.
const (
	RoleAdmin     = "admin"
	RolePrincipal = "principal"
	RoleHOD       = "hod"
	RoleStaff     = "staff"
	RoleStudent   = "student"
)

// User is a platform account of any role.
type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	CollegeID    string `json:"collegeId,omitempty"`
	DepartmentID string `json:"departmentId,omitempty"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// UserList is a paginated user result set.
type UserList struct {
	Data  []User `json:"data"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
}

// UserFilters narrows a user listing. Zero values are omitted from the
// query string.
type UserFilters struct {
	Role         string
	CollegeID    string
	DepartmentID string
	Search       string
	Page         int
	Limit        int
}

// params renders the filters with the backend's snake_case parameter names.
func (f UserFilters) params() Params {
	p := Params{}
	if f.Role != "" {
		p["role"] = f.Role
	}
	if f.CollegeID != "" {
		p["college_id"] = f.CollegeID
	}
	if f.DepartmentID != "" {
		p["department_id"] = f.DepartmentID
	}
	if f.Search != "" {
		p["search"] = f.Search
	}
	if f.Page > 0 {
		p["page"] = f.Page
	}
	if f.Limit > 0 {
		p["limit"] = f.Limit
	}
	return p
}

// CreateUserRequest is the outbound shape for user creation. Field names
// match the backend convention; no casing conversion applies to requests.
type CreateUserRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	CollegeID    string `json:"college_id,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// UpdateUserRequest carries partial updates; nil fields are omitted.
type UpdateUserRequest struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

func (c *Client) ListUsers(ctx context.Context, filters UserFilters) (*UserList, error) {
	var list UserList
	if err := c.Get(ctx, "/users", filters.params(), &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.Get(ctx, "/users/"+id, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.Post(ctx, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	var user User
	if err := c.Put(ctx, "/users/"+id, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.Delete(ctx, "/users/"+id, nil, nil)
}
