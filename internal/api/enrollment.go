package api

import "context"

// Invitation statuses used by the backend.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
)

// Invitation is an outstanding offer for a user to join the platform.
type Invitation struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CollegeID string `json:"collegeId,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// RegistrationRequest is a self-service sign-up awaiting review.
type RegistrationRequest struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	CollegeID string `json:"collegeId,omitempty"`
	Status    string `json:"status"`
}

type createInvitationRequest struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CollegeID string `json:"college_id,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (c *Client) ListInvitations(ctx context.Context, status string) ([]Invitation, error) {
	params := Params{}
	if status != "" {
		params["status"] = status
	}

	var resp struct {
		Data []Invitation `json:"data"`
	}
	if err := c.Get(ctx, "/invitations", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) CreateInvitation(ctx context.Context, email, role, collegeID string) (*Invitation, error) {
	var invitation Invitation
	err := c.Post(ctx, "/invitations", createInvitationRequest{
		Email:     email,
		Role:      role,
		CollegeID: collegeID,
	}, &invitation)
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// UpdateInvitationStatus moves an invitation between pending, accepted and
// revoked.
func (c *Client) UpdateInvitationStatus(ctx context.Context, id, status string) (*Invitation, error) {
	var invitation Invitation
	err := c.Patch(ctx, "/invitations/"+id, updateStatusRequest{Status: status}, &invitation)
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *Client) ListRegistrationRequests(ctx context.Context, status string) ([]RegistrationRequest, error) {
	params := Params{}
	if status != "" {
		params["status"] = status
	}

	var resp struct {
		Data []RegistrationRequest `json:"data"`
	}
	if err := c.Get(ctx, "/registration-requests", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ReviewRegistrationRequest approves or rejects a pending registration.
func (c *Client) ReviewRegistrationRequest(ctx context.Context, id, status string) (*RegistrationRequest, error) {
	var request RegistrationRequest
	err := c.Patch(ctx, "/registration-requests/"+id, updateStatusRequest{Status: status}, &request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
