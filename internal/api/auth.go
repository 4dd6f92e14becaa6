package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// LoginResult is the authenticated session returned by the backend.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with the backend and, on success, persists the bearer
// token and user profile to the session store. A 401 here propagates to the
// caller (invalid credentials) without touching the stored session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.Post(ctx, loginPath, loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetToken(result.Token); err != nil {
		return nil, fmt.Errorf("persisting session token: %w", err)
	}

	if profile, err := json.Marshal(result.User); err == nil {
		if err := c.store.SetProfile(profile); err != nil {
			log.Warn().Err(err).Msg("failed to cache user profile")
		}
	}

	return &result, nil
}

// Logout invalidates the session server-side and clears local credentials.
// The local session is cleared even when the backend call fails: the user
// asked to sign out, and a dangling server session is the lesser problem.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Post(ctx, "/auth/logout", nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		log.Warn().Err(clearErr).Msg("failed to clear session store on logout")
	}
	return err
}

// CurrentProfile fetches the signed-in user's profile.
func (c *Client) CurrentProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	return c.Post(ctx, "/auth/change-password", changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     updated,
	}, nil)
}
