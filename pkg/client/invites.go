package client

import (
	"context"
	"net/http"
	"strings"
)

// InviteDetails pairs a pending invite with its team name, when the invite
// targets an existing team.
type InviteDetails struct {
	Invite   Invite  `json:"invite"`
	TeamName *string `json:"team_name,omitempty"`
}

// CreateInviteResult is the server's response to invite issuance.
type CreateInviteResult struct {
	Success   bool   `json:"success"`
	Invite    Invite `json:"invite"`
	InviteURL string `json:"inviteUrl"`
	Message   string `json:"message"`
}

// CreateInvite issues an invite for the email on behalf of the signed-in
// caller and returns the shareable link.
func (c *Client) CreateInvite(ctx context.Context, email string) (*CreateInviteResult, error) {
	user := c.session.Current()
	if user == nil {
		return nil, ErrNotSignedIn
	}

	var result CreateInviteResult
	err := c.doJSON(ctx, http.MethodPost, "/api/invite", map[string]string{
		"email":      email,
		"invited_by": user.ID,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchInvite loads a pending invite, typically from an invite_id query
// parameter. A missing or closed invite surfaces the server's "Invalid or
// expired invite" error.
func (c *Client) FetchInvite(ctx context.Context, inviteID string) (*InviteDetails, error) {
	var details InviteDetails
	if err := c.doJSON(ctx, http.MethodGet, "/api/invite/"+inviteID, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// AcceptInvite runs the acceptance workflow and signs the client in as the
// invited user. Password and team name are validated locally before any
// request is made; teamName is only required when the invite carries no team.
func (c *Client) AcceptInvite(ctx context.Context, inviteID, password, teamName string) (*User, error) {
	details, err := c.FetchInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}
	if details.Invite.TeamID == nil && len(strings.TrimSpace(teamName)) < 2 {
		return nil, ErrTeamNameTooShort
	}

	var resp sessionResponse
	err = c.doJSON(ctx, http.MethodPost, "/api/invite/"+inviteID+"/accept", map[string]string{
		"password":  password,
		"team_name": teamName,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.setToken(resp.Token)
	c.session.set(resp.User)
	return resp.User, nil
}
