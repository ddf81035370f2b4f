package client

import (
	"context"
	"net/http"
)

// LoadFollows seeds the local follow set from the server.
func (c *Client) LoadFollows(ctx context.Context) error {
	var followed []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/follows", nil, &followed); err != nil {
		return err
	}

	c.followMu.Lock()
	c.following = make(map[string]struct{}, len(followed))
	for _, id := range followed {
		c.following[id] = struct{}{}
	}
	c.followMu.Unlock()
	return nil
}

// IsFollowing reports whether the caller's team follows the given team.
func (c *Client) IsFollowing(teamID string) bool {
	c.followMu.Lock()
	defer c.followMu.Unlock()
	_, ok := c.following[teamID]
	return ok
}

// Following returns a copy of the followed team ids.
func (c *Client) Following() []string {
	c.followMu.Lock()
	defer c.followMu.Unlock()
	ids := make([]string, 0, len(c.following))
	for id := range c.following {
		ids = append(ids, id)
	}
	return ids
}

// ToggleFollow follows an unfollowed team or unfollows a followed one. The
// local set is mutated before the remote call and reverted when it fails.
// A toggle already in flight makes further toggles return ErrFollowBusy
// rather than queueing.
func (c *Client) ToggleFollow(ctx context.Context, teamID string) error {
	user := c.session.Current()
	if user == nil || user.TeamID == nil {
		return ErrNoTeam
	}

	c.followMu.Lock()
	if c.followBusy {
		c.followMu.Unlock()
		return ErrFollowBusy
	}
	c.followBusy = true
	_, wasFollowing := c.following[teamID]

	// Optimistic update: flip the edge locally first.
	if wasFollowing {
		delete(c.following, teamID)
	} else {
		c.following[teamID] = struct{}{}
	}
	c.followMu.Unlock()

	var err error
	if wasFollowing {
		err = c.doJSON(ctx, http.MethodDelete, "/api/follows/"+teamID, nil, nil)
	} else {
		err = c.doJSON(ctx, http.MethodPost, "/api/follows", map[string]string{
			"following_team_id": teamID,
		}, nil)
	}

	c.followMu.Lock()
	if err != nil {
		// Remote failure: re-apply the inverse mutation.
		if wasFollowing {
			c.following[teamID] = struct{}{}
		} else {
			delete(c.following, teamID)
		}
	}
	c.followBusy = false
	c.followMu.Unlock()

	return err
}
