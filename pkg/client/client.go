// Package client is a Go client for the Squadz API. It carries the state the
// web client kept in the browser: the cached session with change
// notifications, the optimistic follow set, and client-side post validation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultFeedLoadTimeout bounds how long LoadFeed blocks before giving up on
// the initial loading indicator. The underlying request keeps running.
const DefaultFeedLoadTimeout = 5 * time.Second

var (
	ErrNotSignedIn      = errors.New("not signed in")
	ErrNoTeam           = errors.New("you must be part of a team")
	ErrPostEmpty        = errors.New("post cannot be empty")
	ErrPostTooLong      = errors.New("post is too long (max 500 characters)")
	ErrFollowBusy       = errors.New("follow toggle already in progress")
	ErrFeedLoadTimeout  = errors.New("feed load timed out")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrTeamNameTooShort = errors.New("team name must be at least 2 characters")
)

// APIError is a non-2xx response from the server, carrying its message
// verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// User is the resolved caller identity.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	TeamID   *string `json:"team_id,omitempty"`
	TeamName *string `json:"team_name,omitempty"`
}

// Post is one feed entry.
type Post struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	TeamID     string  `json:"team_id"`
	CreatedAt  int64   `json:"created_at"`
	TeamName   string  `json:"team_name"`
	TeamAvatar *string `json:"team_avatar_url,omitempty"`
}

// Invite is an invitation record as returned by the server.
type Invite struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	InvitedBy string  `json:"invited_by"`
	TeamID    *string `json:"team_id,omitempty"`
	Status    string  `json:"status"`
	CreatedAt int64   `json:"created_at"`
}

// Client talks to one Squadz server and holds local session state. Methods
// are safe for concurrent use.
type Client struct {
	BaseURL         string
	HTTPClient      *http.Client
	FeedLoadTimeout time.Duration

	session *Session

	mu    sync.Mutex
	token string

	followMu   sync.Mutex
	following  map[string]struct{}
	followBusy bool
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:         baseURL,
		HTTPClient:      &http.Client{},
		FeedLoadTimeout: DefaultFeedLoadTimeout,
		session:         &Session{},
		following:       make(map[string]struct{}),
	}
}

// Session returns the cached identity state.
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// doJSON performs one request. A non-2xx response is returned as *APIError
// with the server's message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
