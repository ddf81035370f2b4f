package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Session is the process-wide cached identity: a single-writer observable
// value. Sign-in, sign-out and refresh update it and notify subscribers.
type Session struct {
	mu        sync.RWMutex
	user      *User
	listeners map[int]func(*User)
	nextID    int
}

// Current returns the cached user, or nil when signed out.
func (s *Session) Current() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Subscribe registers a listener called on every session change. The
// returned function removes it.
func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(*User))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(user *User) {
	s.mu.Lock()
	s.user = user
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(user)
	}
}

type sessionResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SignUp creates an account and signs the client in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}
	var resp sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	c.session.set(resp.User)
	return resp.User, nil
}

// SignIn authenticates and caches the resolved user.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	var resp sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	c.session.set(resp.User)
	return resp.User, nil
}

// SignOut drops the session token and clears the cached user. Tokens are
// stateless, so no server call is needed.
func (c *Client) SignOut() {
	c.setToken("")
	c.session.set(nil)
}

// Refresh re-resolves the current user from the server, e.g. after invite
// acceptance changed the profile. An expired or missing session clears the
// cache without error.
func (c *Client) Refresh(ctx context.Context) (*User, error) {
	if c.currentToken() == "" {
		c.session.set(nil)
		return nil, nil
	}

	var user User
	err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &user)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.session.set(nil)
			return nil, nil
		}
		return nil, err
	}
	c.session.set(&user)
	return &user, nil
}
