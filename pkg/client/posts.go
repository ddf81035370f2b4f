package client

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// maxPostLength caps post content, matching the server's data model.
const maxPostLength = 500

// FeedMode selects which posts LoadFeed returns.
type FeedMode string

const (
	FeedModeAll       FeedMode = "all"
	FeedModeFollowing FeedMode = "following"
)

// FeedResult is the outcome of an asynchronous feed load.
type FeedResult struct {
	Posts []Post
	Err   error
}

// CreatePost validates and publishes a post for the caller's team. Empty or
// oversized content is rejected before any request is made.
func (c *Client) CreatePost(ctx context.Context, content string) (*Post, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrPostEmpty
	}
	if utf8.RuneCountInString(content) > maxPostLength {
		return nil, ErrPostTooLong
	}

	user := c.session.Current()
	if user == nil {
		return nil, ErrNotSignedIn
	}
	if user.TeamID == nil {
		return nil, ErrNoTeam
	}

	var post Post
	err := c.doJSON(ctx, http.MethodPost, "/api/posts", map[string]string{
		"content": trimmed,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// LoadFeedAsync starts a feed load and returns a channel that will receive
// the result once, whenever the request finishes.
func (c *Client) LoadFeedAsync(mode FeedMode) <-chan FeedResult {
	ch := make(chan FeedResult, 1)
	go func() {
		var posts []Post
		err := c.doJSON(context.Background(), http.MethodGet, "/api/posts?mode="+string(mode), nil, &posts)
		ch <- FeedResult{Posts: posts, Err: err}
	}()
	return ch
}

// LoadFeed fetches the feed, waiting at most FeedLoadTimeout. On timeout it
// returns ErrFeedLoadTimeout while the request keeps running; callers that
// still want the late result can use LoadFeedAsync directly.
func (c *Client) LoadFeed(mode FeedMode) ([]Post, error) {
	timeout := c.FeedLoadTimeout
	if timeout <= 0 {
		timeout = DefaultFeedLoadTimeout
	}

	select {
	case res := <-c.LoadFeedAsync(mode):
		return res.Posts, res.Err
	case <-time.After(timeout):
		return nil, ErrFeedLoadTimeout
	}
}
