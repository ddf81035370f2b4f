package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the endpoints the client touches. postCalls and
// followFail let tests observe and steer remote behavior.
type testServer struct {
	*httptest.Server

	postCalls   atomic.Int64
	acceptCalls atomic.Int64
	followFail  atomic.Bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}

	teamID := "T1"
	user := User{ID: "u1", Email: "a@x.com", Role: "member", TeamID: &teamID}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": "test-token", "user": user})
	})
	mux.HandleFunc("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, user)
	})
	mux.HandleFunc("POST /api/posts", func(w http.ResponseWriter, r *http.Request) {
		ts.postCalls.Add(1)
		var req struct {
			Content string `json:"content"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusCreated, Post{ID: "p1", Content: req.Content, TeamID: teamID})
	})
	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Post{})
	})
	mux.HandleFunc("GET /api/follows", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{})
	})
	mux.HandleFunc("POST /api/follows", func(w http.ResponseWriter, r *http.Request) {
		if ts.followFail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("DELETE /api/follows/{id}", func(w http.ResponseWriter, r *http.Request) {
		if ts.followFail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/invite/{id}", func(w http.ResponseWriter, r *http.Request) {
		// Superuser invite: no team attached, so acceptance needs a name.
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"invite": Invite{ID: r.PathValue("id"), Email: "b@x.com", InvitedBy: "u1", Status: "pending"},
		})
	})
	mux.HandleFunc("POST /api/invite/{id}/accept", func(w http.ResponseWriter, r *http.Request) {
		ts.acceptCalls.Add(1)
		writeJSON(w, http.StatusOK, map[string]interface{}{"token": "new-token", "user": user})
	})

	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func signedInClient(t *testing.T, ts *testServer) *Client {
	t.Helper()
	c := New(ts.URL)
	_, err := c.SignIn(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	return c
}

func TestCreatePost_LengthValidation(t *testing.T) {
	ts := newTestServer(t)
	c := signedInClient(t, ts)

	// 501 characters: rejected locally, no request goes out.
	_, err := c.CreatePost(context.Background(), strings.Repeat("a", 501))
	require.ErrorIs(t, err, ErrPostTooLong)
	assert.Equal(t, int64(0), ts.postCalls.Load())

	// 500 characters: accepted.
	post, err := c.CreatePost(context.Background(), strings.Repeat("a", 500))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 500), post.Content)
	assert.Equal(t, int64(1), ts.postCalls.Load())
}

func TestCreatePost_EmptyRejectedLocally(t *testing.T) {
	ts := newTestServer(t)
	c := signedInClient(t, ts)

	_, err := c.CreatePost(context.Background(), "   ")
	require.ErrorIs(t, err, ErrPostEmpty)
	assert.Equal(t, int64(0), ts.postCalls.Load())
}

func TestCreatePost_RequiresSession(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	_, err := c.CreatePost(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNotSignedIn)
	assert.Equal(t, int64(0), ts.postCalls.Load())
}

func TestToggleFollow_PairRestoresEdgeSet(t *testing.T) {
	ts := newTestServer(t)
	c := signedInClient(t, ts)

	require.NoError(t, c.ToggleFollow(context.Background(), "T2"))
	assert.True(t, c.IsFollowing("T2"))

	require.NoError(t, c.ToggleFollow(context.Background(), "T2"))
	assert.False(t, c.IsFollowing("T2"))
	assert.Empty(t, c.Following())
}

func TestToggleFollow_RollsBackOnRemoteFailure(t *testing.T) {
	ts := newTestServer(t)
	c := signedInClient(t, ts)
	ts.followFail.Store(true)

	err := c.ToggleFollow(context.Background(), "T2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
	// The optimistic mutation was reverted.
	assert.False(t, c.IsFollowing("T2"))
}

func TestSessionSubscribe(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	var notified []*User
	unsubscribe := c.Session().Subscribe(func(u *User) {
		notified = append(notified, u)
	})
	defer unsubscribe()

	_, err := c.SignIn(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	require.Len(t, notified, 1)
	require.NotNil(t, notified[0])
	assert.Equal(t, "u1", notified[0].ID)

	c.SignOut()
	require.Len(t, notified, 2)
	assert.Nil(t, notified[1])
	assert.Nil(t, c.Session().Current())
}

func TestLoadFeed_SoftTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		writeJSON(w, http.StatusOK, []Post{{ID: "p1"}})
	}))
	defer slow.Close()

	c := New(slow.URL)
	c.FeedLoadTimeout = 20 * time.Millisecond

	_, err := c.LoadFeed(FeedModeAll)
	require.ErrorIs(t, err, ErrFeedLoadTimeout)

	// The underlying request is not cancelled; an async load still
	// delivers its result.
	res := <-c.LoadFeedAsync(FeedModeAll)
	require.NoError(t, res.Err)
	require.Len(t, res.Posts, 1)
}

func TestAcceptInvite_ClientSideValidation(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	_, err := c.AcceptInvite(context.Background(), "inv-1", "short", "Rockets")
	require.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Equal(t, int64(0), ts.acceptCalls.Load())

	// The test server's invite carries no team, so a name is required.
	_, err = c.AcceptInvite(context.Background(), "inv-1", "secret1", "x")
	require.ErrorIs(t, err, ErrTeamNameTooShort)
	assert.Equal(t, int64(0), ts.acceptCalls.Load())

	user, err := c.AcceptInvite(context.Background(), "inv-1", "secret1", "Rockets")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), ts.acceptCalls.Load())
	// Acceptance signs the client in.
	assert.NotNil(t, c.Session().Current())
}
