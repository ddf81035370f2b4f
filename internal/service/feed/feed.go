package feed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/httpx"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/middleware"
	"github.com/furkanYanteri1/squadz-site/internal/models"
)

// feedLimit caps every feed listing.
const feedLimit = 50

const (
	queryListPosts     = `SELECT p.id, p.content, p.team_id, p.created_at, t.name, t.avatar_url FROM posts p INNER JOIN teams t ON t.id = p.team_id ORDER BY p.created_at DESC LIMIT ?`
	queryFollowedTeams = `SELECT following_team_id FROM follows WHERE follower_team_id = ?`
	queryProfileTeam   = `SELECT team_id FROM profiles WHERE id = ?`
	queryTeamByID      = `SELECT name, avatar_url FROM teams WHERE id = ?`
	queryInsertPost    = `INSERT INTO posts (id, content, team_id, created_at) VALUES (?, ?, ?, ?)`
)

// Broadcaster fans a created post out to live feed subscribers.
type Broadcaster interface {
	BroadcastPost(post models.Post)
}

// FeedService lists and creates team posts.
type FeedService struct {
	DB  *sql.DB
	Log *logger.Logger
	Hub Broadcaster
}

// NewFeedService initializes a new feed service.
func NewFeedService(hub Broadcaster) *FeedService {
	return &FeedService{
		DB:  database.DB,
		Log: logger.NewLogger("feed-service"),
		Hub: hub,
	}
}

type createPostRequest struct {
	Content string `json:"content"`
}

// ListPosts handles GET /api/posts?mode=all|following. The following mode
// needs a signed-in caller with a team; an empty follow set yields an empty
// feed without running the posts query.
func (fs *FeedService) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mode := r.URL.Query().Get("mode")

	if mode == "following" {
		userID, ok := middleware.CallerID(ctx)
		if !ok {
			httpx.RespondWithError(w, http.StatusUnauthorized, "Sign in to view followed teams")
			return
		}

		var teamID sql.NullString
		err := fs.DB.QueryRowContext(ctx, queryProfileTeam, userID).Scan(&teamID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			fs.Log.Error("Failed to get caller team", "error", err, "user_id", userID)
			httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to get posts")
			return
		}
		if !teamID.Valid {
			httpx.RespondWithJSON(w, http.StatusOK, []models.Post{})
			return
		}

		followed, err := fs.followedTeams(ctx, teamID.String)
		if err != nil {
			fs.Log.Error("Failed to get followed teams", "error", err, "team_id", teamID.String)
			httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to get posts")
			return
		}
		if len(followed) == 0 {
			httpx.RespondWithJSON(w, http.StatusOK, []models.Post{})
			return
		}

		posts, err := fs.listPostsByTeams(ctx, followed)
		if err != nil {
			fs.Log.Error("Failed to query posts", "error", err)
			httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to get posts")
			return
		}
		httpx.RespondWithJSON(w, http.StatusOK, posts)
		return
	}

	rows, err := fs.DB.QueryContext(ctx, queryListPosts, feedLimit)
	if err != nil {
		fs.Log.Error("Failed to query posts", "error", err)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to get posts")
		return
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		fs.Log.Error("Failed to scan posts", "error", err)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to process posts data")
		return
	}

	httpx.RespondWithJSON(w, http.StatusOK, posts)
}

// CreatePost handles POST /api/posts. The caller must belong to a team;
// content arrives already validated by the client.
func (fs *FeedService) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.CallerID(ctx)
	if !ok {
		httpx.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fs.Log.Error("Failed to decode request body", "error", err)
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var teamID sql.NullString
	err := fs.DB.QueryRowContext(ctx, queryProfileTeam, userID).Scan(&teamID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		fs.Log.Error("Failed to get caller team", "error", err, "user_id", userID)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}
	if !teamID.Valid {
		httpx.RespondWithError(w, http.StatusForbidden, "You must be part of a team to post")
		return
	}

	post := models.Post{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(req.Content),
		TeamID:    teamID.String,
		CreatedAt: time.Now().Unix(),
	}

	_, err = fs.DB.ExecContext(ctx, queryInsertPost, post.ID, post.Content, post.TeamID, post.CreatedAt)
	if err != nil {
		fs.Log.Error("Failed to create post", "error", err)
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var teamName string
	var avatar sql.NullString
	if err := fs.DB.QueryRowContext(ctx, queryTeamByID, post.TeamID).Scan(&teamName, &avatar); err == nil {
		post.TeamName = teamName
		if avatar.Valid {
			post.TeamAvatar = &avatar.String
		}
	}

	if fs.Hub != nil {
		fs.Hub.BroadcastPost(post)
	}

	fs.Log.Info("Post created", "post_id", post.ID, "team_id", post.TeamID)
	httpx.RespondWithJSON(w, http.StatusCreated, post)
}

func (fs *FeedService) followedTeams(ctx context.Context, teamID string) ([]string, error) {
	rows, err := fs.DB.QueryContext(ctx, queryFollowedTeams, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		followed = append(followed, id)
	}
	return followed, rows.Err()
}

func (fs *FeedService) listPostsByTeams(ctx context.Context, teamIDs []string) ([]models.Post, error) {
	placeholders := strings.Repeat("?, ", len(teamIDs)-1) + "?"
	query := `SELECT p.id, p.content, p.team_id, p.created_at, t.name, t.avatar_url FROM posts p INNER JOIN teams t ON t.id = p.team_id WHERE p.team_id IN (` + placeholders + `) ORDER BY p.created_at DESC LIMIT ?`

	args := make([]interface{}, 0, len(teamIDs)+1)
	for _, id := range teamIDs {
		args = append(args, id)
	}
	args = append(args, feedLimit)

	rows, err := fs.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		var avatar sql.NullString
		if err := rows.Scan(&p.ID, &p.Content, &p.TeamID, &p.CreatedAt, &p.TeamName, &avatar); err != nil {
			return nil, err
		}
		if avatar.Valid {
			p.TeamAvatar = &avatar.String
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
