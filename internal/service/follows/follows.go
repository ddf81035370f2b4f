package follows

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/httpx"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/middleware"
	"github.com/furkanYanteri1/squadz-site/internal/models"
)

const (
	queryProfileTeam  = `SELECT team_id FROM profiles WHERE id = ?`
	queryListFollows  = `SELECT following_team_id FROM follows WHERE follower_team_id = ?`
	queryInsertFollow = `INSERT INTO follows (follower_team_id, following_team_id) VALUES (?, ?)`
	queryDeleteFollow = `DELETE FROM follows WHERE follower_team_id = ? AND following_team_id = ?`
)

// FollowService reads and writes the team follow graph.
type FollowService struct {
	DB  *sql.DB
	Log *logger.Logger
}

// NewFollowService initializes a new follow service.
func NewFollowService() *FollowService {
	return &FollowService{
		DB:  database.DB,
		Log: logger.NewLogger("follow-service"),
	}
}

type followRequest struct {
	FollowingTeamID string `json:"following_team_id"`
}

// ListFollows handles GET /api/follows, returning the ids of teams the
// caller's team follows.
func (s *FollowService) ListFollows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := s.callerTeam(w, r)
	if !ok {
		return
	}

	rows, err := s.DB.QueryContext(ctx, queryListFollows, teamID)
	if err != nil {
		s.Log.Error("Failed to query follows", "error", err, "team_id", teamID)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to get follows")
		return
	}
	defer rows.Close()

	followed := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.Log.Error("Failed to scan follow row", "error", err)
			httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to process follows data")
			return
		}
		followed = append(followed, id)
	}
	if err := rows.Err(); err != nil {
		s.Log.Error("Error iterating follow rows", "error", err)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to process follows data")
		return
	}

	httpx.RespondWithJSON(w, http.StatusOK, followed)
}

// Follow handles POST /api/follows, inserting a directed edge from the
// caller's team to the requested team.
func (s *FollowService) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := s.callerTeam(w, r)
	if !ok {
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FollowingTeamID == "" {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.DB.ExecContext(ctx, queryInsertFollow, teamID, req.FollowingTeamID); err != nil {
		s.Log.Error("Failed to insert follow", "error", err, "team_id", teamID, "following", req.FollowingTeamID)
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Log.Info("Follow created", "follower", teamID, "following", req.FollowingTeamID)
	httpx.RespondWithJSON(w, http.StatusCreated, models.Follow{
		FollowerTeamID:  teamID,
		FollowingTeamID: req.FollowingTeamID,
	})
}

// Unfollow handles DELETE /api/follows/{team_id}.
func (s *FollowService) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	teamID, ok := s.callerTeam(w, r)
	if !ok {
		return
	}

	followingID := mux.Vars(r)["team_id"]
	if followingID == "" {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	if _, err := s.DB.ExecContext(ctx, queryDeleteFollow, teamID, followingID); err != nil {
		s.Log.Error("Failed to delete follow", "error", err, "team_id", teamID, "following", followingID)
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Log.Info("Follow removed", "follower", teamID, "following", followingID)
	httpx.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// callerTeam resolves the caller's team id, writing the error response when
// the caller is anonymous or has no team.
func (s *FollowService) callerTeam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.CallerID(r.Context())
	if !ok {
		httpx.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return "", false
	}

	var teamID sql.NullString
	err := s.DB.QueryRowContext(r.Context(), queryProfileTeam, userID).Scan(&teamID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.Log.Error("Failed to get caller team", "error", err, "user_id", userID)
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to verify team membership")
		return "", false
	}
	if !teamID.Valid {
		httpx.RespondWithError(w, http.StatusForbidden, "You must be part of a team to follow teams")
		return "", false
	}
	return teamID.String, true
}
