package invites

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/furkanYanteri1/squadz-site/internal/config"
	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/httpx"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/models"
	"github.com/furkanYanteri1/squadz-site/internal/service/auth"
)

const (
	queryInviterProfile = `SELECT team_id FROM profiles WHERE id = ?`
	queryExpirePending  = `UPDATE invites SET status = 'expired' WHERE email = ? AND status = 'pending'`
	queryInsertInvite   = `INSERT INTO invites (id, email, invited_by, team_id, status, created_at) VALUES (?, ?, ?, ?, 'pending', ?)`
	queryPendingInvite  = `SELECT id, email, invited_by, team_id, status, created_at FROM invites WHERE id = ? AND status = 'pending'`
	queryTeamName       = `SELECT name FROM teams WHERE id = ?`
	queryTeamIDByName   = `SELECT id FROM teams WHERE name = ?`
	queryInsertTeam     = `INSERT INTO teams (id, name, created_at) VALUES (?, ?, ?)`
	queryUpsertProfile  = `INSERT INTO profiles (id, team_id, invited_by, role, created_at) VALUES (?, ?, ?, 'member', ?) ON DUPLICATE KEY UPDATE team_id = VALUES(team_id), invited_by = VALUES(invited_by), role = VALUES(role)`
	queryAcceptInvite   = `UPDATE invites SET status = 'accepted' WHERE id = ?`
)

// InviteService issues invites and runs the acceptance workflow.
type InviteService struct {
	DB      *sql.DB
	Log     *logger.Logger
	Auth    *auth.AuthService
	SiteURL string
}

// NewInviteService initializes a new invite service.
func NewInviteService(cfg *config.Config) *InviteService {
	return &InviteService{
		DB:      database.DB,
		Log:     logger.NewLogger("invite-service"),
		Auth:    auth.NewAuthService(cfg.JWTSecret),
		SiteURL: cfg.SiteURL,
	}
}

type createInviteRequest struct {
	Email     string `json:"email"`
	InvitedBy string `json:"invited_by"`
}

type acceptInviteRequest struct {
	Password string `json:"password"`
	TeamName string `json:"team_name"`
}

// CreateInvite handles POST /api/invite. Any prior pending invite for the
// email is expired before the new one is inserted, so at most one pending
// invite exists per email.
func (s *InviteService) CreateInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.InvitedBy == "" {
		httpx.RespondWithError(w, http.StatusBadRequest, "Email and invited_by are required")
		return
	}

	// Inviter's team carries over to the invite. NULL for a superuser with
	// no team: the invitee will found a new one.
	var inviterTeam sql.NullString
	err := s.DB.QueryRowContext(ctx, queryInviterProfile, req.InvitedBy).Scan(&inviterTeam)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.RespondWithError(w, http.StatusNotFound, "Inviter profile not found")
		} else {
			s.Log.Error("Failed to get inviter profile", "error", err, "invited_by", req.InvitedBy)
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if _, err := s.DB.ExecContext(ctx, queryExpirePending, req.Email); err != nil {
		s.Log.Error("Failed to expire prior invites", "error", err, "email", req.Email)
	}

	invite := models.Invite{
		ID:        uuid.NewString(),
		Email:     req.Email,
		InvitedBy: req.InvitedBy,
		Status:    models.InviteStatusPending,
		CreatedAt: time.Now().Unix(),
	}
	if inviterTeam.Valid {
		invite.TeamID = &inviterTeam.String
	}

	var teamArg interface{}
	if invite.TeamID != nil {
		teamArg = *invite.TeamID
	}
	_, err = s.DB.ExecContext(ctx, queryInsertInvite, invite.ID, invite.Email, invite.InvitedBy, teamArg, invite.CreatedAt)
	if err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	inviteURL := fmt.Sprintf("%s?invite_id=%s", s.SiteURL, invite.ID)

	// Email delivery is disabled; the link is logged for the operator to
	// share manually.
	s.Log.Info("Invite created", "email", invite.Email, "invite_url", inviteURL)

	httpx.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"invite":    invite,
		"inviteUrl": inviteURL,
		"message":   "Invite created (email disabled due to rate limit)",
	})
}

// GetInvite handles GET /api/invite/{id}, returning a pending invite together
// with its team name so the acceptance form can show it read-only.
func (s *InviteService) GetInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inviteID := mux.Vars(r)["id"]

	invite, err := s.fetchPending(ctx, inviteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.RespondWithError(w, http.StatusNotFound, "Invalid or expired invite")
		} else {
			s.Log.Error("Failed to get invite", "error", err, "invite_id", inviteID)
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	var teamName *string
	if invite.TeamID != nil {
		var name string
		if err := s.DB.QueryRowContext(ctx, queryTeamName, *invite.TeamID).Scan(&name); err == nil {
			teamName = &name
		}
	}

	httpx.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"invite":    invite,
		"team_name": teamName,
	})
}

// AcceptInvite handles POST /api/invite/{id}/accept: validate, create or
// sign in the account, create the team when the invite carries none, upsert
// the profile, and close the invite. Steps after account creation are not
// atomic; a failure partway leaves earlier writes in place.
func (s *InviteService) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inviteID := mux.Vars(r)["id"]

	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invite, err := s.fetchPending(ctx, inviteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httpx.RespondWithError(w, http.StatusNotFound, "Invalid or expired invite")
		} else {
			s.Log.Error("Failed to get invite", "error", err, "invite_id", inviteID)
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	// All validation happens before any account or team mutation.
	if len(req.Password) < 6 {
		httpx.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	requireTeamName := invite.TeamID == nil
	teamName := strings.TrimSpace(req.TeamName)
	if requireTeamName && len(teamName) < 2 {
		httpx.RespondWithError(w, http.StatusBadRequest, "Team name must be at least 2 characters")
		return
	}

	// Create the account, falling back to sign-in when it already exists.
	accountID, err := s.Auth.Signup(ctx, invite.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrEmailTaken) {
			s.Log.Error("Failed to create account", "error", err, "email", invite.Email)
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		account, loginErr := s.Auth.Login(ctx, invite.Email, req.Password)
		if loginErr != nil {
			httpx.RespondWithError(w, http.StatusBadRequest, "Invalid credentials or user already exists with different password")
			return
		}
		accountID = account.ID
	}

	// Resolve the team: the invite's, or a freshly created one. The name
	// check races with concurrent inserts; the UNIQUE index on teams.name
	// backstops it.
	finalTeamID := ""
	if invite.TeamID != nil {
		finalTeamID = *invite.TeamID
	} else {
		var existingID string
		err := s.DB.QueryRowContext(ctx, queryTeamIDByName, teamName).Scan(&existingID)
		if err == nil {
			httpx.RespondWithError(w, http.StatusBadRequest, "Team name already exists, please choose another")
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			s.Log.Error("Failed to check team name", "error", err, "team_name", teamName)
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		finalTeamID = uuid.NewString()
		if _, err := s.DB.ExecContext(ctx, queryInsertTeam, finalTeamID, teamName, time.Now().Unix()); err != nil {
			httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to create team: "+err.Error())
			return
		}
		s.Log.Info("Team created", "team_id", finalTeamID, "team_name", teamName)
	}

	_, err = s.DB.ExecContext(ctx, queryUpsertProfile, accountID, finalTeamID, invite.InvitedBy, time.Now().Unix())
	if err != nil {
		httpx.RespondWithError(w, http.StatusInternalServerError, "Failed to create profile: "+err.Error())
		return
	}

	// Closing the invite is best effort; earlier writes stand either way.
	if _, err := s.DB.ExecContext(ctx, queryAcceptInvite, invite.ID); err != nil {
		s.Log.Error("Failed to mark invite accepted", "error", err, "invite_id", invite.ID)
	}

	token, err := auth.GenerateToken(s.Auth.Secret, invite.Email, accountID)
	if err != nil {
		s.Log.Error("Failed to generate token", "error", err)
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Log.Audit("Invite accepted", "invite_id", invite.ID, "account_id", accountID, "team_id", finalTeamID)

	httpx.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": models.User{
			ID:     accountID,
			Email:  invite.Email,
			Role:   models.RoleMember,
			TeamID: &finalTeamID,
		},
	})
}

func (s *InviteService) fetchPending(ctx context.Context, inviteID string) (*models.Invite, error) {
	var invite models.Invite
	var teamID sql.NullString
	err := s.DB.QueryRowContext(ctx, queryPendingInvite, inviteID).Scan(
		&invite.ID, &invite.Email, &invite.InvitedBy, &teamID, &invite.Status, &invite.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if teamID.Valid {
		invite.TeamID = &teamID.String
	}
	return &invite, nil
}
