package users

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/httpx"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/middleware"
	"github.com/furkanYanteri1/squadz-site/internal/models"
)

const queryProfileWithTeam = `SELECT p.team_id, p.role, t.name FROM profiles p LEFT JOIN teams t ON t.id = p.team_id WHERE p.id = ?`

// ProfileService resolves the current caller's profile and team membership.
type ProfileService struct {
	DB             *sql.DB
	Log            *logger.Logger
	SuperuserEmail string
}

// NewProfileService initializes a new profile service.
func NewProfileService(superuserEmail string) *ProfileService {
	return &ProfileService{
		DB:             database.DB,
		Log:            logger.NewLogger("profile-service"),
		SuperuserEmail: superuserEmail,
	}
}

// GetCurrentUser handles GET /api/me.
func (ps *ProfileService) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.CallerID(ctx)
	if !ok {
		httpx.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	email, _ := middleware.CallerEmail(ctx)

	user, err := ps.Resolve(ctx, userID, email)
	if err != nil {
		ps.Log.Error("Failed to resolve user", "error", err, "user_id", userID)
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.RespondWithJSON(w, http.StatusOK, user)
}

// Resolve builds the caller view from the profile row. A missing profile is
// not an error: the account exists but onboarding has not completed, so the
// user simply has no team yet.
func (ps *ProfileService) Resolve(ctx context.Context, accountID, email string) (*models.User, error) {
	user := &models.User{
		ID:    accountID,
		Email: email,
		Role:  models.RoleMember,
	}

	var teamID, teamName sql.NullString
	var role string
	err := ps.DB.QueryRowContext(ctx, queryProfileWithTeam, accountID).Scan(&teamID, &role, &teamName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		user.Role = role
		if teamID.Valid {
			user.TeamID = &teamID.String
		}
		if teamName.Valid {
			user.TeamName = &teamName.String
		}
	}

	// A single configured address is granted the superuser role, regardless
	// of what the profile row says.
	if ps.SuperuserEmail != "" && email == ps.SuperuserEmail {
		user.Role = models.RoleSuperuser
	}

	return user, nil
}
