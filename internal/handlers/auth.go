package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/furkanYanteri1/squadz-site/internal/httpx"
	"github.com/furkanYanteri1/squadz-site/internal/service/auth"
	"github.com/furkanYanteri1/squadz-site/internal/service/users"
)

// AuthHandler exposes signup and login over HTTP.
type AuthHandler struct {
	Service  *auth.AuthService
	Profiles *users.ProfileService
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(service *auth.AuthService, profiles *users.ProfileService) *AuthHandler {
	return &AuthHandler{Service: service, Profiles: profiles}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles the account registration request.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Email == "" || len(req.Password) < 6 {
		httpx.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	accountID, err := h.Service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			httpx.RespondWithError(w, http.StatusBadRequest, err.Error())
		} else {
			httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.respondWithSession(w, r, http.StatusCreated, accountID, req.Email)
}

// Login handles the authentication request.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	account, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}

	h.respondWithSession(w, r, http.StatusOK, account.ID, account.Email)
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request, code int, accountID, email string) {
	token, err := h.Service.GenerateJWT(email, accountID)
	if err != nil {
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user, err := h.Profiles.Resolve(r.Context(), accountID, email)
	if err != nil {
		httpx.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.RespondWithJSON(w, code, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
