package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/furkanYanteri1/squadz-site/internal/database"
	"github.com/furkanYanteri1/squadz-site/internal/logger"
	"github.com/furkanYanteri1/squadz-site/internal/models"
	"github.com/furkanYanteri1/squadz-site/pkg/utils"
)

// ErrEmailTaken is returned by Signup when the email already has an account.
var ErrEmailTaken = errors.New("already registered")

const (
	queryAccountIDByEmail = `SELECT id FROM accounts WHERE email = ?`
	queryAccountByEmail   = `SELECT id, email, password_hash FROM accounts WHERE email = ?`
	queryInsertAccount    = `INSERT INTO accounts (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
)

// AuthService owns account creation and credential verification.
type AuthService struct {
	DB     *sql.DB
	Log    *logger.Logger
	Secret string
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		DB:     database.DB,
		Log:    logger.NewLogger("auth-service"),
		Secret: secret,
	}
}

// Signup creates an account and returns its id.
func (s *AuthService) Signup(ctx context.Context, email, password string) (string, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return "", err
	}

	var existingID string
	err = s.DB.QueryRowContext(ctx, queryAccountIDByEmail, email).Scan(&existingID)
	if err == nil {
		return "", ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.DB.ExecContext(ctx, queryInsertAccount, id, email, hashedPassword, time.Now().Unix())
	if err != nil {
		return "", err
	}

	s.Log.Audit("Account created", "account_id", id, "email", email)
	return id, nil
}

// Login verifies credentials and returns the account on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, error) {
	var account models.Account
	err := s.DB.QueryRowContext(ctx, queryAccountByEmail, email).Scan(
		&account.ID, &account.Email, &account.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	if err := utils.CheckPassword(account.PasswordHash, password); err != nil {
		return nil, errors.New("invalid credentials")
	}
	return &account, nil
}

// GenerateJWT creates a session token for the account.
func (s *AuthService) GenerateJWT(email, accountID string) (string, error) {
	return GenerateToken(s.Secret, email, accountID)
}

// GenerateToken signs a 24h HS256 session token.
func GenerateToken(secret, email, accountID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":   email,
		"user_id": accountID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	return token.SignedString([]byte(secret))
}
