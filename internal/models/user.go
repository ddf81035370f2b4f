package models

// Account is the identity row owned by the auth service.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// Profile links an account to its team and role. TeamID stays nil until
// onboarding completes.
type Profile struct {
	ID        string  `json:"id"`
	TeamID    *string `json:"team_id,omitempty"`
	Role      string  `json:"role"`
	InvitedBy *string `json:"invited_by,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// User is the resolved caller view returned by /api/me: account identity plus
// profile and team details.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	TeamID   *string `json:"team_id,omitempty"`
	TeamName *string `json:"team_name,omitempty"`
}

const (
	RoleMember    = "member"
	RoleSuperuser = "superuser"
)
