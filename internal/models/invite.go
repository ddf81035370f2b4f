package models

// Invite statuses. An invite only moves pending -> accepted or
// pending -> expired.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
)

// Invite authorizes one email to join a team, or to found a new one when
// TeamID is nil (superuser-issued invite).
type Invite struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	InvitedBy string  `json:"invited_by"`
	TeamID    *string `json:"team_id,omitempty"`
	Status    string  `json:"status"`
	CreatedAt int64   `json:"created_at"`
}
