package models

// Post is a short team update shown in the feed. The joined team name and
// avatar are populated by feed queries.
type Post struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	TeamID     string  `json:"team_id"`
	CreatedAt  int64   `json:"created_at"`
	TeamName   string  `json:"team_name"`
	TeamAvatar *string `json:"team_avatar_url,omitempty"`
}
