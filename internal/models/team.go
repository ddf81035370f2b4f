package models

// Team represents a team entity. Posts are attributed to teams, not members.
type Team struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// Follow is a directed edge meaning the follower team's feed includes the
// following team's posts.
type Follow struct {
	FollowerTeamID  string `json:"follower_team_id"`
	FollowingTeamID string `json:"following_team_id"`
}
