package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSquadzTables, downCreateSquadzTables)
}

func upCreateSquadzTables(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS accounts (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		created_at BIGINT NOT NULL
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS teams (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		avatar_url VARCHAR(500),
		created_at BIGINT NOT NULL
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS profiles (
		id CHAR(36) PRIMARY KEY,
		team_id CHAR(36),
		role ENUM('member', 'superuser') NOT NULL DEFAULT 'member',
		invited_by CHAR(36),
		created_at BIGINT NOT NULL,
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS posts (
		id CHAR(36) PRIMARY KEY,
		content TEXT NOT NULL,
		team_id CHAR(36) NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS follows (
		follower_team_id CHAR(36) NOT NULL,
		following_team_id CHAR(36) NOT NULL,
		PRIMARY KEY (follower_team_id, following_team_id)
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS invites (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		invited_by CHAR(36) NOT NULL,
		team_id CHAR(36),
		status ENUM('pending', 'accepted', 'expired') NOT NULL DEFAULT 'pending',
		created_at BIGINT NOT NULL
	);
	`)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		CREATE INDEX idx_posts_created_at ON posts(created_at);
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		CREATE INDEX idx_invites_email_status ON invites(email, status);
	`)
	return err
}

func downCreateSquadzTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"invites", "follows", "posts", "profiles", "teams", "accounts"} {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+";"); err != nil {
			return err
		}
	}
	return nil
}
