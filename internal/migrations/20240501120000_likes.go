package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upLikes, downLikes)
}

func upLikes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS likes (
		post_id    TEXT PRIMARY KEY,
		like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0)
	);

	CREATE TABLE IF NOT EXISTS user_likes (
		user_id    TEXT NOT NULL,
		post_id    TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, post_id)
	);

	CREATE INDEX IF NOT EXISTS user_likes_post_id_idx ON user_likes (post_id);
	`)
	return err
}

func downLikes(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS user_likes;
	DROP TABLE IF EXISTS likes;
	`)
	return err
}
