package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upReports, downReports)
}

func upReports(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS reports (
		id            UUID PRIMARY KEY,
		post_id       TEXT NOT NULL,
		report_reason TEXT NOT NULL CHECK (report_reason <> ''),
		user_id       TEXT NOT NULL,
		created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS reports_post_id_idx ON reports (post_id);
	`)
	return err
}

func downReports(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS reports;`)
	return err
}
