package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/repositories"
	"github.com/orgball2608/postview/pkg/logger"
)

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("ReportsRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func createQuery(report domain.Report) (string, []any, error) {
	return repositories.SqBuilder.
		Insert("reports").
		Columns("id", "post_id", "report_reason", "user_id", "created_at").
		Values(report.ID, report.PostID, report.Reason, report.UserID, report.CreatedAt).
		ToSql()
}

func (r *PgxRepository) Create(ctx context.Context, report domain.Report) error {
	query, args, err := createQuery(report)
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := repositories.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create report for post %s: %w", report.PostID, err)
	}

	r.logger.Info("Report stored", "report_id", report.ID, "post_id", report.PostID)
	return nil
}
