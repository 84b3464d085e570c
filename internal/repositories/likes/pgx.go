package likes

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
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
		logger: logger.WithComponent("LikesRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func getCountQuery(postID string) (string, []any, error) {
	return repositories.SqBuilder.
		Select("like_count").
		From("likes").
		Where(sq.Eq{"post_id": postID}).
		Limit(1).
		ToSql()
}

func upsertCountQuery(postID string, count int) (string, []any, error) {
	return repositories.SqBuilder.
		Insert("likes").
		Columns("post_id", "like_count").
		Values(postID, count).
		Suffix("ON CONFLICT (post_id) DO UPDATE SET like_count = EXCLUDED.like_count").
		ToSql()
}

func (r *PgxRepository) GetCount(ctx context.Context, postID string) (int, error) {
	query, args, err := getCountQuery(postID)
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	var count int
	err = repositories.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get like count for post %s: %w", postID, err)
	}

	return count, nil
}

func (r *PgxRepository) UpsertCount(ctx context.Context, postID string, count int) error {
	if count < 0 {
		return ErrNegativeCount
	}

	query, args, err := upsertCountQuery(postID, count)
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = repositories.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == repositories.PgCheckViolation {
			return ErrNegativeCount
		}
		return fmt.Errorf("failed to upsert like count for post %s: %w", postID, err)
	}

	r.logger.Debug("Like count stored", "post_id", postID, "like_count", count)
	return nil
}
