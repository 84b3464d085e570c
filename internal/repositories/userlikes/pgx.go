package userlikes

import (
	"context"
	"errors"
	"fmt"
	"time"

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
		logger: logger.WithComponent("UserLikesRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func existsQuery(userID, postID string) (string, []any, error) {
	return repositories.SqBuilder.
		Select("1").
		From("user_likes").
		Where(sq.Eq{"user_id": userID, "post_id": postID}).
		Limit(1).
		ToSql()
}

func createQuery(userID, postID string, at time.Time) (string, []any, error) {
	return repositories.SqBuilder.
		Insert("user_likes").
		Columns("user_id", "post_id", "created_at").
		Values(userID, postID, at).
		ToSql()
}

func deleteQuery(userID, postID string) (string, []any, error) {
	return repositories.SqBuilder.
		Delete("user_likes").
		Where(sq.Eq{"user_id": userID, "post_id": postID}).
		ToSql()
}

func (r *PgxRepository) Exists(ctx context.Context, userID, postID string) (bool, error) {
	query, args, err := existsQuery(userID, postID)
	if err != nil {
		return false, repositories.ErrBadQuery
	}

	var one int
	err = repositories.QuerierFrom(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check like status: %w", err)
	}

	return true, nil
}

func (r *PgxRepository) Create(ctx context.Context, userID, postID string) error {
	query, args, err := createQuery(userID, postID, time.Now())
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = repositories.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == repositories.PgUniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to like post %s: %w", postID, err)
	}
	return nil
}

func (r *PgxRepository) Delete(ctx context.Context, userID, postID string) error {
	query, args, err := deleteQuery(userID, postID)
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := repositories.QuerierFrom(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to unlike post %s: %w", postID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
