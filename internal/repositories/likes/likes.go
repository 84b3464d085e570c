package likes

import (
	"context"
	"errors"
)

var ErrNegativeCount = errors.New("like count cannot be negative")

//go:generate go run go.uber.org/mock/mockgen -source=likes.go -destination=mocks/mock.go

// Repository reads and writes the per-post aggregate in the likes table.
type Repository interface {
	// GetCount returns the post's like count, 0 when the post has no row yet.
	GetCount(ctx context.Context, postID string) (int, error)

	// UpsertCount inserts the row or replaces like_count on post_id conflict.
	UpsertCount(ctx context.Context, postID string, count int) error
}
