package userlikes

import (
	"context"
	"errors"
)

var (
	ErrAlreadyExists = errors.New("user already likes this post")
	ErrNotFound      = errors.New("user like not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=userlikes.go -destination=mocks/mock.go

// Repository manages the (user_id, post_id) relation in user_likes.
type Repository interface {
	// Exists reports whether userID currently likes postID.
	Exists(ctx context.Context, userID, postID string) (bool, error)

	// Create inserts the relation. A second insert for the same pair fails
	// with ErrAlreadyExists.
	Create(ctx context.Context, userID, postID string) error

	// Delete removes the relation matched by exact (userID, postID).
	Delete(ctx context.Context, userID, postID string) error
}
