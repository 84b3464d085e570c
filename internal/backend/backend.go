package backend

import (
	"context"
	"fmt"

	"github.com/orgball2608/postview/internal/domain"
	apperrors "github.com/orgball2608/postview/pkg/errors"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = fmt.Errorf("backend: %w", apperrors.ErrNotFound)
	// ErrMalformed is returned for bodies that do not carry the expected record.
	ErrMalformed = fmt.Errorf("backend: malformed response: %w", apperrors.ErrServiceUnavailable)
)

// StatusError is returned for any non-200, non-404 answer.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s answered status %d", e.Endpoint, e.Status)
}

func (e *StatusError) Unwrap() error {
	return apperrors.ErrServiceUnavailable
}

//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=mocks/mock.go

// Client is the custom REST API that owns posts and user profiles.
type Client interface {
	// GetPost calls GET /getPost/{postID}.
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	// GetUsername calls GET /getUsername/{userID}.
	GetUsername(ctx context.Context, userID string) (string, error)
	// GetUserInfo calls GET /getUserInfo/{username}.
	GetUserInfo(ctx context.Context, username string) (*domain.Profile, error)
}
