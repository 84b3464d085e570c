// Package resolver turns a post id into a fully resolved post detail by
// chaining three dependent backend lookups: post, author username, author
// profile. The chain stops at the first failing stage.
package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/orgball2608/postview/internal/backend"
	"github.com/orgball2608/postview/internal/domain"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

// Stage names reported in errors.
const (
	StagePost     = "post"
	StageUsername = "username"
	StageProfile  = "profile"
)

// NotFoundError ends the pipeline when a stage answers 404. Code is what the
// error view shows.
type NotFoundError struct {
	Stage string
	Code  int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s stage: not found (%d)", e.Stage, e.Code)
}

func (e *NotFoundError) Unwrap() error {
	return apperrors.ErrNotFound
}

// UnavailableError ends the pipeline on transport failures and malformed
// answers. Unlike NotFoundError it is worth retrying.
type UnavailableError struct {
	Stage string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{apperrors.ErrServiceUnavailable, e.Err}
}

type Opts struct {
	fx.In

	Backend backend.Client
	Logger  logger.Logger
}

type Resolver struct {
	backend backend.Client
	logger  logger.Logger
}

func New(opts Opts) *Resolver {
	return &Resolver{
		backend: opts.Backend,
		logger:  opts.Logger.WithComponent("Resolver"),
	}
}

// resolution is threaded through the steps; each step reads what the
// previous one filled in.
type resolution struct {
	postID string
	detail domain.PostDetail
}

type step struct {
	stage string
	run   func(ctx context.Context, r *resolution) error
}

// Resolve runs post -> username -> profile. It returns *NotFoundError when a
// stage answers 404 and *UnavailableError for anything else that fails.
func (r *Resolver) Resolve(ctx context.Context, postID string) (*domain.PostDetail, error) {
	res := &resolution{postID: postID}

	steps := []step{
		{StagePost, r.fetchPost},
		{StageUsername, r.fetchUsername},
		{StageProfile, r.fetchProfile},
	}

	for _, s := range steps {
		if err := s.run(ctx, res); err != nil {
			return nil, r.classify(s.stage, postID, err)
		}
	}

	r.logger.Debug("Post resolved", "post_id", postID, "username", res.detail.Username)
	return &res.detail, nil
}

func (r *Resolver) fetchPost(ctx context.Context, res *resolution) error {
	post, err := r.backend.GetPost(ctx, res.postID)
	if err != nil {
		return err
	}
	res.detail.Post = *post
	res.detail.Post.FileURLs = append([]string(nil), post.FileURLs...)
	return nil
}

func (r *Resolver) fetchUsername(ctx context.Context, res *resolution) error {
	username, err := r.backend.GetUsername(ctx, res.detail.Post.UserID)
	if err != nil {
		return err
	}
	res.detail.Username = username
	return nil
}

func (r *Resolver) fetchProfile(ctx context.Context, res *resolution) error {
	profile, err := r.backend.GetUserInfo(ctx, res.detail.Username)
	if err != nil {
		return err
	}
	res.detail.Profile = *profile
	return nil
}

func (r *Resolver) classify(stage, postID string, err error) error {
	if apperrors.IsNotFound(err) {
		r.logger.Info("Post resolution stopped: not found", "post_id", postID, "stage", stage)
		return &NotFoundError{Stage: stage, Code: http.StatusNotFound}
	}

	r.logger.Error("Post resolution failed", "post_id", postID, "stage", stage, "error", err)
	return &UnavailableError{Stage: stage, Err: err}
}
