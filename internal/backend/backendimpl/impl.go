package backendimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/orgball2608/postview/internal/backend"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/pkg/config"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type BackendImpl struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func New(opts Opts) *BackendImpl {
	return &BackendImpl{
		baseURL: strings.TrimRight(opts.Config.Backend.BaseURL, "/"),
		client:  &http.Client{Timeout: opts.Config.Backend.Timeout},
		logger:  opts.Logger.WithComponent("Backend"),
	}
}

var _ backend.Client = (*BackendImpl)(nil)

// envelope is the {status, data: [...]} wrapper every endpoint answers with.
type envelope[T any] struct {
	Status int `json:"status"`
	Data   []T `json:"data"`
}

type usernameRecord struct {
	Username string `json:"username"`
}

func (b *BackendImpl) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := get[domain.Post](ctx, b, "getPost", postID)
	if err != nil {
		return nil, err
	}
	if post.UserID == "" {
		return nil, fmt.Errorf("post %s has no author: %w", postID, backend.ErrMalformed)
	}
	return post, nil
}

func (b *BackendImpl) GetUsername(ctx context.Context, userID string) (string, error) {
	rec, err := get[usernameRecord](ctx, b, "getUsername", userID)
	if err != nil {
		return "", err
	}
	if rec.Username == "" {
		return "", fmt.Errorf("user %s has no username: %w", userID, backend.ErrMalformed)
	}
	return rec.Username, nil
}

func (b *BackendImpl) GetUserInfo(ctx context.Context, username string) (*domain.Profile, error) {
	profile, err := get[domain.Profile](ctx, b, "getUserInfo", username)
	if err != nil {
		return nil, err
	}
	if profile.Username == "" {
		profile.Username = username
	}
	return profile, nil
}

// get fetches /{endpoint}/{segment} and returns the first record of data.
func get[T any](ctx context.Context, b *BackendImpl, endpoint, segment string) (*T, error) {
	reqURL := b.baseURL + "/" + endpoint + "/" + url.PathEscape(segment)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Error("Backend request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer safeClose(resp.Body, b.logger)

	if resp.StatusCode == http.StatusNotFound {
		return nil, backend.ErrNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &backend.StatusError{Endpoint: endpoint, Status: resp.StatusCode}
		}
		b.logger.Warn("Backend returned undecodable body", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%s: %w", endpoint, backend.ErrMalformed)
	}

	status := env.Status
	if status == 0 {
		status = resp.StatusCode
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, backend.ErrNotFound
	default:
		return nil, &backend.StatusError{Endpoint: endpoint, Status: status}
	}

	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%s returned no records: %w", endpoint, backend.ErrMalformed)
	}

	return &env.Data[0], nil
}

func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}
