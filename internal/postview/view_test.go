package postview

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/orgball2608/postview/internal/backend"
	mock_backend "github.com/orgball2608/postview/internal/backend/mocks"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/like"
	mock_likes "github.com/orgball2608/postview/internal/repositories/likes/mocks"
	mock_reports "github.com/orgball2608/postview/internal/repositories/reports/mocks"
	mock_userlikes "github.com/orgball2608/postview/internal/repositories/userlikes/mocks"
	"github.com/orgball2608/postview/internal/report"
	"github.com/orgball2608/postview/internal/resolver"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const postID = "P1"

var (
	alice = &domain.User{ID: "U1", Email: "alice@example.com"}
	bob   = &domain.User{ID: "U2", Email: "bob@example.com"}
)

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeUsers stands in for the session provider.
type fakeUsers struct {
	mu        sync.Mutex
	user      *domain.User
	observers []func(*domain.User)
	cancelled int
}

func (u *fakeUsers) CurrentUser() *domain.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.user
}

func (u *fakeUsers) Subscribe(fn func(*domain.User)) func() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.observers = append(u.observers, fn)
	return func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.cancelled++
	}
}

func (u *fakeUsers) set(user *domain.User) {
	u.mu.Lock()
	u.user = user
	observers := append(([]func(*domain.User))(nil), u.observers...)
	u.mu.Unlock()
	for _, fn := range observers {
		fn(user)
	}
}

type fixture struct {
	view      *View
	users     *fakeUsers
	backend   *mock_backend.MockClient
	likes     *mock_likes.MockRepository
	userLikes *mock_userlikes.MockRepository
	reports   *mock_reports.MockRepository
}

func newFixture(t *testing.T, user *domain.User) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		users:     &fakeUsers{user: user},
		backend:   mock_backend.NewMockClient(ctrl),
		likes:     mock_likes.NewMockRepository(ctrl),
		userLikes: mock_userlikes.NewMockRepository(ctrl),
		reports:   mock_reports.NewMockRepository(ctrl),
	}

	log := logger.NewNop()
	factory := NewFactory(Opts{
		Resolver:  resolver.New(resolver.Opts{Backend: f.backend, Logger: log}),
		Likes:     like.NewFactory(like.Opts{Likes: f.likes, UserLikes: f.userLikes, Tx: inlineTx{}, Logger: log}),
		Submitter: report.NewSubmitter(report.Opts{Reports: f.reports, Logger: log}),
		Logger:    log,
	})
	f.view = factory.New(postID, f.users)
	return f
}

func (f *fixture) expectResolve() {
	f.backend.EXPECT().GetPost(gomock.Any(), postID).Return(&domain.Post{ID: postID, UserID: "AUTHOR", FileURLs: []string{"a.jpg"}}, nil)
	f.backend.EXPECT().GetUsername(gomock.Any(), "AUTHOR").Return("author", nil)
	f.backend.EXPECT().GetUserInfo(gomock.Any(), "author").Return(&domain.Profile{Username: "author"}, nil)
}

func TestMountResolvesAndSeeds(t *testing.T) {
	f := newFixture(t, alice)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(true, nil)

	var statuses []Status
	f.view.Subscribe(func(s State) { statuses = append(statuses, s.Status) })

	require.NoError(t, f.view.Mount(context.Background()))

	state := f.view.State()
	assert.Equal(t, StatusReady, state.Status)
	require.NotNil(t, state.Post)
	assert.Equal(t, "author", state.Post.Username)
	assert.Equal(t, like.Snapshot{Count: 4, Liked: true, Seeded: true}, state.Like)
	assert.Equal(t, StatusLoading, statuses[0])
	assert.Equal(t, StatusReady, statuses[len(statuses)-1])
}

func TestMountNotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.backend.EXPECT().GetPost(gomock.Any(), postID).Return(nil, backend.ErrNotFound)

	err := f.view.Mount(context.Background())
	assert.True(t, apperrors.IsNotFound(err))

	state := f.view.State()
	assert.Equal(t, StatusNotFound, state.Status)
	assert.Equal(t, http.StatusNotFound, state.Code)
	assert.Nil(t, state.Post)

	_, err = f.view.ToggleLike(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestMountFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, nil)
	f.backend.EXPECT().GetPost(gomock.Any(), postID).Return(nil, errors.New("connection refused"))

	err := f.view.Mount(context.Background())
	assert.True(t, apperrors.IsServiceUnavailable(err))
	assert.Equal(t, StatusFailed, f.view.State().Status)
	assert.Error(t, f.view.State().Err)

	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(0, nil)

	require.NoError(t, f.view.Mount(context.Background()))
	state := f.view.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.NoError(t, state.Err)
}

func TestLikeSeedFailureKeepsPostReady(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(0, errors.New("db down"))

	require.NoError(t, f.view.Mount(context.Background()))

	state := f.view.State()
	assert.Equal(t, StatusReady, state.Status)
	assert.False(t, state.Like.Seeded)
}

func TestToggleLikeUsesCurrentUser(t *testing.T) {
	f := newFixture(t, alice)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(false, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(nil)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 5).Return(nil)

	snap, err := f.view.ToggleLike(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Count)
	assert.True(t, snap.Liked)
	assert.Equal(t, snap, f.view.State().Like)
}

func TestToggleLikeSignedOut(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	_, err := f.view.ToggleLike(context.Background())
	assert.ErrorIs(t, err, like.ErrNoSession)
	assert.Equal(t, 4, f.view.State().Like.Count)
}

func TestSignInReseedsLikeState(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	done := make(chan struct{})
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).DoAndReturn(
		func(context.Context, string, string) (bool, error) {
			defer close(done)
			return true, nil
		},
	)

	f.users.set(alice)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("like state was not reloaded")
	}
	assert.Eventually(t, func() bool { return f.view.State().Like.Liked }, time.Second, 5*time.Millisecond)
}

func TestUserChangeDuringToggleReloadsLikeState(t *testing.T) {
	f := newFixture(t, alice)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(5, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(false, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).DoAndReturn(
		func(context.Context, string, string) error {
			close(entered)
			<-release
			return nil
		},
	)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 6).Return(nil)

	reloaded := make(chan struct{})
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(6, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), bob.ID, postID).DoAndReturn(
		func(context.Context, string, string) (bool, error) {
			defer close(reloaded)
			return false, nil
		},
	)

	toggled := make(chan struct{})
	go func() {
		defer close(toggled)
		_, err := f.view.ToggleLike(context.Background())
		assert.NoError(t, err)
	}()

	<-entered
	f.users.set(bob)
	close(release)
	<-toggled

	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Fatal("like state was not reloaded for the new user")
	}
	assert.Eventually(t, func() bool {
		s := f.view.State().Like
		return s.Seeded && !s.Liked && !s.Pending() && s.Count == 6
	}, time.Second, 5*time.Millisecond)
}

func TestReportFlow(t *testing.T) {
	f := newFixture(t, alice)

	f.view.OpenReport()
	f.view.SetReportReason(report.ReasonOther)

	_, err := f.view.SubmitReport(context.Background())
	assert.ErrorIs(t, err, report.ErrCustomReasonRequired)
	assert.True(t, f.view.State().Report.Visible)

	f.view.SetCustomReason("  misleading  ")
	f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.Report) error {
			assert.Equal(t, "misleading", r.Reason)
			assert.Equal(t, alice.ID, r.UserID)
			assert.Equal(t, postID, r.PostID)
			return nil
		},
	)

	created, err := f.view.SubmitReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "misleading", created.Reason)
	assert.Equal(t, report.Form{}, f.view.State().Report)
}

func TestReportFailureKeepsForm(t *testing.T) {
	f := newFixture(t, alice)
	f.view.OpenReport()
	f.view.SetReportReason(report.ReasonSpam)
	f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	_, err := f.view.SubmitReport(context.Background())
	require.Error(t, err)
	assert.Equal(t, report.Form{Visible: true, Reason: report.ReasonSpam}, f.view.State().Report)
}

func TestSecondSubmitWhileSubmittingIsRejected(t *testing.T) {
	f := newFixture(t, alice)
	f.view.OpenReport()
	f.view.SetReportReason(report.ReasonSpam)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.Report) error {
			close(entered)
			<-release
			return nil
		},
	).Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := f.view.SubmitReport(context.Background())
		done <- err
	}()

	<-entered
	_, err := f.view.SubmitReport(context.Background())
	assert.ErrorIs(t, err, ErrSubmitting)
	assert.True(t, apperrors.IsConflict(err))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, report.Form{}, f.view.State().Report)
}

func TestEditDuringSubmitIsKept(t *testing.T) {
	f := newFixture(t, alice)
	f.view.OpenReport()
	f.view.SetReportReason(report.ReasonSpam)

	f.reports.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.Report) error {
			assert.Equal(t, string(report.ReasonSpam), r.Reason)
			f.view.SetReportReason(report.ReasonAbusive)
			return nil
		},
	)

	_, err := f.view.SubmitReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Form{Visible: true, Reason: report.ReasonAbusive}, f.view.State().Report)
}

func TestToggleAndCloseReport(t *testing.T) {
	f := newFixture(t, nil)

	f.view.ToggleReport()
	assert.True(t, f.view.State().Report.Visible)
	f.view.ToggleReport()
	assert.False(t, f.view.State().Report.Visible)
	f.view.OpenReport()
	f.view.CloseReport()
	assert.False(t, f.view.State().Report.Visible)
}

func TestUnmountReleasesSubscriptions(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(1, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	f.view.Unmount()
	f.view.Unmount()

	assert.Equal(t, 1, f.users.cancelled)
	_, err := f.view.ToggleLike(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.ErrorIs(t, f.view.Mount(context.Background()), like.ErrClosed)
}

func TestStateIsACopy(t *testing.T) {
	f := newFixture(t, nil)
	f.expectResolve()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(1, nil)
	require.NoError(t, f.view.Mount(context.Background()))

	state := f.view.State()
	state.Post.Post.FileURLs[0] = "changed.jpg"
	assert.Equal(t, "a.jpg", f.view.State().Post.Post.FileURLs[0])
}
