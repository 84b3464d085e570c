package like

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/orgball2608/postview/internal/domain"
	mock_likes "github.com/orgball2608/postview/internal/repositories/likes/mocks"
	mock_userlikes "github.com/orgball2608/postview/internal/repositories/userlikes/mocks"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	postID   = "P1"
	authorID = "AUTHOR"
)

var (
	alice = &domain.User{ID: "U1", Email: "alice@example.com"}
	bob   = &domain.User{ID: "U2", Email: "bob@example.com"}
)

// inlineTx runs fn without a real transaction.
type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	machine   *Machine
	likes     *mock_likes.MockRepository
	userLikes *mock_userlikes.MockRepository
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		likes:     mock_likes.NewMockRepository(ctrl),
		userLikes: mock_userlikes.NewMockRepository(ctrl),
	}
	factory := NewFactory(Opts{Likes: f.likes, UserLikes: f.userLikes, Tx: inlineTx{}, Logger: logger.NewNop()})
	f.machine = factory.New(postID, authorID)
	return f
}

func (f *fixture) seed(t *testing.T, count int, liked bool) {
	t.Helper()
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(count, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(liked, nil)
	require.NoError(t, f.machine.Seed(context.Background(), alice))
}

func TestSeedReflectsExistingUserLike(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 12, true)

	snap := f.machine.Snapshot()
	assert.True(t, snap.Seeded)
	assert.True(t, snap.Liked)
	assert.Equal(t, 12, snap.Count)
	assert.Equal(t, HeartFilledIcon, snap.HeartIcon())
}

func TestSeedWithoutUserSkipsLikeStatus(t *testing.T) {
	f := newFixture(t)
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(0, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	require.NoError(t, f.machine.Seed(context.Background(), nil))

	snap := f.machine.Snapshot()
	assert.True(t, snap.Seeded)
	assert.False(t, snap.Liked)
	assert.Equal(t, 0, snap.Count)
	assert.Equal(t, HeartIcon, snap.HeartIcon())
}

func TestSeedFailureLeavesMachineUnseeded(t *testing.T) {
	f := newFixture(t)
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(0, errors.New("timeout"))
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(false, nil).AnyTimes()

	err := f.machine.Seed(context.Background(), alice)
	assert.True(t, apperrors.IsServiceUnavailable(err))
	assert.False(t, f.machine.Snapshot().Seeded)

	_, err = f.machine.Toggle(context.Background(), alice)
	assert.ErrorIs(t, err, ErrNotSeeded)
}

func TestLikeCommits(t *testing.T) {
	for _, c := range []int{0, 1, 41, 999} {
		f := newFixture(t)
		f.seed(t, c, false)

		gomock.InOrder(
			f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(nil),
			f.likes.EXPECT().UpsertCount(gomock.Any(), postID, c+1).Return(nil),
		)

		snap, err := f.machine.Toggle(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, Snapshot{Count: c + 1, Liked: true, Phase: Idle, Outcome: Committed, Seeded: true}, snap)
		assert.Equal(t, snap, f.machine.Snapshot())
	}
}

func TestUnlikeCommits(t *testing.T) {
	for _, c := range []int{1, 2, 500} {
		f := newFixture(t)
		f.seed(t, c, true)

		gomock.InOrder(
			f.userLikes.EXPECT().Delete(gomock.Any(), alice.ID, postID).Return(nil),
			f.likes.EXPECT().UpsertCount(gomock.Any(), postID, c-1).Return(nil),
		)

		snap, err := f.machine.Toggle(context.Background(), alice)
		require.NoError(t, err)
		assert.Equal(t, c-1, snap.Count)
		assert.False(t, snap.Liked)
		assert.Equal(t, Committed, snap.Outcome)
	}
}

func TestUnlikeNeverWritesNegativeCount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 0, true)

	f.userLikes.EXPECT().Delete(gomock.Any(), alice.ID, postID).Return(nil)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 0).Return(nil)

	snap, err := f.machine.Toggle(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Count)
}

func TestCountUpsertFailureRestoresPreToggleState(t *testing.T) {
	for _, liked := range []bool{false, true} {
		f := newFixture(t)
		f.seed(t, 10, liked)
		before := f.machine.Snapshot()

		if liked {
			f.userLikes.EXPECT().Delete(gomock.Any(), alice.ID, postID).Return(nil)
			f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 9).Return(errors.New("conflict"))
		} else {
			f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(nil)
			f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 11).Return(errors.New("conflict"))
		}

		snap, err := f.machine.Toggle(context.Background(), alice)
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, apperrors.CodeConflict, apperrors.GetCode(err))

		assert.Equal(t, before.Count, snap.Count)
		assert.Equal(t, before.Liked, snap.Liked)
		assert.Equal(t, RolledBack, snap.Outcome)
		assert.False(t, snap.Pending())
		assert.Equal(t, before.HeartIcon(), snap.HeartIcon())
	}
}

func TestRelationWriteFailureAlsoRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 3, false)

	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(errors.New("duplicate"))
	f.likes.EXPECT().UpsertCount(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	snap, err := f.machine.Toggle(context.Background(), alice)
	require.Error(t, err)
	assert.Equal(t, 3, snap.Count)
	assert.False(t, snap.Liked)
	assert.Equal(t, RolledBack, snap.Outcome)
}

func TestSelfLikeIsRejectedWithoutStateChange(t *testing.T) {
	f := newFixture(t)
	author := &domain.User{ID: authorID}
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), authorID, postID).Return(false, nil)
	require.NoError(t, f.machine.Seed(context.Background(), author))
	before := f.machine.Snapshot()

	snap, err := f.machine.Toggle(context.Background(), author)
	assert.ErrorIs(t, err, ErrSelfLike)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, before, snap)
	assert.Equal(t, before, f.machine.Snapshot())
}

func TestToggleWithoutSessionIsRejected(t *testing.T) {
	f := newFixture(t)
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(4, nil)
	require.NoError(t, f.machine.Seed(context.Background(), nil))

	_, err := f.machine.Toggle(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 4, f.machine.Snapshot().Count)
}

func TestSecondToggleWhilePendingIsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, false)

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

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.machine.Toggle(context.Background(), alice)
		assert.NoError(t, err)
	}()

	<-entered
	pending := f.machine.Snapshot()
	assert.True(t, pending.Pending())
	assert.Equal(t, 6, pending.Count)
	assert.True(t, pending.Liked)

	snap, err := f.machine.Toggle(context.Background(), alice)
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, pending, snap)

	assert.ErrorIs(t, f.machine.Seed(context.Background(), alice), ErrPending)

	// The rejected seed runs once the toggle settles.
	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(6, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(true, nil)

	close(release)
	wg.Wait()

	final := f.machine.Snapshot()
	assert.Equal(t, 6, final.Count)
	assert.True(t, final.Liked)
	assert.False(t, final.Pending())
}

func TestObserversSeeOptimisticThenFinal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, false)

	var seen []Snapshot
	unsubscribe := f.machine.Subscribe(func(s Snapshot) { seen = append(seen, s) })
	defer unsubscribe()

	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(nil)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 2).Return(errors.New("down"))

	_, err := f.machine.Toggle(context.Background(), alice)
	require.Error(t, err)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Pending())
	assert.Equal(t, 2, seen[0].Count)
	assert.True(t, seen[0].Liked)
	assert.Equal(t, 1, seen[1].Count)
	assert.False(t, seen[1].Liked)
	assert.Equal(t, RolledBack, seen[1].Outcome)
}

func TestCompletionAfterCloseIsNotPublished(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 7, false)

	var calls int
	f.machine.Subscribe(func(Snapshot) { calls++ })

	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).DoAndReturn(
		func(context.Context, string, string) error {
			f.machine.Close()
			return nil
		},
	)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 8).Return(nil)

	_, err := f.machine.Toggle(context.Background(), alice)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 1, calls, "only the optimistic snapshot reaches observers")

	assert.ErrorIs(t, f.machine.Seed(context.Background(), alice), ErrClosed)
}

func TestSeedForNewUserRunsAfterPendingToggle(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, false)

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

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.machine.Toggle(context.Background(), alice)
		assert.NoError(t, err)
	}()

	<-entered
	assert.ErrorIs(t, f.machine.Seed(context.Background(), bob), ErrPending)

	f.likes.EXPECT().GetCount(gomock.Any(), postID).Return(6, nil)
	f.userLikes.EXPECT().Exists(gomock.Any(), bob.ID, postID).Return(false, nil)

	close(release)
	<-done

	snap := f.machine.Snapshot()
	assert.Equal(t, 6, snap.Count)
	assert.False(t, snap.Liked, "bob has not liked the post")
	assert.False(t, snap.Pending())
}

func TestSeedFinishingAfterToggleIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 5, false)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.likes.EXPECT().GetCount(gomock.Any(), postID).DoAndReturn(
		func(context.Context, string) (int, error) {
			close(entered)
			<-release
			return 5, nil
		},
	)
	f.userLikes.EXPECT().Exists(gomock.Any(), alice.ID, postID).Return(false, nil)

	seeded := make(chan error, 1)
	go func() { seeded <- f.machine.Seed(context.Background(), alice) }()
	<-entered

	f.userLikes.EXPECT().Create(gomock.Any(), alice.ID, postID).Return(nil)
	f.likes.EXPECT().UpsertCount(gomock.Any(), postID, 6).Return(nil)

	committed, err := f.machine.Toggle(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, Committed, committed.Outcome)

	close(release)
	require.NoError(t, <-seeded)

	snap := f.machine.Snapshot()
	assert.Equal(t, 6, snap.Count)
	assert.True(t, snap.Liked)
	assert.Equal(t, Committed, snap.Outcome)
}
