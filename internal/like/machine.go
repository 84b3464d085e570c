package like

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/repositories"
	"github.com/orgball2608/postview/internal/repositories/likes"
	"github.com/orgball2608/postview/internal/repositories/userlikes"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSession = apperrors.WrapWithCode(apperrors.ErrUnauthorized, apperrors.CodeNoSession, "sign in to like posts")
	ErrSelfLike  = apperrors.Wrap(apperrors.ErrForbidden, "cannot like your own post")
	ErrPending   = errors.New("a like toggle is already in flight")
	ErrNotSeeded = errors.New("like state has not been loaded")
	ErrClosed    = errors.New("like machine is closed")
)

// Observer receives every published snapshot.
type Observer func(Snapshot)

type Opts struct {
	fx.In

	Likes     likes.Repository
	UserLikes userlikes.Repository
	Tx        repositories.Transactor
	Logger    logger.Logger
}

// Factory builds one Machine per mounted post view.
type Factory struct {
	likes     likes.Repository
	userLikes userlikes.Repository
	tx        repositories.Transactor
	logger    logger.Logger
}

func NewFactory(opts Opts) *Factory {
	return &Factory{
		likes:     opts.Likes,
		userLikes: opts.UserLikes,
		tx:        opts.Tx,
		logger:    opts.Logger.WithComponent("Like"),
	}
}

// New returns an unseeded machine for postID written by authorID.
func (f *Factory) New(postID, authorID string) *Machine {
	return &Machine{
		postID:    postID,
		authorID:  authorID,
		likes:     f.likes,
		userLikes: f.userLikes,
		tx:        f.tx,
		logger:    f.logger,
		observers: make(map[int]Observer),
	}
}

type deferredSeed struct {
	user *domain.User
}

// Machine reconciles the optimistic like state of one post with the store.
type Machine struct {
	postID   string
	authorID string

	likes     likes.Repository
	userLikes userlikes.Repository
	tx        repositories.Transactor
	logger    logger.Logger

	mu     sync.Mutex
	state  Snapshot
	closed bool
	// version increments on every toggle and seed so stale seed results
	// can be recognised.
	version uint64
	// reseed holds a seed that arrived while a toggle was pending. It runs
	// once that toggle settles.
	reseed    *deferredSeed
	observers map[int]Observer
	nextObsID int
}

func (m *Machine) PostID() string { return m.postID }

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn and returns a function that removes it.
func (m *Machine) Subscribe(fn Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return func() {}
	}

	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Close detaches the machine from its view. Writes already issued still
// complete in the store, but their results are no longer published.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.observers = nil
}

// Seed loads the authoritative count and, when user is set, whether user
// likes the post. Both reads run concurrently; the machine is seeded only
// once both succeed. While a toggle is pending Seed returns ErrPending and
// runs again for the latest user once the toggle settles.
func (m *Machine) Seed(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state.Pending() {
		m.reseed = &deferredSeed{user: user}
		m.mu.Unlock()
		return ErrPending
	}
	m.version++
	version := m.version
	m.mu.Unlock()

	var (
		count int
		liked bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := m.likes.GetCount(gctx, m.postID)
		if err != nil {
			return fmt.Errorf("failed to fetch like count: %w", err)
		}
		count = n
		return nil
	})
	if user != nil {
		g.Go(func() error {
			ok, err := m.userLikes.Exists(gctx, user.ID, m.postID)
			if err != nil {
				return fmt.Errorf("failed to fetch like status: %w", err)
			}
			liked = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		m.logger.Error("Seeding like state failed", "post_id", m.postID, "error", err)
		return apperrors.Join(apperrors.ErrServiceUnavailable, err)
	}

	m.mu.Lock()
	if m.closed || m.version != version {
		if !m.closed && m.state.Pending() && m.reseed == nil {
			m.reseed = &deferredSeed{user: user}
		}
		m.mu.Unlock()
		m.logger.Debug("Discarding stale like seed", "post_id", m.postID)
		return nil
	}
	m.state = Snapshot{Count: max(count, 0), Liked: liked, Phase: Idle, Seeded: true}
	snap, observers := m.state, m.observerList()
	m.mu.Unlock()

	notify(observers, snap)
	return nil
}

// Toggle flips the like state optimistically, then writes the relation
// change and the new count in one store transaction. If the transaction
// fails the pre-toggle snapshot is restored exactly.
func (m *Machine) Toggle(ctx context.Context, user *domain.User) (Snapshot, error) {
	m.mu.Lock()
	if err := m.guard(user); err != nil {
		snap := m.state
		m.mu.Unlock()
		return snap, err
	}

	before := m.state
	optimistic := before.toggled()
	m.state = optimistic
	m.version++
	observers := m.observerList()
	m.mu.Unlock()

	notify(observers, optimistic)

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		if optimistic.Liked {
			if err := m.userLikes.Create(ctx, user.ID, m.postID); err != nil {
				return fmt.Errorf("failed to like post: %w", err)
			}
		} else {
			if err := m.userLikes.Delete(ctx, user.ID, m.postID); err != nil {
				return fmt.Errorf("failed to unlike post: %w", err)
			}
		}

		if err := m.likes.UpsertCount(ctx, m.postID, optimistic.Count); err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}
		return nil
	})

	var final Snapshot
	if err != nil {
		final = before.settle(RolledBack)
	} else {
		final = optimistic.settle(Committed)
	}

	m.mu.Lock()
	if m.closed {
		m.reseed = nil
		m.mu.Unlock()
		m.logger.Debug("Like toggle finished after view closed", "post_id", m.postID, "outcome", final.Outcome.String())
		if err != nil {
			return final, apperrors.Join(ErrClosed, err)
		}
		return final, ErrClosed
	}
	m.state = final
	observers = m.observerList()
	reseed := m.reseed
	m.reseed = nil
	m.mu.Unlock()

	notify(observers, final)

	if reseed != nil {
		if serr := m.Seed(ctx, reseed.user); serr != nil && !errors.Is(serr, ErrClosed) {
			m.logger.Warn("Deferred like seed failed", "post_id", m.postID, "error", serr)
		}
	}

	if err != nil {
		m.logger.Error("Like toggle rolled back", "post_id", m.postID, "user_id", user.ID, "error", err)
		return final, apperrors.WrapWithCode(apperrors.Join(apperrors.ErrConflict, err), apperrors.CodeConflict, "like toggle rolled back")
	}

	m.logger.Info("Like toggle committed", "post_id", m.postID, "user_id", user.ID, "liked", final.Liked, "like_count", final.Count)
	return final, nil
}

// guard must be called with mu held.
func (m *Machine) guard(user *domain.User) error {
	switch {
	case m.closed:
		return ErrClosed
	case user == nil:
		return ErrNoSession
	case user.ID == m.authorID:
		return ErrSelfLike
	case !m.state.Seeded:
		return ErrNotSeeded
	case m.state.Pending():
		return ErrPending
	}
	return nil
}

// observerList must be called with mu held.
func (m *Machine) observerList() []Observer {
	list := make([]Observer, 0, len(m.observers))
	for i := 0; i < m.nextObsID; i++ {
		if fn, ok := m.observers[i]; ok {
			list = append(list, fn)
		}
	}
	return list
}

func notify(observers []Observer, snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
