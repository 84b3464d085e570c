// Package postview composes post resolution, like reconciliation and report
// submission into the state of one post page.
package postview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/like"
	"github.com/orgball2608/postview/internal/report"
	"github.com/orgball2608/postview/internal/resolver"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

var (
	ErrNotReady   = errors.New("post is not loaded")
	ErrSubmitting = apperrors.Wrap(apperrors.ErrConflict, "your report is already being submitted")
)

const reseedTimeout = 10 * time.Second

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// State is a copy of everything the page renders.
type State struct {
	Status Status
	// Code is set with StatusNotFound.
	Code int
	// Err is set with StatusFailed. Mount may be called again.
	Err    error
	Post   *domain.PostDetail
	Like   like.Snapshot
	Report report.Form
}

// Users is the part of the session provider a view needs.
type Users interface {
	CurrentUser() *domain.User
	Subscribe(fn func(*domain.User)) func()
}

type Opts struct {
	fx.In

	Resolver  *resolver.Resolver
	Likes     *like.Factory
	Submitter *report.Submitter
	Logger    logger.Logger
}

type Factory struct {
	resolver  *resolver.Resolver
	likes     *like.Factory
	submitter *report.Submitter
	logger    logger.Logger
}

func NewFactory(opts Opts) *Factory {
	return &Factory{
		resolver:  opts.Resolver,
		likes:     opts.Likes,
		submitter: opts.Submitter,
		logger:    opts.Logger.WithComponent("PostView"),
	}
}

func (f *Factory) New(postID string, users Users) *View {
	return &View{
		postID:    postID,
		users:     users,
		resolver:  f.resolver,
		likes:     f.likes,
		submitter: f.submitter,
		logger:    f.logger,
		observers: make(map[int]func(State)),
	}
}

type View struct {
	postID    string
	users     Users
	resolver  *resolver.Resolver
	likes     *like.Factory
	submitter *report.Submitter
	logger    logger.Logger

	mu          sync.Mutex
	status      Status
	code        int
	err         error
	detail      *domain.PostDetail
	form        report.Form
	submitting  bool
	machine     *like.Machine
	detach      []func()
	unmounted   bool
	observers   map[int]func(State)
	nextObsID   int
	lastTouched time.Time
}

func (v *View) PostID() string { return v.postID }

// Mount resolves the post and seeds its like state. It returns the
// resolution error, if any; a like seeding failure only leaves the like
// state unseeded.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return like.ErrClosed
	}
	v.release()
	v.status, v.code, v.err, v.detail = StatusLoading, 0, nil, nil
	v.touch()
	v.mu.Unlock()
	v.publish()

	detail, err := v.resolver.Resolve(ctx, v.postID)
	if err != nil {
		v.mu.Lock()
		var nf *resolver.NotFoundError
		if errors.As(err, &nf) {
			v.status, v.code = StatusNotFound, nf.Code
		} else {
			v.status, v.err = StatusFailed, err
		}
		v.mu.Unlock()
		v.publish()
		return err
	}

	machine := v.likes.New(v.postID, detail.Post.UserID)

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		machine.Close()
		return like.ErrClosed
	}
	v.status, v.detail, v.machine = StatusReady, detail, machine
	v.detach = append(v.detach,
		machine.Subscribe(func(like.Snapshot) { v.publish() }),
		v.users.Subscribe(v.reseed),
	)
	v.mu.Unlock()
	v.publish()

	if err := machine.Seed(ctx, v.users.CurrentUser()); err != nil {
		v.logger.Warn("Like state unavailable", "post_id", v.postID, "error", err)
	}
	return nil
}

// Unmount releases the like machine and the session subscription. Further
// calls are no-ops.
func (v *View) Unmount() {
	v.mu.Lock()
	v.unmounted = true
	v.release()
	v.observers = make(map[int]func(State))
	v.mu.Unlock()
}

// release must be called with mu held.
func (v *View) release() {
	for _, fn := range v.detach {
		fn()
	}
	v.detach = nil
	if v.machine != nil {
		v.machine.Close()
		v.machine = nil
	}
}

func (v *View) reseed(user *domain.User) {
	v.mu.Lock()
	machine := v.machine
	v.mu.Unlock()
	if machine == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reseedTimeout)
		defer cancel()
		switch err := machine.Seed(ctx, user); {
		case err == nil, errors.Is(err, like.ErrClosed):
		case errors.Is(err, like.ErrPending):
			v.logger.Debug("Like reload deferred until toggle settles", "post_id", v.postID)
		default:
			v.logger.Warn("Failed to reload like state after sign-in change", "post_id", v.postID, "error", err)
		}
	}()
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *View) stateLocked() State {
	s := State{
		Status: v.status,
		Code:   v.code,
		Err:    v.err,
		Report: v.form,
	}
	if v.detail != nil {
		d := *v.detail
		d.Post.FileURLs = append([]string(nil), v.detail.Post.FileURLs...)
		s.Post = &d
	}
	if v.machine != nil {
		s.Like = v.machine.Snapshot()
	}
	return s
}

// Subscribe registers fn for every state change and returns its cancel func.
func (v *View) Subscribe(fn func(State)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextObsID
	v.nextObsID++
	v.observers[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.observers, id)
	}
}

func (v *View) publish() {
	v.mu.Lock()
	state := v.stateLocked()
	observers := make([]func(State), 0, len(v.observers))
	for i := 0; i < v.nextObsID; i++ {
		if fn, ok := v.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

// IdleSince reports the last time the view was used.
func (v *View) IdleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastTouched
}

// touch must be called with mu held.
func (v *View) touch() { v.lastTouched = time.Now() }

func (v *View) ToggleLike(ctx context.Context) (like.Snapshot, error) {
	v.mu.Lock()
	machine := v.machine
	v.touch()
	v.mu.Unlock()

	if machine == nil {
		return like.Snapshot{}, ErrNotReady
	}
	return machine.Toggle(ctx, v.users.CurrentUser())
}

func (v *View) OpenReport()   { v.editForm(func(f *report.Form) { f.Open() }) }
func (v *View) CloseReport()  { v.editForm(func(f *report.Form) { f.Close() }) }
func (v *View) ToggleReport() { v.editForm(func(f *report.Form) { f.Toggle() }) }

func (v *View) SetReportReason(r report.Reason) {
	v.editForm(func(f *report.Form) { f.Reason = r })
}

func (v *View) SetCustomReason(text string) {
	v.editForm(func(f *report.Form) { f.CustomReason = text })
}

func (v *View) editForm(fn func(*report.Form)) {
	v.mu.Lock()
	fn(&v.form)
	v.touch()
	v.mu.Unlock()
	v.publish()
}

// SubmitReport stores a report built from the current form. Only one
// submission runs at a time; a second one gets ErrSubmitting. The form is
// cleared and closed only on success, and only if it was not edited while
// the report was being stored.
func (v *View) SubmitReport(ctx context.Context) (*domain.Report, error) {
	v.mu.Lock()
	if v.submitting {
		v.mu.Unlock()
		return nil, ErrSubmitting
	}
	v.submitting = true
	submitted := v.form
	v.touch()
	v.mu.Unlock()

	form := submitted
	created, err := v.submitter.Submit(ctx, &form, v.postID, v.users.CurrentUser())

	v.mu.Lock()
	v.submitting = false
	if err == nil && v.form == submitted {
		v.form = form
	}
	v.mu.Unlock()

	if err != nil {
		return nil, err
	}
	v.publish()

	return created, nil
}
