package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/repositories/reports"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

var ErrNoSession = apperrors.WrapWithCode(apperrors.ErrUnauthorized, apperrors.CodeNoSession, "sign in to report posts")

//go:generate go run go.uber.org/mock/mockgen -source=submitter.go -destination=mocks/mock.go

// Notifier is told about every stored report. Failures never affect the
// submission.
type Notifier interface {
	NotifyReport(ctx context.Context, report domain.Report) error
}

type Opts struct {
	fx.In

	Reports  reports.Repository
	Notifier Notifier `optional:"true"`
	Logger   logger.Logger
}

type Submitter struct {
	reports  reports.Repository
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewSubmitter(opts Opts) *Submitter {
	return &Submitter{
		reports:  opts.Reports,
		notifier: opts.Notifier,
		logger:   opts.Logger.WithComponent("Report"),
		now:      time.Now,
	}
}

// Submit validates form and appends one report for postID. On success the
// form is cleared and closed. On failure the form is left exactly as it was
// so the user can submit again.
func (s *Submitter) Submit(ctx context.Context, form *Form, postID string, user *domain.User) (*domain.Report, error) {
	if err := form.Validate(); err != nil {
		s.logger.Debug("Report rejected by validation", "post_id", postID, "error", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSession
	}

	report := domain.Report{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    user.ID,
		Reason:    form.EffectiveReason(),
		CreatedAt: s.now().UTC(),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.Error("Error submitting report", "post_id", postID, "user_id", user.ID, "error", err)
		return nil, apperrors.Wrap(err, "failed to submit report")
	}

	s.logger.Info("Report submitted", "report_id", report.ID, "post_id", postID, "reason", report.Reason)
	form.Clear()
	form.Close()

	if s.notifier != nil {
		if err := s.notifier.NotifyReport(ctx, report); err != nil {
			s.logger.Warn("Failed to notify moderators about report", "report_id", report.ID, "error", err)
		}
	}

	return &report, nil
}
