package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgball2608/postview/internal/domain"
	mock_reports "github.com/orgball2608/postview/internal/repositories/reports/mocks"
	mock_report "github.com/orgball2608/postview/internal/report/mocks"
	"github.com/orgball2608/postview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var bob = &domain.User{ID: "U7"}

func newSubmitter(t *testing.T, withNotifier bool) (*Submitter, *mock_reports.MockRepository, *mock_report.MockNotifier) {
	ctrl := gomock.NewController(t)
	repo := mock_reports.NewMockRepository(ctrl)
	opts := Opts{Reports: repo, Logger: logger.NewNop()}

	var notifier *mock_report.MockNotifier
	if withNotifier {
		notifier = mock_report.NewMockNotifier(ctrl)
		opts.Notifier = notifier
	}

	s := NewSubmitter(opts)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s, repo, notifier
}

func TestSubmitSpamAppendsOneReport(t *testing.T) {
	s, repo, _ := newSubmitter(t, false)
	form := &Form{Visible: true, Reason: ReasonSpam}

	var stored domain.Report
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.Report) error {
			stored = r
			return nil
		},
	).Times(1)

	report, err := s.Submit(context.Background(), form, "P1", bob)
	require.NoError(t, err)
	assert.Equal(t, "spam", stored.Reason)
	assert.Equal(t, "P1", stored.PostID)
	assert.Equal(t, "U7", stored.UserID)
	assert.Equal(t, stored, *report)
	assert.Equal(t, Form{}, *form, "form is cleared and closed")
}

func TestSubmitOtherWithoutTextNeverWrites(t *testing.T) {
	s, repo, _ := newSubmitter(t, false)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	form := &Form{Visible: true, Reason: ReasonOther}
	_, err := s.Submit(context.Background(), form, "P1", bob)
	assert.ErrorIs(t, err, ErrCustomReasonRequired)
	assert.True(t, form.Visible)
}

func TestSubmitOtherStoresCustomText(t *testing.T) {
	s, repo, _ := newSubmitter(t, false)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.Report) error {
			assert.Equal(t, "selling fake tickets", r.Reason)
			return nil
		},
	)

	form := &Form{Visible: true, Reason: ReasonOther, CustomReason: "selling fake tickets"}
	_, err := s.Submit(context.Background(), form, "P1", bob)
	require.NoError(t, err)
}

func TestSubmitFailureKeepsFormIntact(t *testing.T) {
	s, repo, _ := newSubmitter(t, false)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

	form := &Form{Visible: true, Reason: ReasonOther, CustomReason: "scam"}
	before := *form

	_, err := s.Submit(context.Background(), form, "P1", bob)
	require.Error(t, err)
	assert.Equal(t, before, *form)
}

func TestSubmitWithoutSession(t *testing.T) {
	s, repo, _ := newSubmitter(t, false)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.Submit(context.Background(), &Form{Reason: ReasonAbusive}, "P1", nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNotifierFailureDoesNotFailSubmission(t *testing.T) {
	s, repo, notifier := newSubmitter(t, true)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	notifier.EXPECT().NotifyReport(gomock.Any(), gomock.Any()).Return(errors.New("telegram down"))

	form := &Form{Visible: true, Reason: ReasonOffTopic}
	report, err := s.Submit(context.Background(), form, "P1", bob)
	require.NoError(t, err)
	assert.Equal(t, "off topic", report.Reason)
	assert.False(t, form.Visible)
}
