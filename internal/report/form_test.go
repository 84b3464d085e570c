package report

import (
	"testing"

	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		form Form
		want error
	}{
		{"no reason", Form{}, ErrReasonRequired},
		{"other without text", Form{Reason: ReasonOther}, ErrCustomReasonRequired},
		{"other with blank text", Form{Reason: ReasonOther, CustomReason: "   "}, ErrCustomReasonRequired},
		{"unknown reason", Form{Reason: "boring"}, ErrUnknownReason},
		{"spam", Form{Reason: ReasonSpam}, nil},
		{"other with text", Form{Reason: ReasonOther, CustomReason: "impersonation"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.form.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, apperrors.IsInvalidInput(err))
		})
	}
}

func TestEffectiveReason(t *testing.T) {
	assert.Equal(t, "spam", Form{Reason: ReasonSpam, CustomReason: "ignored"}.EffectiveReason())
	assert.Equal(t, "impersonation", Form{Reason: ReasonOther, CustomReason: " impersonation "}.EffectiveReason())
}

func TestParseReason(t *testing.T) {
	r, ok := ParseReason("false-information")
	assert.True(t, ok)
	assert.Equal(t, ReasonFalseInformation, r)

	r, ok = ParseReason("Off Topic")
	assert.True(t, ok)
	assert.Equal(t, ReasonOffTopic, r)

	_, ok = ParseReason("nope")
	assert.False(t, ok)
}

func TestFormVisibility(t *testing.T) {
	var f Form
	f.Toggle()
	assert.True(t, f.Visible)
	f.Reason = ReasonSpam
	f.Clear()
	assert.True(t, f.Visible)
	assert.Empty(t, f.Reason)
	f.Close()
	assert.False(t, f.Visible)
}
