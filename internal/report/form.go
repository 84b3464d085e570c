package report

import (
	"strings"

	apperrors "github.com/orgball2608/postview/pkg/errors"
)

var (
	ErrReasonRequired       = apperrors.WrapWithCode(apperrors.ErrInvalidInput, apperrors.CodeValidation, "select a report reason")
	ErrCustomReasonRequired = apperrors.WrapWithCode(apperrors.ErrInvalidInput, apperrors.CodeValidation, "describe the reason for reporting")
	ErrUnknownReason        = apperrors.WrapWithCode(apperrors.ErrInvalidInput, apperrors.CodeValidation, "unknown report reason")
)

// Form is the report dialog's state. The zero value is a closed, empty form.
type Form struct {
	Visible      bool
	Reason       Reason
	CustomReason string
}

func (f *Form) Open()   { f.Visible = true }
func (f *Form) Close()  { f.Visible = false }
func (f *Form) Toggle() { f.Visible = !f.Visible }

// Clear empties the fields; visibility is left alone.
func (f *Form) Clear() {
	f.Reason = ""
	f.CustomReason = ""
}

// Validate checks the form without touching the store.
func (f Form) Validate() error {
	if f.Reason == "" {
		return ErrReasonRequired
	}
	if !f.Reason.Valid() {
		return ErrUnknownReason
	}
	if f.Reason == ReasonOther && strings.TrimSpace(f.CustomReason) == "" {
		return ErrCustomReasonRequired
	}
	return nil
}

// EffectiveReason is the text stored for the report: the free text when the
// reason is "other", the reason itself otherwise.
func (f Form) EffectiveReason() string {
	if f.Reason == ReasonOther {
		return strings.TrimSpace(f.CustomReason)
	}
	return string(f.Reason)
}
