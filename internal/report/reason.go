package report

import "strings"

type Reason string

// Stored values of the fixed reasons, as written to reports.report_reason.
const (
	ReasonSpam             Reason = "spam"
	ReasonInappropriate    Reason = "inappropriate"
	ReasonAbusive          Reason = "abusive"
	ReasonFalseInformation Reason = "false information"
	ReasonOffTopic         Reason = "off topic"
	ReasonOther            Reason = "other"
)

// Reasons lists the choices in the order the report dialog shows them.
var Reasons = []Reason{
	ReasonSpam,
	ReasonInappropriate,
	ReasonAbusive,
	ReasonFalseInformation,
	ReasonOffTopic,
	ReasonOther,
}

var labels = map[Reason]string{
	ReasonSpam:             "It's spam",
	ReasonInappropriate:    "It's inappropriate",
	ReasonAbusive:          "It's abusive or harmful",
	ReasonFalseInformation: "It contains false information",
	ReasonOffTopic:         "It's off-topic",
	ReasonOther:            "Other",
}

// Label is the human readable choice text.
func (r Reason) Label() string {
	if l, ok := labels[r]; ok {
		return l
	}
	return string(r)
}

func (r Reason) Valid() bool {
	_, ok := labels[r]
	return ok
}

// ParseReason accepts the stored value or its hyphenated form
// ("false-information", "off-topic"), case-insensitively.
func ParseReason(s string) (Reason, bool) {
	norm := Reason(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", " "))
	if norm.Valid() {
		return norm, true
	}
	return "", false
}
