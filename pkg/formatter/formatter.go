package formatter

import (
	"strconv"
	"strings"
	"time"
)

// FormatNumber groups thousands with commas: 1234567 -> "1,234,567".
func FormatNumber(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var sb strings.Builder
	sb.WriteString(sign)
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	return sb.String()
}

// FormatLikes renders a like counter the way the post page labels it.
func FormatLikes(n int) string {
	if n == 1 {
		return "1 like"
	}
	return FormatNumber(n) + " likes"
}

// FormatDate renders a post's last-updated timestamp, e.g. "March 4, 2024".
// The zero time renders as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// EscapeMarkdownV2 escapes the characters Telegram reserves in MarkdownV2.
func EscapeMarkdownV2(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune("_*[]()~`>#+-=|{}.!\\", r) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
