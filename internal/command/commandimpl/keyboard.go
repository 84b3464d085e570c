package commandimpl

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/internal/postview"
	"github.com/orgball2608/postview/internal/report"
	apperrors "github.com/orgball2608/postview/pkg/errors"
	"github.com/orgball2608/postview/pkg/formatter"
	"github.com/samber/lo"
)

// Callback data of the view's buttons.
const (
	cbLike         = "like"
	cbReport       = "report"
	cbReasonPrefix = "reason:"
	cbSubmit       = "report:submit"
	cbCancel       = "report:cancel"
	cbRetry        = "retry"
)

// Telegram albums hold at most ten items.
const maxMediaGroup = 10

func likeButton(s postview.State) tgbotapi.InlineKeyboardButton {
	if !s.Like.Seeded {
		return tgbotapi.NewInlineKeyboardButtonData("🤍 –", cbLike)
	}

	heart := "🤍"
	switch {
	case s.Like.Pending():
		heart = "⏳"
	case s.Like.Liked:
		heart = "❤️"
	}
	return tgbotapi.NewInlineKeyboardButtonData(heart+" "+formatter.FormatLikes(s.Like.Count), cbLike)
}

// controlsKeyboard renders the like and report controls, with the report
// dialog unfolded below them while it is open.
func controlsKeyboard(s postview.State) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			likeButton(s),
			tgbotapi.NewInlineKeyboardButtonData("🚩 Report", cbReport),
		),
	}

	if !s.Report.Visible {
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows = append(rows, lo.Map(report.Reasons, func(r report.Reason, _ int) []tgbotapi.InlineKeyboardButton {
		label := r.Label()
		if r == s.Report.Reason {
			label = "✅ " + label
		}
		if r == report.ReasonOther && r == s.Report.Reason && strings.TrimSpace(s.Report.CustomReason) != "" {
			label += ": " + truncate(strings.TrimSpace(s.Report.CustomReason), 32)
		}
		return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, cbReasonPrefix+string(r)))
	})...)

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Submit", cbSubmit),
		tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func retryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔄 Retry", cbRetry)),
	)
}

// captionText renders the post header and caption as MarkdownV2.
func captionText(d *domain.PostDetail) string {
	var sb strings.Builder

	sb.WriteString("*@" + formatter.EscapeMarkdownV2(d.Username) + "*")
	if d.Profile.FullName != "" {
		sb.WriteString(" " + formatter.EscapeMarkdownV2(d.Profile.FullName))
	}
	sb.WriteString(fmt.Sprintf(" [🖼](%s)", linkURL(d.Profile.PictureURL())))

	if d.Post.Caption != "" {
		sb.WriteString("\n\n" + formatter.EscapeMarkdownV2(d.Post.Caption))
	}
	if date := formatter.FormatDate(d.Post.UpdatedAt); date != "" {
		sb.WriteString("\n\n_" + formatter.EscapeMarkdownV2(date) + "_")
	}
	return sb.String()
}

func mediaGroup(post domain.Post) []interface{} {
	urls := lo.Filter(post.FileURLs, func(u string, _ int) bool { return strings.TrimSpace(u) != "" })
	if len(urls) > maxMediaGroup {
		urls = urls[:maxMediaGroup]
	}

	return lo.Map(urls, func(u string, _ int) interface{} {
		file := tgbotapi.FileURL(u)
		if strings.Contains(strings.ToLower(u), ".mp4") {
			return tgbotapi.NewInputMediaVideo(file)
		}
		return tgbotapi.NewInputMediaPhoto(file)
	})
}

// userMessage returns the message of a classified error, or fallback.
func userMessage(err error, fallback string) string {
	var e *apperrors.Error
	if apperrors.As(err, &e) && e.Message != "" {
		return sentence(e.Message)
	}
	return fallback
}

func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

// linkURL escapes what MarkdownV2 reserves inside a link target.
func linkURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(u)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
