package commandimpl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/postview/internal/like"
	"github.com/orgball2608/postview/internal/postview"
	"github.com/orgball2608/postview/internal/report"
	apperrors "github.com/orgball2608/postview/pkg/errors"
)

const expiredMessage = "This post is no longer open. Send /post <post_id> again."

func (c *CommandImpl) handlePost(ctx context.Context, ch *chat, args string) error {
	postID := strings.TrimSpace(args)
	if postID == "" {
		_, err := c.Telegram.SendMessage(ch.id, "Please provide a post id: /post <post_id>")
		return err
	}

	view := c.Views.New(postID, ch.session)
	ch.open(view, view.Subscribe(func(s postview.State) {
		c.renderControls(ch, view, s)
	}))

	return c.mountView(ctx, ch, view)
}

// mountView loads view behind a placeholder message and renders the outcome:
// the post with its controls, a not-found notice, or a retry button.
func (c *CommandImpl) mountView(ctx context.Context, ch *chat, view *postview.View) error {
	loadingID, err := c.Telegram.SendMessage(ch.id, "Loading post... ⏳")
	if err != nil {
		return fmt.Errorf("failed to send initial message: %w", err)
	}

	mountErr := view.Mount(ctx)
	if errors.Is(mountErr, like.ErrClosed) {
		_ = c.Telegram.DeleteMessage(ch.id, loadingID)
		return nil
	}

	state := view.State()
	switch state.Status {
	case postview.StatusNotFound:
		return c.Telegram.EditMessageText(ch.id, loadingID, fmt.Sprintf("Post not found (%d)", state.Code), nil)
	case postview.StatusFailed:
		markup := retryKeyboard()
		if err := c.Telegram.EditMessageText(ch.id, loadingID, "❌ Couldn't load this post right now.", &markup); err != nil {
			return err
		}
		return mountErr
	}

	_ = c.Telegram.DeleteMessage(ch.id, loadingID)

	if media := mediaGroup(state.Post.Post); len(media) > 0 {
		if err := c.Telegram.SendMediaGroup(ch.id, media); err != nil {
			c.Logger.Error("Failed to send post media", "post_id", view.PostID(), "error", err)
		}
	}

	markup := controlsKeyboard(state)
	messageID, err := c.Telegram.SendMarkdown(ch.id, captionText(state.Post), &markup)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	if ch.view == view {
		ch.messageID = messageID
		ch.lastMarkup = markupKey(markup)
	}
	ch.mu.Unlock()

	// Anything published while the message was in flight.
	c.renderControls(ch, view, view.State())
	return nil
}

// renderControls brings the keyboard under the post in line with s.
func (c *CommandImpl) renderControls(ch *chat, view *postview.View, s postview.State) {
	if s.Status != postview.StatusReady {
		return
	}

	markup := controlsKeyboard(s)
	key := markupKey(markup)

	ch.mu.Lock()
	if ch.view != view || ch.messageID == 0 || ch.lastMarkup == key {
		ch.mu.Unlock()
		return
	}
	ch.lastMarkup = key
	messageID := ch.messageID
	ch.mu.Unlock()

	if err := c.Telegram.EditMarkup(ch.id, messageID, markup); err != nil {
		c.Logger.Warn("Failed to update post controls", "chat_id", ch.id, "error", err)
	}
}

func (c *CommandImpl) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		_ = c.Telegram.AnswerCallback(q.ID, "", false)
		return
	}

	ch, err := c.chat(ctx, q.Message.Chat.ID)
	if err != nil {
		c.Logger.Error("Failed to open chat session", "chat_id", q.Message.Chat.ID, "error", err)
		return
	}

	view, messageID := ch.current()
	if view == nil || (q.Data != cbRetry && q.Message.MessageID != messageID) {
		_ = c.Telegram.AnswerCallback(q.ID, expiredMessage, false)
		return
	}

	text, alert := c.dispatchCallback(ctx, ch, view, q)
	_ = c.Telegram.AnswerCallback(q.ID, text, alert)
}

// dispatchCallback runs the action behind a button and returns the answer to
// show the user.
func (c *CommandImpl) dispatchCallback(ctx context.Context, ch *chat, view *postview.View, q *tgbotapi.CallbackQuery) (string, bool) {
	switch data := q.Data; {
	case data == cbLike:
		_, err := view.ToggleLike(ctx)
		return likeAnswer(err)

	case data == cbReport:
		view.ToggleReport()
		return "", false

	case strings.HasPrefix(data, cbReasonPrefix):
		reason, ok := report.ParseReason(strings.TrimPrefix(data, cbReasonPrefix))
		if !ok {
			return "Unknown reason.", false
		}
		view.OpenReport()
		view.SetReportReason(reason)
		if reason != report.ReasonOther {
			ch.setAwaitingReason(false)
			return "", false
		}
		ch.setAwaitingReason(true)
		if _, err := c.Telegram.SendMessage(ch.id, "✏️ Describe the reason for reporting in your next message."); err != nil {
			c.Logger.Warn("Failed to prompt for custom reason", "chat_id", ch.id, "error", err)
		}
		return "", false

	case data == cbSubmit:
		if _, err := view.SubmitReport(ctx); err != nil {
			return userMessage(err, "Couldn't submit the report. Please try again."), true
		}
		ch.setAwaitingReason(false)
		return "✅ Thanks, your report was submitted.", false

	case data == cbCancel:
		view.CloseReport()
		ch.setAwaitingReason(false)
		return "", false

	case data == cbRetry:
		_ = c.Telegram.DeleteMessage(ch.id, q.Message.MessageID)
		if err := c.mountView(ctx, ch, view); err != nil {
			c.Logger.Warn("Retry failed", "chat_id", ch.id, "post_id", view.PostID(), "error", err)
		}
		return "", false
	}

	c.Logger.Warn("Unknown callback data", "chat_id", ch.id, "data", q.Data)
	return "", false
}

func likeAnswer(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, like.ErrNoSession):
		return "Sign in to like posts: /signin <email> <password>", true
	case errors.Is(err, like.ErrSelfLike):
		return "You can't like your own post.", false
	case errors.Is(err, like.ErrPending):
		return "Still saving your last like...", false
	case errors.Is(err, like.ErrNotSeeded), errors.Is(err, postview.ErrNotReady):
		return "Likes are unavailable right now.", false
	case errors.Is(err, like.ErrClosed):
		return expiredMessage, false
	case apperrors.IsConflict(err):
		return "Couldn't save your like. Please try again.", false
	default:
		return "Something went wrong. Please try again.", false
	}
}
