package telegramimpl

import (
	"context"
	"fmt"

	"github.com/orgball2608/postview/internal/domain"
	"github.com/orgball2608/postview/pkg/formatter"
)

// NotifyReport forwards a stored report to the moderator chat. Without a
// configured chat it does nothing.
func (tg *TelegramImpl) NotifyReport(ctx context.Context, r domain.Report) error {
	chatID := tg.Config.Telegram.ModeratorChatID
	if chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := tg.SendMarkdown(chatID, reportMessage(r), nil)
	if err != nil {
		return fmt.Errorf("failed to notify moderators: %w", err)
	}

	tg.Logger.Info("Moderators notified", "report_id", r.ID, "post_id", r.PostID)
	return nil
}

func reportMessage(r domain.Report) string {
	return fmt.Sprintf("🚩 *New report*\nPost: %s\nReason: %s\nReporter: %s\nReport ID: %s",
		formatter.EscapeMarkdownV2(r.PostID),
		formatter.EscapeMarkdownV2(r.Reason),
		formatter.EscapeMarkdownV2(r.UserID),
		formatter.EscapeMarkdownV2(r.ID.String()),
	)
}
