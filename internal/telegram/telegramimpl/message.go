package telegramimpl

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SendMessage sends a plain text message to a specific chat ID
func (tg *TelegramImpl) SendMessage(chatID int64, text string) (int, error) {
	if err := tg.pace(chatID); err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	tg.Logger.Debug("Message sent",
		"chatID", chatID,
		"messageID", sentMsg.MessageID)
	return sentMsg.MessageID, nil
}

// SendMarkdown sends MarkdownV2 text. Callers escape user content.
func (tg *TelegramImpl) SendMarkdown(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	if err := tg.pace(chatID); err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending markdown message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sentMsg.MessageID, nil
}

// SendMediaGroup sends up to ten photos or videos as one album. Albums need
// at least two items, so a single one goes out as a plain photo or video.
func (tg *TelegramImpl) SendMediaGroup(chatID int64, media []interface{}) error {
	if len(media) == 0 {
		return nil
	}
	if err := tg.pace(chatID); err != nil {
		return fmt.Errorf("failed to send media group: %w", err)
	}

	if len(media) == 1 {
		if single, ok := singleMedia(chatID, media[0]); ok {
			if _, err := tg.TgBot.Send(single); err != nil {
				tg.Logger.Error("Error sending media",
					"chatID", chatID,
					"error", err)
				return fmt.Errorf("failed to send media: %w", err)
			}
			return nil
		}
	}

	if _, err := tg.TgBot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
		tg.Logger.Error("Error sending media group",
			"chatID", chatID,
			"count", len(media),
			"error", err)
		return fmt.Errorf("failed to send media group: %w", err)
	}
	return nil
}

// EditMessageText replaces the text, and optionally the keyboard, of a sent
// message. The text is sent as plain text.
func (tg *TelegramImpl) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if err := tg.pace(chatID); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup

	if _, err := tg.TgBot.Request(edit); err != nil && !notModified(err) {
		tg.Logger.Error("Error editing message",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// EditMarkup swaps the inline keyboard of a sent message.
func (tg *TelegramImpl) EditMarkup(chatID int64, messageID int, markup tgbotapi.InlineKeyboardMarkup) error {
	if err := tg.pace(chatID); err != nil {
		return fmt.Errorf("failed to edit keyboard: %w", err)
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, markup)

	if _, err := tg.TgBot.Request(edit); err != nil && !notModified(err) {
		tg.Logger.Error("Error editing keyboard",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to edit keyboard: %w", err)
	}
	return nil
}

func (tg *TelegramImpl) DeleteMessage(chatID int64, messageID int) error {
	// Request instead of Send: the API answers with a bool, not a Message.
	if _, err := tg.TgBot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		tg.Logger.Warn("Error deleting message",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, removing its loading state.
func (tg *TelegramImpl) AnswerCallback(callbackID, text string, alert bool) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	callback.ShowAlert = alert

	if _, err := tg.TgBot.Request(callback); err != nil {
		tg.Logger.Warn("Error answering callback", "error", err)
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

// GetUpdatesChan wraps the bot's GetUpdatesChan method
func (tg *TelegramImpl) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return tg.TgBot.GetUpdatesChan(u)
}

func (tg *TelegramImpl) StopReceivingUpdates() {
	tg.TgBot.StopReceivingUpdates()
}

func singleMedia(chatID int64, item interface{}) (tgbotapi.Chattable, bool) {
	switch m := item.(type) {
	case tgbotapi.InputMediaPhoto:
		return tgbotapi.NewPhoto(chatID, m.Media), true
	case tgbotapi.InputMediaVideo:
		return tgbotapi.NewVideo(chatID, m.Media), true
	}
	return nil, false
}

// Telegram rejects edits that leave a message unchanged.
func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
