package commandimpl

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const updateTimeout = time.Minute

const helpMessage = `👋 Welcome to the post viewer bot!

Here are the available commands:

ACCOUNT:
/signup <email> <password> - Create an account.
/signin <email> <password> - Sign in to like and report posts.
/signout - Sign out.

POSTS:
/post <post_id> - Open a post. Use the buttons under it to like or report it.

Type /help at any time to see this guide.`

func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.Config.Telegram.UpdateTimeoutSecs

	updates := c.Telegram.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down.")
			c.Telegram.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly. Restarting handler...")
				return errors.New("telegram updates channel closed")
			}

			go c.handleUpdate(ctx, update)
		}
	}
}

func (c *CommandImpl) handleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	if u.CallbackQuery != nil {
		c.handleCallback(ctx, u.CallbackQuery)
		return
	}

	if u.Message == nil {
		return
	}

	if u.Message.IsCommand() {
		c.Logger.Info("Command received", "chat_id", u.Message.Chat.ID, "command", u.Message.Command())
		if err := c.processCommand(ctx, u.Message); err != nil {
			c.Logger.Error("Error processing command",
				"command", u.Message.Command(),
				"error", err)
		}
		return
	}

	if err := c.processText(ctx, u.Message); err != nil {
		c.Logger.Error("Error processing message", "chat_id", u.Message.Chat.ID, "error", err)
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start", "help":
		_, err := c.Telegram.SendMessage(chatID, helpMessage)
		return err
	}

	ch, err := c.chat(ctx, chatID)
	if err != nil {
		return err
	}

	switch msg.Command() {
	case "signup":
		return c.handleSignUp(ctx, ch, msg, args)
	case "signin":
		return c.handleSignIn(ctx, ch, msg, args)
	case "signout":
		return c.handleSignOut(ctx, ch)
	case "post":
		return c.handlePost(ctx, ch, args)
	default:
		_, err := c.Telegram.SendMessage(chatID, "Unknown command. Type /help to see the list of available commands.")
		return err
	}
}

// processText handles plain messages. The only one expected is the free
// text of an "other" report reason.
func (c *CommandImpl) processText(ctx context.Context, msg *tgbotapi.Message) error {
	ch, err := c.chat(ctx, msg.Chat.ID)
	if err != nil {
		return err
	}

	view, _ := ch.current()
	if view == nil || !ch.takeAwaitingReason() {
		_, err := c.Telegram.SendMessage(msg.Chat.ID, "Type /help to see what I can do.")
		return err
	}

	view.SetCustomReason(msg.Text)
	_, err = c.Telegram.SendMessage(msg.Chat.ID, "Got it. Press Submit under the post to send your report.")
	return err
}
