package commandimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/postview/internal/identity"
)

func parseCredentials(args string) (identity.Credentials, bool) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return identity.Credentials{}, false
	}
	return identity.Credentials{Email: fields[0], Password: fields[1]}, true
}

// forgetCredentials removes the command message so the password does not
// stay in the chat history.
func (c *CommandImpl) forgetCredentials(msg *tgbotapi.Message) {
	_ = c.Telegram.DeleteMessage(msg.Chat.ID, msg.MessageID)
}

func (c *CommandImpl) handleSignUp(ctx context.Context, ch *chat, msg *tgbotapi.Message, args string) error {
	creds, ok := parseCredentials(args)
	if !ok {
		_, err := c.Telegram.SendMessage(ch.id, "Please provide an email and a password: /signup <email> <password>")
		return err
	}
	c.forgetCredentials(msg)

	session, err := ch.session.SignUp(ctx, creds)
	if err != nil {
		c.Logger.Warn("Sign-up failed", "chat_id", ch.id, "error", err)
		_, sendErr := c.Telegram.SendMessage(ch.id, "❌ Sign-up failed: "+userMessage(err, "please try again later."))
		return sendErr
	}

	if session == nil {
		_, err = c.Telegram.SendMessage(ch.id, "📧 Check your inbox to confirm your email, then /signin.")
		return err
	}

	_, err = c.Telegram.SendMessage(ch.id, fmt.Sprintf("✅ Account created. Signed in as %s.", session.User.Email))
	return err
}

func (c *CommandImpl) handleSignIn(ctx context.Context, ch *chat, msg *tgbotapi.Message, args string) error {
	creds, ok := parseCredentials(args)
	if !ok {
		_, err := c.Telegram.SendMessage(ch.id, "Please provide an email and a password: /signin <email> <password>")
		return err
	}
	c.forgetCredentials(msg)

	session, err := ch.session.SignIn(ctx, creds)
	if err != nil {
		c.Logger.Warn("Sign-in failed", "chat_id", ch.id, "error", err)
		_, sendErr := c.Telegram.SendMessage(ch.id, "❌ Sign-in failed: "+userMessage(err, "please try again later."))
		return sendErr
	}

	_, err = c.Telegram.SendMessage(ch.id, fmt.Sprintf("✅ Signed in as %s.", session.User.Email))
	return err
}

func (c *CommandImpl) handleSignOut(ctx context.Context, ch *chat) error {
	if ch.session.CurrentUser() == nil {
		_, err := c.Telegram.SendMessage(ch.id, "You are not signed in.")
		return err
	}

	// The local session is gone even when the remote call fails.
	if err := ch.session.SignOut(ctx); err != nil {
		c.Logger.Warn("Remote sign-out failed", "chat_id", ch.id, "error", err)
	}

	_, err := c.Telegram.SendMessage(ch.id, "👋 Signed out.")
	return err
}
