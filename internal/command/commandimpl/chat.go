package commandimpl

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/postview/internal/identity"
	"github.com/orgball2608/postview/internal/postview"
	"github.com/orgball2608/postview/internal/session"
)

// chat is the rendering session of one Telegram chat: its signed-in user and
// the post view currently open in it.
type chat struct {
	id       int64
	identity identity.Client
	session  *session.Provider

	mu          sync.Mutex
	view        *postview.View
	unsubscribe func()
	// messageID is the message carrying the view's keyboard.
	messageID      int
	lastMarkup     string
	awaitingReason bool
}

// chat returns the session of chatID, creating and starting it on first use.
func (c *CommandImpl) chat(ctx context.Context, chatID int64) (*chat, error) {
	c.mu.Lock()
	ch, ok := c.chats[chatID]
	if !ok {
		client := c.Identity.NewClient()
		ch = &chat{
			id:       chatID,
			identity: client,
			session:  session.New(client, c.Logger),
		}
		c.chats[chatID] = ch
	}
	c.mu.Unlock()

	if !ok {
		ch.session.Start(ctx)
	}
	if err := ch.session.Wait(ctx); err != nil {
		return nil, err
	}
	return ch, nil
}

// open makes view the chat's current view and closes the previous one.
func (ch *chat) open(view *postview.View, unsubscribe func()) {
	ch.mu.Lock()
	old, oldUnsubscribe := ch.view, ch.unsubscribe
	ch.view, ch.unsubscribe = view, unsubscribe
	ch.messageID, ch.lastMarkup, ch.awaitingReason = 0, "", false
	ch.mu.Unlock()

	if old != nil {
		oldUnsubscribe()
		old.Unmount()
	}
}

// closeView unmounts the current view and returns the message that carried
// its keyboard.
func (ch *chat) closeView() int {
	ch.mu.Lock()
	view, unsubscribe, messageID := ch.view, ch.unsubscribe, ch.messageID
	ch.view, ch.unsubscribe = nil, nil
	ch.messageID, ch.lastMarkup, ch.awaitingReason = 0, "", false
	ch.mu.Unlock()

	if view != nil {
		unsubscribe()
		view.Unmount()
	}
	return messageID
}

func (ch *chat) current() (*postview.View, int) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.view, ch.messageID
}

func (ch *chat) setAwaitingReason(v bool) {
	ch.mu.Lock()
	ch.awaitingReason = v
	ch.mu.Unlock()
}

// takeAwaitingReason reports whether the chat was waiting for free text and
// stops waiting.
func (ch *chat) takeAwaitingReason() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	v := ch.awaitingReason
	ch.awaitingReason = false
	return v
}

// SweepIdle unmounts views untouched since before now minus the idle limit
// and returns how many were closed.
func (c *CommandImpl) SweepIdle(now time.Time) int {
	c.mu.Lock()
	chats := make([]*chat, 0, len(c.chats))
	for _, ch := range c.chats {
		chats = append(chats, ch)
	}
	c.mu.Unlock()

	closed := 0
	for _, ch := range chats {
		view, _ := ch.current()
		if view == nil || now.Sub(view.IdleSince()) < c.idleAfter {
			continue
		}

		if messageID := ch.closeView(); messageID != 0 {
			_ = c.Telegram.EditMarkup(ch.id, messageID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		}
		c.Logger.Debug("Post view closed after inactivity", "chat_id", ch.id, "post_id", view.PostID())
		closed++
	}
	return closed
}

func markupKey(markup tgbotapi.InlineKeyboardMarkup) string {
	raw, _ := json.Marshal(markup)
	return string(raw)
}
