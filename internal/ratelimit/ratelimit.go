// Package ratelimit paces outgoing bot API calls so the bot stays inside
// Telegram's flood limits: a global budget plus a smaller one per chat.
package ratelimit

import (
	"context"
	"sync"

	"github.com/orgball2608/postview/pkg/config"
	"golang.org/x/time/rate"
)

// Chats with fully refilled buckets are dropped once this many are tracked.
const maxTrackedChats = 10000

type Pacer struct {
	global *rate.Limiter

	mu        sync.Mutex
	chats     map[int64]*rate.Limiter
	chatRate  rate.Limit
	chatBurst int
}

func New(cfg *config.Config) *Pacer {
	return NewPacer(cfg.Telegram.GlobalRate, cfg.Telegram.ChatRate, cfg.Telegram.ChatBurst)
}

// NewPacer allows globalRate calls per second overall and chatRate per
// second to any single chat, with bursts of chatBurst.
func NewPacer(globalRate, chatRate float64, chatBurst int) *Pacer {
	return &Pacer{
		global:    rate.NewLimiter(rate.Limit(globalRate), max(int(globalRate), 1)),
		chats:     make(map[int64]*rate.Limiter),
		chatRate:  rate.Limit(chatRate),
		chatBurst: max(chatBurst, 1),
	}
}

// Wait blocks until a call to chatID may be made or ctx ends.
func (p *Pacer) Wait(ctx context.Context, chatID int64) error {
	if err := p.limiter(chatID).Wait(ctx); err != nil {
		return err
	}
	return p.global.Wait(ctx)
}

func (p *Pacer) limiter(chatID int64) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.chats[chatID]; ok {
		return l
	}

	if len(p.chats) >= maxTrackedChats {
		p.evictIdle()
	}

	l := rate.NewLimiter(p.chatRate, p.chatBurst)
	p.chats[chatID] = l
	return l
}

// evictIdle must be called with mu held.
func (p *Pacer) evictIdle() {
	for id, l := range p.chats {
		if l.Tokens() >= float64(p.chatBurst) {
			delete(p.chats, id)
		}
	}
}

func (p *Pacer) tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.chats)
}
