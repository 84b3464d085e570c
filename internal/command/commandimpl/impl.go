package commandimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/postview/internal/command"
	"github.com/orgball2608/postview/internal/identity"
	"github.com/orgball2608/postview/internal/postview"
	"github.com/orgball2608/postview/internal/telegram"
	"github.com/orgball2608/postview/pkg/config"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

const sweepEvery = time.Minute

type Opts struct {
	fx.In

	LC       fx.Lifecycle
	Telegram telegram.Client
	Identity identity.Factory
	Views    *postview.Factory
	Logger   logger.Logger
	Config   *config.Config
}

type CommandImpl struct {
	Telegram telegram.Client
	Identity identity.Factory
	Views    *postview.Factory
	Logger   logger.Logger
	Config   *config.Config

	idleAfter time.Duration
	scheduler gocron.Scheduler

	mu    sync.Mutex
	chats map[int64]*chat
}

func New(opts Opts) (*CommandImpl, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	c := &CommandImpl{
		Telegram:  opts.Telegram,
		Identity:  opts.Identity,
		Views:     opts.Views,
		Logger:    opts.Logger.WithComponent("Command"),
		Config:    opts.Config,
		idleAfter: time.Duration(opts.Config.View.IdleMinutes) * time.Minute,
		scheduler: scheduler,
		chats:     make(map[int64]*chat),
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.scheduleSweep()
		},
		OnStop: func(ctx context.Context) error {
			defer c.Close()
			return c.scheduler.Shutdown()
		},
	})

	return c, nil
}

var _ command.Client = (*CommandImpl)(nil)

func (c *CommandImpl) scheduleSweep() error {
	if c.idleAfter <= 0 {
		return nil
	}

	_, err := c.scheduler.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() {
			if n := c.SweepIdle(time.Now()); n > 0 {
				c.Logger.Info("Closed idle post views", "count", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule idle view sweep: %w", err)
	}

	c.scheduler.Start()
	return nil
}

// Close unmounts every view and ends every chat's session.
func (c *CommandImpl) Close() {
	c.mu.Lock()
	chats := c.chats
	c.chats = make(map[int64]*chat)
	c.mu.Unlock()

	for _, ch := range chats {
		ch.closeView()
		ch.session.Stop()
		c.Identity.Release(ch.identity)
	}
}
