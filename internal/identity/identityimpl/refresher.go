package identityimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/postview/pkg/config"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

type RefresherOpts struct {
	fx.In

	LC      fx.Lifecycle
	Config  *config.Config
	Logger  logger.Logger
	Factory *Factory
}

// Refresher renews sessions shortly before their access tokens expire.
type Refresher struct {
	factory *Factory
	window  time.Duration
	every   time.Duration
	logger  logger.Logger

	scheduler gocron.Scheduler
}

func NewRefresher(opts RefresherOpts) (*Refresher, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	r := &Refresher{
		factory:   opts.Factory,
		window:    opts.Config.Identity.RefreshWindow,
		every:     opts.Config.Identity.RefreshEvery,
		logger:    opts.Logger.WithComponent("IdentityRefresher"),
		scheduler: scheduler,
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return r.Start()
		},
		OnStop: func(ctx context.Context) error {
			return r.scheduler.Shutdown()
		},
	})

	return r, nil
}

func (r *Refresher) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.every)
			defer cancel()
			r.RefreshExpiring(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule session refresh: %w", err)
	}

	r.scheduler.Start()
	r.logger.Info("Session refresh scheduled", "every", r.every.String(), "window", r.window.String())
	return nil
}

// RefreshExpiring refreshes every live session that expires within the
// configured window and returns how many were renewed.
func (r *Refresher) RefreshExpiring(ctx context.Context) int {
	refreshed := 0
	for _, c := range r.factory.live() {
		if !c.Expiring(r.window) {
			continue
		}
		if _, err := c.RefreshSession(ctx); err != nil {
			r.logger.Warn("Failed to refresh session", "error", err)
			continue
		}
		refreshed++
	}
	return refreshed
}
