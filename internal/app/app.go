package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/postview/internal/backend/backendimpl"
	"github.com/orgball2608/postview/internal/command"
	"github.com/orgball2608/postview/internal/command/commandimpl"
	"github.com/orgball2608/postview/internal/identity/identityimpl"
	"github.com/orgball2608/postview/internal/like"
	"github.com/orgball2608/postview/internal/migrations"
	"github.com/orgball2608/postview/internal/postview"
	repositories "github.com/orgball2608/postview/internal/repositories/fx"
	"github.com/orgball2608/postview/internal/report"
	"github.com/orgball2608/postview/internal/resolver"
	"github.com/orgball2608/postview/internal/telegram/telegramimpl"
	"github.com/orgball2608/postview/pkg/config"
	"github.com/orgball2608/postview/pkg/logger"
	"github.com/orgball2608/postview/pkg/pgx"
	"go.uber.org/fx"
)

// restartDelay is how long the update loop waits before reconnecting.
const restartDelay = 5 * time.Second

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	repositories.Module,
	backendimpl.Module,
	identityimpl.Module,
	telegramimpl.Module,
	resolver.Module,
	like.Module,
	report.Module,
	postview.Module,
	commandimpl.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

// migrate takes the pool so that its start hook, which waits for Postgres,
// runs first.
func migrate(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, _ *pgxpool.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := migrations.Up(ctx, cfg.GetDSN()); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			log.Info("Migrations applied")
			return nil
		},
	})
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, cmdClient command.Client) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.App.Port), Handler: healthMux(log)}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go startHttpServer(log, srv)

			go func() {
				for {
					err := cmdClient.HandleCommand(ctx)
					if ctx.Err() != nil {
						return
					}
					log.Error("Command error", "Error", err)

					select {
					case <-ctx.Done():
						return
					case <-time.After(restartDelay):
					}
				}
			}()

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return srv.Shutdown(stopCtx)
		},
	})
}

func healthMux(log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})
	return mux
}

func startHttpServer(log logger.Logger, srv *http.Server) {
	log.Info(fmt.Sprintf("Starting server on %s", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed to start", "Error", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Debug("Health check request received", "Method", r.Method, "URL", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
