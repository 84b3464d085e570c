package telegramimpl

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/postview/internal/ratelimit"
	"github.com/orgball2608/postview/internal/report"
	"github.com/orgball2608/postview/internal/telegram"
	"github.com/orgball2608/postview/pkg/config"
	"github.com/orgball2608/postview/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	Pacer  *ratelimit.Pacer
}

// paceTimeout bounds how long a call waits for its turn.
const paceTimeout = 30 * time.Second

type TelegramImpl struct {
	TgBot  *tgbotapi.BotAPI
	Logger logger.Logger
	Config *config.Config
	Pacer  *ratelimit.Pacer
}

func New(opts Opts) (*TelegramImpl, error) {
	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.BotToken)
	if err != nil {
		opts.Logger.Error("Error creating bot", "Error", err)
		return nil, err
	}

	return &TelegramImpl{
		TgBot:  tgBot,
		Logger: opts.Logger.WithComponent("Telegram"),
		Config: opts.Config,
		Pacer:  opts.Pacer,
	}, nil
}

// pace waits for the chat's turn to be called. A nil Pacer never waits.
func (tg *TelegramImpl) pace(chatID int64) error {
	if tg.Pacer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), paceTimeout)
	defer cancel()
	return tg.Pacer.Wait(ctx, chatID)
}

var (
	_ telegram.Client = (*TelegramImpl)(nil)
	_ report.Notifier = (*TelegramImpl)(nil)
)
