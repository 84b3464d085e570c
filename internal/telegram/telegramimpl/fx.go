package telegramimpl

import (
	"github.com/orgball2608/postview/internal/ratelimit"
	"github.com/orgball2608/postview/internal/report"
	"github.com/orgball2608/postview/internal/telegram"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ratelimit.New, New),
	fx.Provide(
		func(tg *TelegramImpl) telegram.Client { return tg },
		func(tg *TelegramImpl) report.Notifier { return tg },
	),
)
