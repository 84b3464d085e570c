package commandimpl

import (
	"github.com/orgball2608/postview/internal/command"
	"go.uber.org/fx"
)

var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.As(new(command.Client)),
	),
)
