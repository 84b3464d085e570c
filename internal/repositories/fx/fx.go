package fx

import (
	"github.com/orgball2608/postview/internal/repositories"
	"github.com/orgball2608/postview/internal/repositories/likes"
	"github.com/orgball2608/postview/internal/repositories/reports"
	"github.com/orgball2608/postview/internal/repositories/userlikes"
	"go.uber.org/fx"
)

var Module = fx.Options(
	likes.Module,
	userlikes.Module,
	reports.Module,
	fx.Provide(
		fx.Annotate(
			repositories.NewPgxTransactor,
			fx.As(new(repositories.Transactor)),
		),
	),
)
