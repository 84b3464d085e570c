package identityimpl

import (
	"github.com/orgball2608/postview/internal/identity"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		NewFactory,
		func(f *Factory) identity.Factory { return f },
		NewRefresher,
	),
	fx.Invoke(func(*Refresher) {}),
)
