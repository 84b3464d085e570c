package postview

import "go.uber.org/fx"

var Module = fx.Provide(NewFactory)
