package like

import "go.uber.org/fx"

var Module = fx.Provide(NewFactory)
