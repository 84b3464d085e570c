package report

import "go.uber.org/fx"

var Module = fx.Provide(NewSubmitter)
