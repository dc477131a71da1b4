package content

import "go.uber.org/fx"

var Module = fx.Module("content.synthesizer",
	fx.Provide(New),
)
