package bundle

import (
	"github.com/smallbiznis/breakeven/internal/sitetemplate"
	"go.uber.org/fx"
)

var Module = fx.Module("bundle.assembler",
	fx.Provide(sitetemplate.Default),
	fx.Provide(New),
)
