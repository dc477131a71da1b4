package providers

import (
	"github.com/smallbiznis/breakeven/internal/providers/aitext"
	"github.com/smallbiznis/breakeven/internal/providers/archive"
	"github.com/smallbiznis/breakeven/internal/providers/email"
	"github.com/smallbiznis/breakeven/internal/providers/hosting"
	"github.com/smallbiznis/breakeven/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	aitext.Module,
	archive.Module,
	email.Module,
	hosting.Module,
	pdf.Module,
)
