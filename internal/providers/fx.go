package providers

import (
	"github.com/smallbiznis/cloudstage/internal/providers/pdf"
	"github.com/smallbiznis/cloudstage/internal/providers/push"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	push.Module,
)
