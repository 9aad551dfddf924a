package push

import (
	"context"
	"strings"

	"github.com/smallbiznis/cloudstage/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.push",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.Push.CredentialsFile) == "" {
		return NewNoOpProvider(log), nil
	}
	return NewFCM(context.Background(), cfg.Push.CredentialsFile, cfg.Push.ProjectID, log)
}
