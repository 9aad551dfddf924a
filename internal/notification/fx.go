package notification

import (
	"github.com/smallbiznis/cloudstage/internal/notification/domain"
	"github.com/smallbiznis/cloudstage/internal/notification/repository"
	"github.com/smallbiznis/cloudstage/internal/notification/service"
	"github.com/smallbiznis/cloudstage/internal/ratelimit"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(l *ratelimit.Locker) domain.Locker {
		if l == nil {
			return nil
		}
		return l
	}),
	fx.Provide(service.New),
)
