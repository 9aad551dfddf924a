package reconciliation

import (
	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
	"github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	"github.com/smallbiznis/cloudstage/internal/reconciliation/repository"
	"github.com/smallbiznis/cloudstage/internal/reconciliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(d *fulfillment.Dispatcher) domain.Fulfiller { return d }),
	fx.Provide(service.New),
)
