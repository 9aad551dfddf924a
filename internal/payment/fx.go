package payment

import (
	"net/http"
	"time"

	"github.com/smallbiznis/cloudstage/internal/observability/tracing"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/cashfree"
	"github.com/smallbiznis/cloudstage/internal/payment/adapters/razorpay"
	"github.com/smallbiznis/cloudstage/internal/payment/checkout"
	"github.com/smallbiznis/cloudstage/internal/payment/fulfillment"
	"github.com/smallbiznis/cloudstage/internal/payment/webhook"
	"go.uber.org/fx"
)

const providerTimeout = 15 * time.Second

var Module = fx.Module("payment.service",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(
			cashfree.NewFactory(),
			razorpay.NewFactory(),
		)
	}),
	fx.Provide(fx.Annotate(newProviderClient, fx.ResultTags(`name:"payment_http_client"`))),
	fx.Provide(fulfillment.NewDispatcher),
	fx.Provide(checkout.NewService),
	fx.Provide(webhook.NewService),
)

func newProviderClient() *http.Client {
	return tracing.WrapHTTPClient(&http.Client{Timeout: providerTimeout})
}
