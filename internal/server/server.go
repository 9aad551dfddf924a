package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	auditdomain "github.com/smallbiznis/cloudstage/internal/audit/domain"
	"github.com/smallbiznis/cloudstage/internal/authorization"
	"github.com/smallbiznis/cloudstage/internal/config"
	eventdomain "github.com/smallbiznis/cloudstage/internal/event/domain"
	notificationdomain "github.com/smallbiznis/cloudstage/internal/notification/domain"
	"github.com/smallbiznis/cloudstage/internal/observability"
	obsmiddleware "github.com/smallbiznis/cloudstage/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cloudstage/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cloudstage/internal/observability/tracing"
	"github.com/smallbiznis/cloudstage/internal/payment/checkout"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	"github.com/smallbiznis/cloudstage/internal/payment/webhook"
	"github.com/smallbiznis/cloudstage/internal/providers/pdf"
	"github.com/smallbiznis/cloudstage/internal/ratelimit"
	reconciliationdomain "github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	ticketdomain "github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module serves the HTTP API. Domain modules are composed by the caller so
// the CLI can reuse them without starting a listener.
var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

type checkoutInitiator interface {
	Initiate(ctx context.Context, provider string, req checkout.Request) (paymentdomain.OrderHandle, error)
}

type webhookIngester interface {
	Ingest(ctx context.Context, provider string, payload []byte, headers http.Header) (webhook.Result, error)
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

// run binds the listener in OnStart; a busy port fails startup.
func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	checkout        checkoutInitiator
	webhooks        webhookIngester
	tickets         ticketdomain.Service
	events          eventdomain.Service
	artists         artistdomain.Service
	notifications   notificationdomain.Service
	reconciliations reconciliationdomain.Service
	authzSvc        authorization.Service
	receipts        pdf.Provider
	audits          auditdomain.Service
	checkoutLimiter *ratelimit.CheckoutLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Checkout        *checkout.Service
	Webhooks        *webhook.Service
	Tickets         ticketdomain.Service
	Events          eventdomain.Service
	Artists         artistdomain.Service
	Notifications   notificationdomain.Service
	Reconciliations reconciliationdomain.Service
	AuthzSvc        authorization.Service
	Receipts        pdf.Provider
	Audits          auditdomain.Service        `optional:"true"`
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		checkout:        p.Checkout,
		webhooks:        p.Webhooks,
		tickets:         p.Tickets,
		events:          p.Events,
		artists:         p.Artists,
		notifications:   p.Notifications,
		reconciliations: p.Reconciliations,
		authzSvc:        p.AuthzSvc,
		receipts:        p.Receipts,
		audits:          p.Audits,
		checkoutLimiter: p.CheckoutLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Payment Webhooks --------
	api.POST("/cashfree-webhook", s.paymentWebhook("cashfree"))
	api.POST("/razorpay-webhook", s.paymentWebhook("razorpay"))

	// -------- Checkout --------
	api.POST("/checkout/:provider", s.CheckoutRateLimit(), s.CreateCheckout)

	// -------- Tickets --------
	if s.cfg.Payments.TestMode {
		api.POST("/tickets/test", s.CreateTestTicket)
	}
	api.GET("/tickets/:id/receipt", s.GetTicketReceipt)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AdminRequired())

	// -------- Moderation --------
	admin.POST("/events/:id/approve", s.authorizeAdminAction(authorization.ObjectEvent, authorization.ActionEventApprove), s.ApproveEvent)
	admin.POST("/events/:id/reject", s.authorizeAdminAction(authorization.ObjectEvent, authorization.ActionEventReject), s.RejectEvent)
	admin.POST("/events/:id/notify", s.authorizeAdminAction(authorization.ObjectEvent, authorization.ActionEventNotify), s.NotifyEvent)

	// -------- Reconciliation --------
	admin.GET("/reconciliations", s.authorizeAdminAction(authorization.ObjectReconciliation, authorization.ActionReconciliationView), s.ListReconciliations)
	admin.POST("/reconciliations/:id/replay", s.authorizeAdminAction(authorization.ObjectReconciliation, authorization.ActionReconciliationReplay), s.ReplayReconciliation)

	// -------- Audit --------
	admin.GET("/audit-logs", s.authorizeAdminAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}
