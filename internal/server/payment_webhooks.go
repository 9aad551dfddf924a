package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cloudstage/internal/observability/logger"
	"go.uber.org/zap"
)

// maxWebhookBody bounds provider payloads; real deliveries are a few KiB.
const maxWebhookBody = 1 << 20

func (s *Server) paymentWebhook(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("payment_provider", provider)

		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		result, err := s.webhooks.Ingest(c.Request.Context(), provider, payload, c.Request.Header)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		logger.FromContext(c.Request.Context()).Debug("webhook accepted",
			zap.String("status", string(result.Status)),
			zap.String("outcome", string(result.Outcome)),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
