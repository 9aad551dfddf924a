package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cloudstage/internal/observability/logger"
	"go.uber.org/zap"
)

const maxCheckoutBody = 64 << 10

type checkoutRateLimitKey struct {
	UserID string `json:"userId"`
}

// CheckoutRateLimit throttles order creation per buyer. Requests without a
// user id pass through and fail validation in the handler.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userID, err := readCheckoutUserID(c)
		if err != nil {
			logger.FromContext(ctx).Warn("checkout rate limit read body failed", zap.Error(err))
			AbortWithError(c, invalidRequestError())
			return
		}
		if userID == "" {
			c.Next()
			return
		}

		result, err := s.checkoutLimiter.Allow(ctx, userID)
		if err != nil {
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			s.denyCheckoutRateLimit(c, retryAfterSeconds(result.RetryAfter.Seconds()))
			return
		}

		c.Next()
	}
}

func (s *Server) denyCheckoutRateLimit(c *gin.Context, retryAfter int) {
	s.obsMetrics.RecordCheckout(c.Request.Context(), strings.ToLower(c.Param("provider")), "rate_limited")
	logger.FromContext(c.Request.Context()).Warn("checkout rate limit exceeded",
		zap.String("endpoint", normalizeRateLimitEndpoint(c)),
		zap.Int("retry_after_s", retryAfter),
	)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(seconds float64) int {
	if seconds < 1 {
		return 1
	}
	return int(math.Ceil(seconds))
}

func readCheckoutUserID(c *gin.Context) (string, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCheckoutBody))
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return "", nil
	}

	var payload checkoutRateLimitKey
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	return strings.TrimSpace(payload.UserID), nil
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
