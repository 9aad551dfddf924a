package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cloudstage/internal/config"
)

const keyCheckoutUser = "checkout:user:%s"

// CheckoutLimiter throttles order creation per user. A nil limiter or one
// built without redis allows everything.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCheckoutLimiter(cfg config.Config, client *redis.Client) *CheckoutLimiter {
	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.Payments.CheckoutRate,
		burst:  cfg.Payments.CheckoutBurst,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.bucket != nil && l.rate > 0 && l.burst > 0
}

func (l *CheckoutLimiter) Allow(ctx context.Context, userID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyCheckoutUser, strings.ToLower(strings.TrimSpace(userID)))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
