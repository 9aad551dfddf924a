package push

import (
	"context"

	"go.uber.org/zap"
)

// Message is one notification addressed to many device tokens.
type Message struct {
	Title  string
	Body   string
	Tokens []string
	Data   map[string]string
}

// Result counts per-token delivery outcomes.
type Result struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

type Provider interface {
	SendMulticast(ctx context.Context, msg Message) (Result, error)
}

// NoOpProvider logs instead of sending and reports zero deliveries. It is
// used when no push credentials are configured.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOpProvider(log *zap.Logger) *NoOpProvider {
	return &NoOpProvider{log: log.Named("push.noop")}
}

func (p *NoOpProvider) SendMulticast(ctx context.Context, msg Message) (Result, error) {
	p.log.Info("push skipped; provider not configured",
		zap.String("title", msg.Title),
		zap.Int("tokens", len(msg.Tokens)),
	)
	return Result{}, nil
}
