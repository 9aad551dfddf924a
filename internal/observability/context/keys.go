package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "observability_request_id"
	providerKey  contextKey = "observability_payment_provider"
	orderIDKey   contextKey = "observability_order_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithPayment tags the context with the provider and order being processed.
func WithPayment(ctx context.Context, provider, orderID string) context.Context {
	if ctx == nil {
		return ctx
	}
	if provider != "" {
		ctx = context.WithValue(ctx, providerKey, provider)
	}
	if orderID != "" {
		ctx = context.WithValue(ctx, orderIDKey, orderID)
	}
	return ctx
}

func PaymentFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	provider, _ := ctx.Value(providerKey).(string)
	orderID, _ := ctx.Value(orderIDKey).(string)
	return provider, orderID
}
