package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	artistdomain "github.com/smallbiznis/cloudstage/internal/artist/domain"
	auditdomain "github.com/smallbiznis/cloudstage/internal/audit/domain"
	"github.com/smallbiznis/cloudstage/internal/authorization"
	eventdomain "github.com/smallbiznis/cloudstage/internal/event/domain"
	notificationdomain "github.com/smallbiznis/cloudstage/internal/notification/domain"
	paymentdomain "github.com/smallbiznis/cloudstage/internal/payment/domain"
	reconciliationdomain "github.com/smallbiznis/cloudstage/internal/reconciliation/domain"
	ticketdomain "github.com/smallbiznis/cloudstage/internal/ticket/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog feeds the request logger; the code is the sentinel
// text, never the wrapped detail.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, errorCode(err)
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := errorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrMissingSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_signature",
			Message: "missing signature headers",
		}
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_signature",
			Message: "Invalid signature",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, paymentdomain.ErrProvider):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: "payment failed, try again",
		}
	case errors.Is(err, notificationdomain.ErrPushFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "push_error",
			Message: "push delivery failed",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, paymentdomain.ErrConfiguration):
		return http.StatusInternalServerError, errorPayload{
			Type:    "configuration_error",
			Message: "payment service misconfigured",
		}
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return http.StatusInternalServerError, errorPayload{
			Type:    "invalid_payload",
			Message: "could not process webhook",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationSentinels map to 400. Order matters: the first match names the field.
var validationSentinels = []error{
	ErrInvalidRequest,
	paymentdomain.ErrInvalidInput,
	paymentdomain.ErrProviderNotFound,
	ticketdomain.ErrInvalidUser,
	ticketdomain.ErrInvalidEvent,
	ticketdomain.ErrInvalidPayment,
	ticketdomain.ErrInvalidID,
	eventdomain.ErrInvalidID,
	eventdomain.ErrInvalidReason,
	artistdomain.ErrInvalidID,
	notificationdomain.ErrInvalidEvent,
	reconciliationdomain.ErrInvalidID,
	reconciliationdomain.ErrInvalidStatus,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
}

func isValidationError(err error) bool {
	return matchSentinel(err, validationSentinels) != nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ticketdomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, artistdomain.ErrNotFound),
		errors.Is(err, reconciliationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, eventdomain.ErrInvalidTransition),
		errors.Is(err, notificationdomain.ErrEventNotApproved),
		errors.Is(err, notificationdomain.ErrFanoutInProgress):
		return true
	default:
		return false
	}
}

func matchSentinel(err error, sentinels []error) error {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if sentinel := matchSentinel(err, validationSentinels); sentinel != nil {
		return sentinel.Error()
	}
	for unwrapped := errors.Unwrap(err); unwrapped != nil; unwrapped = errors.Unwrap(unwrapped) {
		err = unwrapped
	}
	code := err.Error()
	if i := strings.IndexByte(code, ':'); i >= 0 {
		code = code[:i]
	}
	return strings.TrimSpace(code)
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request", "invalid_input":
		return "request"
	case "provider_not_found":
		return "provider"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request", "invalid_input":
		return "invalid request"
	case "provider_not_found":
		return "unsupported payment provider"
	default:
		return "invalid value"
	}
}
