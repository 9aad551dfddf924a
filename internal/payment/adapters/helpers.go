package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/cloudstage/internal/payment/domain"
)

const maxResponseBytes = 1 << 20

var defaultClient = &http.Client{Timeout: 15 * time.Second}

// ReadString returns a trimmed string value from an adapter config map.
func ReadString(config map[string]any, key string) string {
	value, ok := config[key]
	if !ok {
		return ""
	}
	cast, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cast)
}

// RequireHTTPS fails with ErrConfiguration unless raw is an absolute https URL.
func RequireHTTPS(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: %s is not set", domain.ErrConfiguration, name)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("%w: %s is not a valid url", domain.ErrConfiguration, name)
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("%w: %s must use https", domain.ErrConfiguration, name)
	}
	return nil
}

// Request describes one JSON call to a provider API.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Username string
	Password string
	Body     any
}

// Do sends the request and returns the status code and a bounded body.
// Transport failures are returned as errors; HTTP error statuses are not.
func Do(ctx context.Context, client *http.Client, req Request) (int, []byte, error) {
	if client == nil {
		client = defaultClient
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Username != "" {
		httpReq.SetBasicAuth(req.Username, req.Password)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
