package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
)

// ToolClient calls external extraction tools (counting services, custom
// webhooks) over HTTP. Transient failures (network errors, 5xx) are retried
// with bounded exponential backoff; 4xx responses fail immediately.
type ToolClient struct {
	client     *resty.Client
	maxRetries uint64
	backoff    time.Duration
	logger     *slog.Logger
}

// NewToolClient creates a ToolClient with the given request timeout and
// retry policy.
func NewToolClient(timeout time.Duration, maxRetries int, backoff time.Duration, logger *slog.Logger) *ToolClient {
	return &ToolClient{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		maxRetries: uint64(maxRetries),
		backoff:    backoff,
		logger:     logger.With("system", "tools"),
	}
}

// Post sends the payload to the tool URL and decodes the JSON object it
// returns.
func (t *ToolClient) Post(ctx context.Context, url string, payload map[string]any) (map[string]any, error) {
	var out map[string]any

	backoff := retry.WithMaxRetries(t.maxRetries, retry.NewExponential(t.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := t.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(url)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("post tool: %w", err))
		}

		if resp.StatusCode() >= 500 {
			return retry.RetryableError(fmt.Errorf("tool responded %d", resp.StatusCode()))
		}

		if resp.IsError() {
			return fmt.Errorf("tool responded %d: %s", resp.StatusCode(), resp.Body())
		}

		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return fmt.Errorf("decode tool response: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
