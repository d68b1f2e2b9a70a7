package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pendergraft/deploykit/internal/observability/metrics"
)

// DefaultTimeout bounds a single explorer API call
const DefaultTimeout = 15 * time.Second

// apiResponse is the envelope every Etherscan-style endpoint returns
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// VerificationStatus is the state of a submitted source verification
type VerificationStatus struct {
	GUID     string `json:"guid"`
	Verified bool   `json:"verified"`
	Pending  bool   `json:"pending"`
	Message  string `json:"message"`
}

// Client calls the explorer API of one network
type Client struct {
	endpoint Endpoint
	http     *resty.Client
	logger   *slog.Logger
}

// NewClient creates an explorer API client
func NewClient(endpoint Endpoint, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     resty.New().SetTimeout(timeout),
		logger:   logger,
	}
}

// CheckAPIKey makes a cheap authenticated call and reports whether the
// explorer accepts the API key.
func (c *Client) CheckAPIKey(ctx context.Context) error {
	if c.endpoint.APIKey == "" {
		return fmt.Errorf("%w: not set for %s", ErrInvalidAPIKey, c.endpoint.Network)
	}

	resp, err := c.get(ctx, map[string]string{
		"module": "stats",
		"action": "ethprice",
	})
	if err != nil {
		return err
	}

	if resp.Status != "1" {
		msg := resultText(resp.Result)
		if strings.Contains(strings.ToLower(msg), "api key") {
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
		}
		return fmt.Errorf("explorer error: %s: %s", resp.Message, msg)
	}
	return nil
}

// VerificationStatus polls the state of a verification submission
func (c *Client) VerificationStatus(ctx context.Context, guid string) (*VerificationStatus, error) {
	if guid == "" {
		return nil, fmt.Errorf("verification GUID is required")
	}

	resp, err := c.get(ctx, map[string]string{
		"module": "contract",
		"action": "checkverifystatus",
		"guid":   guid,
	})
	if err != nil {
		return nil, err
	}

	msg := resultText(resp.Result)
	status := &VerificationStatus{GUID: guid, Message: msg}

	switch {
	case resp.Status == "1":
		status.Verified = true
	case strings.HasPrefix(msg, "Pending"):
		status.Pending = true
	case strings.Contains(msg, "Already Verified"):
		status.Verified = true
	case strings.Contains(strings.ToLower(msg), "api key"):
		return nil, fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
	}
	return status, nil
}

func (c *Client) get(ctx context.Context, params map[string]string) (*apiResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.endpoint.APIKey).
		SetHeader("Accept", "application/json").
		Get(c.endpoint.APIURL)
	if err != nil {
		metrics.RecordExplorerRequest(c.endpoint.Network, false)
		return nil, fmt.Errorf("explorer request: %w", err)
	}
	if resp.IsError() {
		metrics.RecordExplorerRequest(c.endpoint.Network, false)
		return nil, fmt.Errorf("explorer returned status %d", resp.StatusCode())
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		metrics.RecordExplorerRequest(c.endpoint.Network, false)
		return nil, fmt.Errorf("parsing explorer response: %w", err)
	}

	metrics.RecordExplorerRequest(c.endpoint.Network, out.Status == "1")
	c.logger.Debug("explorer request",
		"network", c.endpoint.Network,
		"action", params["action"],
		"status", out.Status,
		"duration", resp.Time().String(),
	)
	return &out, nil
}

// resultText renders the result field, which is a string on errors and
// arbitrary JSON on success.
func resultText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
