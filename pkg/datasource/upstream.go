package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeready-toolchain/datamask/pkg/config"
	"github.com/codeready-toolchain/datamask/pkg/masking"
	"github.com/go-resty/resty/v2"
)

// UpstreamClient fetches JSON documents from the configured external API.
type UpstreamClient struct {
	http    *resty.Client
	baseURL string
	logger  *slog.Logger
}

// NewUpstreamClient creates a client for cfg.BaseURL. Failed requests and
// 5xx responses are retried cfg.RetryCount times; cfg.Timeout bounds each attempt.
func NewUpstreamClient(cfg *config.UpstreamConfig) *UpstreamClient {
	if cfg == nil {
		cfg = config.DefaultUpstreamConfig()
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &UpstreamClient{
		http:    client,
		baseURL: cfg.BaseURL,
		logger:  slog.Default(),
	}
}

// BaseURL returns the API root.
func (c *UpstreamClient) BaseURL() string {
	return c.baseURL
}

// Fetch GETs endpoint (relative to the base URL) with params as query
// string and decodes the body, keeping object key order.
func (c *UpstreamClient) Fetch(ctx context.Context, endpoint string, params map[string]string) (masking.Value, error) {
	path, err := normalizeEndpoint(endpoint)
	if err != nil {
		return masking.Value{}, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return masking.Value{}, &UpstreamError{Endpoint: path, Err: err}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		c.logger.Warn("Upstream returned error status",
			"endpoint", path,
			"status", resp.StatusCode(),
			"attempts", resp.Request.Attempt)
		return masking.Value{}, &UpstreamError{Endpoint: path, StatusCode: resp.StatusCode()}
	}

	value, err := masking.ParseJSON(resp.Body())
	if err != nil {
		return masking.Value{}, &UpstreamError{
			Endpoint:   path,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	return value, nil
}

// normalizeEndpoint accepts only a path below the base URL. Absolute URLs,
// scheme-relative references and parent segments are rejected so callers
// cannot redirect requests to another host.
func normalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" || endpoint == "/" {
		return "", NewValidationError("endpoint", "is required")
	}
	if strings.Contains(endpoint, "://") || strings.HasPrefix(endpoint, "//") {
		return "", NewValidationError("endpoint", "must be a path relative to the upstream base URL")
	}
	if strings.ContainsAny(endpoint, "?#") {
		return "", NewValidationError("endpoint", "must not contain a query or fragment")
	}
	for _, seg := range strings.Split(endpoint, "/") {
		if seg == ".." {
			return "", NewValidationError("endpoint", "must not contain '..' segments")
		}
	}
	return "/" + strings.TrimPrefix(endpoint, "/"), nil
}
