// Package umami is a minimal read-only client for the Umami analytics HTTP API.
package umami

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Client talks to a single Umami server. Construct one per process and pass
// it to whatever needs it; the zero value is not usable.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIResponse is the pass-through envelope for an upstream call. OK mirrors
// the upstream HTTP success; Data carries the raw body unmodified.
type APIResponse struct {
	OK     bool
	Status int
	Data   json.RawMessage
	Error  string
}

// StatsQuery selects the summary window for GetWebsiteStats.
type StatsQuery struct {
	StartAt time.Time
	EndAt   time.Time
	Type    string
}

// PageviewsQuery selects the time-series window for GetWebsitePageviews.
type PageviewsQuery struct {
	StartAt  time.Time
	EndAt    time.Time
	Unit     string // bucket size, e.g. "day"
	Timezone string
	Region   string
}

// New creates a Client for the Umami server at baseURL. token may be empty
// for servers that allow unauthenticated share access.
//
// The http.Client carries no timeout on purpose: callers bound each request
// with their own context, and the transport layer owns any further limits.
func New(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// GetWebsiteStats fetches the summary metrics for a website over the given
// window. The body is relayed untouched in the returned envelope.
func (c *Client) GetWebsiteStats(ctx context.Context, websiteID string, q StatsQuery) (*APIResponse, error) {
	params := url.Values{}
	params.Set("startAt", millis(q.StartAt))
	params.Set("endAt", millis(q.EndAt))
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	return c.get(ctx, fmt.Sprintf("/api/websites/%s/stats", url.PathEscape(websiteID)), params)
}

// GetWebsitePageviews fetches the bucketed pageviews time series for a website.
func (c *Client) GetWebsitePageviews(ctx context.Context, websiteID string, q PageviewsQuery) (*APIResponse, error) {
	params := url.Values{}
	params.Set("startAt", millis(q.StartAt))
	params.Set("endAt", millis(q.EndAt))
	params.Set("unit", q.Unit)
	if q.Timezone != "" {
		params.Set("timezone", q.Timezone)
	}
	if q.Region != "" {
		params.Set("region", q.Region)
	}
	return c.get(ctx, fmt.Sprintf("/api/websites/%s/pageviews", url.PathEscape(websiteID)), params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*APIResponse, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("umami request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("close umami response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read umami response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamError(body)
		c.logger.Error("umami call failed",
			slog.String("path", path),
			slog.String("request_id", reqID),
			slog.Int("status", resp.StatusCode),
			slog.String("error", msg))
		return &APIResponse{OK: false, Status: resp.StatusCode, Error: msg}, nil
	}

	c.logger.Debug("umami call ok",
		slog.String("path", path),
		slog.String("request_id", reqID),
		slog.Int("bytes", len(body)))
	return &APIResponse{OK: true, Status: resp.StatusCode, Data: body}, nil
}

// upstreamError extracts a message from an Umami error body, falling back to
// the raw body when it is not the usual {"error": ...} shape.
func upstreamError(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return "upstream error"
}

// millis formats a time as epoch milliseconds, the unit Umami expects.
func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
