package planday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"staff-portal/internal/metrics"
)

// Scheduling API paths.
const (
	ShiftsPath    = "/scheduling/v1.0/shifts"
	EmployeesPath = "/hr/v1.0/employees"
	RevenuePath   = "/revenue/v1.0/revenue"
	BudgetPath    = "/revenue/v1.0/budget"
)

// Shared transport so every request reuses pooled connections.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   20,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   5 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

type ClientConfig struct {
	BaseURL    string
	ClientID   string
	Tokens     *TokenCache
	HTTPClient *http.Client
	Timeout    time.Duration
	Metrics    *metrics.Registry
	Logger     *zap.Logger
}

// Client issues authenticated GETs against the scheduling API.
type Client struct {
	baseURL    string
	clientID   string
	tokens     *TokenCache
	httpClient *http.Client
	metrics    *metrics.Registry
	logger     *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		c.httpClient = &http.Client{Transport: sharedTransport, Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// GetJSON fetches path with query and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// GetList fetches path and unwraps a list envelope. Objects without a list
// are read as an empty page; bodies that are not JSON are an error.
func (c *Client) GetList(ctx context.Context, path string, query url.Values) ([]Record, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	records, err := DecodeList(body)
	if errors.Is(err, ErrMalformedEnvelope) {
		c.logger.Debug("list response had no records", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("X-ClientId", c.clientID)
	req.Header.Set("Accept", "application/json")

	endpoint := endpointLabel(path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Upstream(endpoint, "error")
		return nil, fmt.Errorf("planday %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.Upstream(endpoint, strconv.Itoa(resp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Path: path, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}
	return body, nil
}

// endpointLabel reduces a path to a low-cardinality metric label:
// /hr/v1.0/employees/42 -> hr/employees.
func endpointLabel(path string) string {
	var parts []string
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || isVersion(seg) {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			continue
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "/")
}

func isVersion(seg string) bool {
	return len(seg) > 1 && seg[0] == 'v' && seg[1] >= '0' && seg[1] <= '9'
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
