package planday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"staff-portal/internal/metrics"
)

const (
	expiryMargin = 30 * time.Second
	minTTL       = 60
	maxTTL       = 3600
)

// Credential is a bearer token and its expiry in epoch seconds.
type Credential struct {
	Token     string
	ExpiresAt int64
}

func (c Credential) validAt(now time.Time) bool {
	return c.Token != "" && now.Add(expiryMargin).Unix() < c.ExpiresAt
}

type TokenConfig struct {
	TokenURL     string
	ClientID     string
	RefreshToken string
	HTTPClient   *http.Client
	Metrics      *metrics.Registry
	Logger       *zap.Logger
}

// TokenCache hands out access tokens, exchanging the long-lived refresh token
// when the cached one is missing or about to expire. Build one per process.
type TokenCache struct {
	tokenURL     string
	clientID     string
	refreshToken string
	httpClient   *http.Client
	metrics      *metrics.Registry
	logger       *zap.Logger
	now          func() time.Time

	mu   sync.Mutex
	cred Credential
}

func NewTokenCache(cfg TokenConfig) *TokenCache {
	tc := &TokenCache{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		refreshToken: cfg.RefreshToken,
		httpClient:   cfg.HTTPClient,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          time.Now,
	}
	if tc.httpClient == nil {
		tc.httpClient = &http.Client{Transport: sharedTransport, Timeout: 10 * time.Second}
	}
	if tc.logger == nil {
		tc.logger = zap.NewNop()
	}
	return tc
}

// Token returns a credential valid for at least the next 30 seconds.
// Concurrent callers may refresh redundantly; the last write wins.
func (tc *TokenCache) Token(ctx context.Context) (Credential, error) {
	tc.mu.Lock()
	cred := tc.cred
	tc.mu.Unlock()

	if cred.validAt(tc.now()) {
		return cred, nil
	}
	return tc.Refresh(ctx)
}

// Invalidate drops the cached credential so the next Token call refreshes.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.cred = Credential{}
	tc.mu.Unlock()
}

// Refresh exchanges the refresh token for a new access token.
func (tc *TokenCache) Refresh(ctx context.Context) (Credential, error) {
	form := url.Values{}
	form.Set("client_id", tc.clientID)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", tc.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		tc.metrics.TokenRefresh("error")
		return Credential{}, fmt.Errorf("token refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		tc.metrics.TokenRefresh("rejected")
		return Credential{}, &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		tc.metrics.TokenRefresh("error")
		return Credential{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		tc.metrics.TokenRefresh("error")
		return Credential{}, &AuthError{Status: resp.StatusCode, Body: "response carried no access_token"}
	}

	ttl := clampTTL(int64(payload.ExpiresIn))
	cred := Credential{Token: payload.AccessToken, ExpiresAt: tc.now().Unix() + ttl}

	tc.mu.Lock()
	tc.cred = cred
	tc.mu.Unlock()

	tc.metrics.TokenRefresh("ok")
	tc.logger.Debug("planday token refreshed", zap.Int64("ttl_seconds", ttl))
	return cred, nil
}

func clampTTL(ttl int64) int64 {
	if ttl < minTTL {
		return minTTL
	}
	if ttl > maxTTL {
		return maxTTL
	}
	return ttl
}
