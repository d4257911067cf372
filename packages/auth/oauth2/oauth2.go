package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSafetyMargin is subtracted from a token's expiry when
	// deciding whether a cached token may still be used.
	DefaultSafetyMargin = 30 * time.Second

	// DefaultTimeout bounds a token endpoint request.
	DefaultTimeout = 30 * time.Second

	// defaultLifetime is assumed when the grant response carries no
	// expires_in and the token is not a JWT with an exp claim.
	defaultLifetime = 55 * time.Minute
)

// AuthenticationError indicates token acquisition failed: the endpoint
// returned a non-success status, the response was unparsable, or the
// request itself did not complete.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %v", e.Err)
	}
	return fmt.Sprintf("authentication failed: token endpoint returned status %d: %s", e.StatusCode, e.Body)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Config holds the client-credentials grant settings.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	GrantType    string        // defaults to client_credentials
	SafetyMargin time.Duration // defaults to DefaultSafetyMargin
	Timeout      time.Duration // defaults to DefaultTimeout
}

// Provider acquires tokens from the token endpoint and serves them out
// of a TokenCache. At most one fetch per cache key is in flight at any
// time; concurrent callers for the same key share its result.
type Provider struct {
	config     *Config
	httpClient *http.Client
	cache      *TokenCache
	group      singleflight.Group
	logger     *zap.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client used for token requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithCache shares an existing token cache between providers.
func WithCache(cache *TokenCache) ProviderOption {
	return func(p *Provider) {
		p.cache = cache
	}
}

// NewProvider creates a token provider for the given configuration.
func NewProvider(config *Config, opts ...ProviderOption) *Provider {
	cfg := *config
	if cfg.GrantType == "" {
		cfg.GrantType = "client_credentials"
	}
	if cfg.SafetyMargin == 0 {
		cfg.SafetyMargin = DefaultSafetyMargin
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	p := &Provider{
		config: &cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  NewTokenCache(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns a bearer token for the requested scopes, serving from
// the cache when a valid entry exists. With bypassCache the lookup is
// skipped and a fresh token is always fetched.
//
// The fast path performs no network I/O. On the fetch path, concurrent
// callers for the same scope set share one request to the token
// endpoint; a fetch failure is surfaced to every waiter and never
// cached. Cancelling ctx abandons the wait without corrupting the
// cache.
func (p *Provider) Token(ctx context.Context, scopes []string, bypassCache bool) (string, error) {
	key := cacheKey(p.config.TokenURL, p.config.ClientID, scopes)

	if !bypassCache {
		if entry, ok := p.cache.lookup(key, p.config.SafetyMargin); ok {
			p.logger.Debug("using cached token", zap.Strings("scopes", scopes))
			return entry.token, nil
		}
	} else {
		p.logger.Debug("bypassing token cache")
	}

	// The fetch runs detached from ctx: waiters may come and go, and an
	// abandoned caller must not cancel the fetch other callers share.
	// The fetch itself is bounded by the configured timeout.
	ch := p.group.DoChan(key, func() (any, error) {
		entry, err := p.fetch(scopes)
		if err != nil {
			return nil, err
		}
		p.cache.store(key, entry)
		return entry, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(*tokenEntry).token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Invalidate drops the cached token for the given scope set.
func (p *Provider) Invalidate(scopes []string) {
	p.cache.Delete(cacheKey(p.config.TokenURL, p.config.ClientID, scopes))
}

// InvalidateAll drops every cached token for this provider's cache.
func (p *Provider) InvalidateAll() {
	p.cache.Clear()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

func (p *Provider) fetch(scopes []string) (*tokenEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	normalized := normalizeScopes(scopes)
	p.logger.Info("fetching token", zap.Strings("scopes", normalized))

	data := url.Values{}
	data.Set("grant_type", p.config.GrantType)
	data.Set("client_id", p.config.ClientID)
	data.Set("client_secret", p.config.ClientSecret)
	if len(normalized) > 0 {
		data.Set("scope", strings.Join(normalized, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, &AuthenticationError{
				StatusCode: resp.StatusCode,
				Body:       fmt.Sprintf("%s - %s", errResp.Error, errResp.ErrorDescription),
			}
		}
		return nil, &AuthenticationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &AuthenticationError{Err: fmt.Errorf("parse token response: %w", err)}
	}
	if token.AccessToken == "" {
		return nil, &AuthenticationError{Err: fmt.Errorf("no access_token in token response")}
	}

	now := time.Now()
	entry := &tokenEntry{
		token:     token.AccessToken,
		issuedAt:  now,
		scopes:    normalized,
		expiresAt: expiryFor(token, now),
	}

	p.logger.Info("token acquired",
		zap.Strings("scopes", normalized),
		zap.Time("expiresAt", entry.expiresAt),
	)
	return entry, nil
}

// expiryFor determines a token's expiry: expires_in when present,
// otherwise the JWT exp claim, otherwise an assumed lifetime. The JWT
// is parsed without signature verification since the claim is only a
// cache hint, not an authorization decision.
func expiryFor(token tokenResponse, now time.Time) time.Time {
	if token.ExpiresIn > 0 {
		return now.Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	return now.Add(defaultLifetime)
}
