package suite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/whtdrgn101/apicheck/packages/core/config"
	"github.com/whtdrgn101/apicheck/packages/validation"
)

type testBackend struct {
	tokenServer *httptest.Server
	apiServer   *httptest.Server

	fetchCount atomic.Int64

	mu         sync.Mutex
	lastScopes string
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{}

	b.tokenServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		b.fetchCount.Add(1)
		b.mu.Lock()
		b.lastScopes = r.PostFormValue("scope")
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(b.tokenServer.Close)

	b.apiServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user": {"id": 123, "name": "Ada"}}`))
	}))
	t.Cleanup(b.apiServer.Close)

	return b
}

func (b *testBackend) scopes() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastScopes
}

func (b *testBackend) config() *config.Config {
	cfg := config.Default()
	cfg.Auth.BaseURL = b.tokenServer.URL
	cfg.Auth.TokenPath = "/token"
	cfg.Auth.ClientID = "client"
	cfg.Auth.ClientSecret = "secret"
	cfg.Auth.Scopes = []string{"read"}
	cfg.APIBaseURL = b.apiServer.URL
	return cfg
}

func newTestSuite(t *testing.T, b *testBackend) *Suite {
	t.Helper()
	s, err := New(b.config(), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return s
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	// No client credentials.
	_, err := New(cfg)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAuthenticatedRequest_EndToEnd(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	resp, err := s.AuthenticatedRequest().Get(context.Background(), "/users/123")
	require.NoError(t, err)

	err = validation.Check(resp).
		StatusCode(200).
		ContentType("application/json").
		JSONPathEquals("user/id", 123).
		JSONPathEquals("user/name", "Ada").
		Err()
	require.NoError(t, err)

	assert.Equal(t, "read", b.scopes())
}

func TestAuthenticatedRequest_TokenReusedAcrossRequests(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	for i := 0; i < 3; i++ {
		resp, err := s.AuthenticatedRequest().Get(context.Background(), "/users/123")
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
	}
	assert.Equal(t, int64(1), b.fetchCount.Load())
}

func TestAuthenticatedRequest_WithScopes(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	_, err := s.AuthenticatedRequest(WithScopes("admin", "write")).Get(context.Background(), "/users/123")
	require.NoError(t, err)

	assert.Equal(t, "admin write", b.scopes())
}

func TestAuthenticatedRequest_WithBypassCache(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	for i := 0; i < 2; i++ {
		_, err := s.AuthenticatedRequest(WithBypassCache()).Get(context.Background(), "/users/123")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), b.fetchCount.Load())
}

func TestUnauthenticatedRequest(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	resp, err := s.UnauthenticatedRequest().Get(context.Background(), "/users/123")
	require.NoError(t, err)

	require.NoError(t, validation.Check(resp).StatusCode(401).Err())
	assert.Equal(t, int64(0), b.fetchCount.Load(), "no token must be fetched")
}

func TestInvalidateTokens(t *testing.T) {
	b := newTestBackend(t)
	s := newTestSuite(t, b)

	_, err := s.AuthenticatedRequest().Get(context.Background(), "/users/123")
	require.NoError(t, err)
	require.Equal(t, int64(1), b.fetchCount.Load())

	s.InvalidateTokens()

	_, err = s.AuthenticatedRequest().Get(context.Background(), "/users/123")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.fetchCount.Load())
}

func TestLoad_FromConfigFile(t *testing.T) {
	b := newTestBackend(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "apicheck.yaml")
	content := `
auth:
  baseUrl: ` + b.tokenServer.URL + `
  tokenPath: /token
  clientId: client
  clientSecret: secret
  scopes: [read]
apiBaseUrl: ` + b.apiServer.URL + `
logLevel: error
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path, WithLogger(zap.NewNop()))
	require.NoError(t, err)

	resp, err := s.AuthenticatedRequest().Get(context.Background(), "/users/123")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestTemplates_RenderPayload(t *testing.T) {
	b := newTestBackend(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_user.json"), []byte(`{"name": "{{name}}"}`), 0o644))

	s, err := New(b.config(), WithLogger(zap.NewNop()), WithTemplatePaths(dir))
	require.NoError(t, err)

	payload, err := s.Templates.Render("create_user.json", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Ada"}`, payload)
}
