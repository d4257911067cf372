package suite

import (
	"context"

	"go.uber.org/zap"

	"github.com/whtdrgn101/apicheck/packages/auth/oauth2"
	"github.com/whtdrgn101/apicheck/packages/core/config"
	"github.com/whtdrgn101/apicheck/packages/core/logging"
	"github.com/whtdrgn101/apicheck/packages/httpclient"
	"github.com/whtdrgn101/apicheck/packages/template"
)

// Suite wires the framework together for a test package: configuration,
// logging, token acquisition, the HTTP client, and payload templates.
// One Suite is typically created in TestMain and shared by every test;
// all components are safe for concurrent use.
type Suite struct {
	Config    *config.Config
	Logger    *zap.Logger
	Tokens    *oauth2.Provider
	Client    *httpclient.Client
	Templates *template.Service
}

// Option configures a Suite during construction.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	templatePaths []string
	clientOpts    []httpclient.ClientOption
	providerOpts  []oauth2.ProviderOption
}

// WithLogger replaces the logger built from the configured log level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTemplatePaths sets the directories searched for payload
// templates.
func WithTemplatePaths(paths ...string) Option {
	return func(o *options) { o.templatePaths = paths }
}

// WithClientOptions appends options to the HTTP client.
func WithClientOptions(opts ...httpclient.ClientOption) Option {
	return func(o *options) { o.clientOpts = append(o.clientOpts, opts...) }
}

// WithProviderOptions appends options to the token provider.
func WithProviderOptions(opts ...oauth2.ProviderOption) Option {
	return func(o *options) { o.providerOpts = append(o.providerOpts, opts...) }
}

// New builds a Suite from an already-loaded configuration. The
// configuration is validated first so a broken setup fails here, once,
// instead of inside every test.
func New(cfg *config.Config, opts ...Option) (*Suite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
	}

	providerOpts := append([]oauth2.ProviderOption{
		oauth2.WithLogger(logger.Named("oauth2")),
	}, o.providerOpts...)
	tokens := oauth2.NewProvider(&oauth2.Config{
		TokenURL:     cfg.TokenURL(),
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		GrantType:    cfg.Auth.GrantType,
		Timeout:      cfg.RequestTimeout(),
	}, providerOpts...)

	clientOpts := append([]httpclient.ClientOption{
		httpclient.WithTimeout(cfg.RequestTimeout()),
		httpclient.WithConnectionTimeout(cfg.ConnectionTimeout()),
		httpclient.WithValidateSSL(cfg.GetValidateSSL()),
		httpclient.WithLogger(logger.Named("http")),
	}, o.clientOpts...)
	client := httpclient.NewClient(clientOpts...)

	templates := template.New(o.templatePaths, template.WithLogger(logger.Named("template")))

	return &Suite{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Client:    client,
		Templates: templates,
	}, nil
}

// Load reads configuration from path (or the default search locations
// when path is empty) and builds a Suite from it.
func Load(path string, opts ...Option) (*Suite, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// RequestOption adjusts token acquisition for a single request chain.
type RequestOption func(*requestSettings)

type requestSettings struct {
	scopes      []string
	bypassCache bool
}

// WithScopes overrides the configured scopes for this request.
func WithScopes(scopes ...string) RequestOption {
	return func(r *requestSettings) { r.scopes = scopes }
}

// WithBypassCache forces a fresh token for this request, skipping the
// cache lookup.
func WithBypassCache() RequestOption {
	return func(r *requestSettings) { r.bypassCache = true }
}

// AuthenticatedRequest starts a request chain that acquires a bearer
// token before dispatch. Scopes and cache behavior default to the
// configuration and can be overridden per request.
func (s *Suite) AuthenticatedRequest(opts ...RequestOption) *httpclient.Builder {
	settings := requestSettings{
		scopes:      s.Config.Auth.Scopes,
		bypassCache: s.Config.Auth.BypassCache,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return httpclient.NewBuilder(s.Client, s.Config.APIBaseURL).
		WithTokenSource(httpclient.TokenSourceFunc(func(ctx context.Context) (string, error) {
			return s.Tokens.Token(ctx, settings.scopes, settings.bypassCache)
		}))
}

// UnauthenticatedRequest starts a request chain with no Authorization
// header, for endpoints that must reject or ignore missing credentials.
func (s *Suite) UnauthenticatedRequest() *httpclient.Builder {
	return httpclient.NewBuilder(s.Client, s.Config.APIBaseURL)
}

// InvalidateTokens drops every cached token, forcing re-authentication
// on the next request.
func (s *Suite) InvalidateTokens() {
	s.Tokens.InvalidateAll()
}

// Close clears cached tokens and flushes the logger. Call it from
// TestMain after the tests run.
func (s *Suite) Close() {
	s.Tokens.InvalidateAll()
	_ = s.Logger.Sync()
}
