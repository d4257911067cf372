package config

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Auth: AuthConfig{
			TokenPath: "/as/token.oauth2",
			GrantType: "client_credentials",
		},
		RequestTimeoutMs:    30000,
		ConnectionTimeoutMs: 10000,
		LogLevel:            "info",
	}
}
