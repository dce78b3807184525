package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.Endpoint = "http://127.0.0.1/graphql"
	cfg.API.AllowInsecure = true
	cfg.API.HTTPTimeout = 5 * time.Second
	cfg.API.UserAgent = "rmql-test/1.0"
	cfg.API.RateLimit = 0
	cfg.Search.Debounce = 10 * time.Millisecond
	cfg.Database.Path = ":memory:"
	cfg.Database.SearchIndex = ""
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
