package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent glean configuration stored as config.toml
// in the .glean/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	LLM     LLMConfig    `toml:"llm"`
	Search  SearchConfig `toml:"search"`
	Server  ServerConfig `toml:"server"`
}

// LLMConfig holds settings for the upstream chat-completion API.
type LLMConfig struct {
	// BaseURL is the scheme + host of an OpenAI compatible API. The
	// "/v1/chat/completions" path is appended by the client.
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey is sent as a bearer credential. Prefer the GLEAN_LLM_API_KEY or
	// OPENAI_API_KEY environment variables over storing it in the file.
	APIKey string `toml:"api_key,omitempty"`

	Model string `toml:"model,omitempty"`

	// MaxTokens caps summary responses. Zero means no cap is sent.
	MaxTokens uint `toml:"max_tokens,omitempty"`

	// Timeout bounds a whole request including the streamed body,
	// as a Go duration string (e.g. "5m").
	Timeout string `toml:"timeout,omitempty"`
}

// SearchConfig holds settings for the search answer pipeline.
type SearchConfig struct {
	// QueryParam is the URL parameter holding the search query.
	QueryParam string `toml:"query_param,omitempty"`

	// MaxTokens caps search answers and follow-ups.
	MaxTokens uint `toml:"max_tokens,omitempty"`
}

// ServerConfig holds widget server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`

	// SessionTTL drops widget sessions idle for this long, as a Go duration
	// string.
	SessionTTL string `toml:"session_ttl,omitempty"`

	// MaxSessions caps the widget sessions held at once.
	MaxSessions uint `toml:"max_sessions,omitempty"`

	// AllowPrivate lets /summarize fetch pages on loopback and private
	// network addresses.
	AllowPrivate bool `toml:"allow_private,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"llm.base_url": {
		get: func(c *Config) string { return c.LLM.BaseURL },
		set: func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	},
	"llm.api_key": {
		get:    func(c *Config) string { return c.LLM.APIKey },
		set:    func(c *Config, v string) error { c.LLM.APIKey = v; return nil },
		secret: true,
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.max_tokens": {
		get: func(c *Config) string { return formatUint(c.LLM.MaxTokens) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.max_tokens: %w", err)
			}
			c.LLM.MaxTokens = uint(n)
			return nil
		},
	},
	"llm.timeout": {
		get: func(c *Config) string { return c.LLM.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for llm.timeout: %w", err)
			}
			c.LLM.Timeout = v
			return nil
		},
	},
	"search.query_param": {
		get: func(c *Config) string { return c.Search.QueryParam },
		set: func(c *Config, v string) error { c.Search.QueryParam = v; return nil },
	},
	"search.max_tokens": {
		get: func(c *Config) string { return formatUint(c.Search.MaxTokens) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.max_tokens: %w", err)
			}
			c.Search.MaxTokens = uint(n)
			return nil
		},
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.session_ttl": {
		get: func(c *Config) string { return c.Server.SessionTTL },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for server.session_ttl: %w", err)
			}
			c.Server.SessionTTL = v
			return nil
		},
	},
	"server.max_sessions": {
		get: func(c *Config) string { return formatUint(c.Server.MaxSessions) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for server.max_sessions: %w", err)
			}
			c.Server.MaxSessions = uint(n)
			return nil
		},
	},
	"server.allow_private": {
		get: func(c *Config) string { return strconv.FormatBool(c.Server.AllowPrivate) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for server.allow_private: %w", err)
			}
			c.Server.AllowPrivate = b
			return nil
		},
	},
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}
