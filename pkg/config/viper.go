package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/glean/pkg/dotdir"
)

// fallbackAPIKeyEnv is consulted when llm.api_key is not set anywhere else.
const fallbackAPIKeyEnv = "OPENAI_API_KEY"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the GLEAN_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (GLEAN_LLM_MODEL, GLEAN_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GLEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// ResolveAPIKey returns llm.api_key from the viper chain, falling back to
// the OPENAI_API_KEY environment variable.
func ResolveAPIKey(v *viper.Viper) string {
	if key := v.GetString("llm.api_key"); key != "" {
		return key
	}
	return os.Getenv(fallbackAPIKeyEnv)
}

// ResolveTimeout parses llm.timeout. An empty value means no timeout.
func ResolveTimeout(v *viper.Viper) (time.Duration, error) {
	raw := v.GetString("llm.timeout")
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid llm.timeout %q: %w", raw, err)
	}
	return d, nil
}

// LLMSettings is the resolved connection to the chat-completion API.
type LLMSettings struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens uint
	Timeout   time.Duration
}

// ResolveLLM reads the llm.* keys from the viper chain.
func ResolveLLM(v *viper.Viper) (LLMSettings, error) {
	timeout, err := ResolveTimeout(v)
	if err != nil {
		return LLMSettings{}, err
	}

	return LLMSettings{
		BaseURL:   v.GetString("llm.base_url"),
		APIKey:    ResolveAPIKey(v),
		Model:     v.GetString("llm.model"),
		MaxTokens: v.GetUint("llm.max_tokens"),
		Timeout:   timeout,
	}, nil
}

// ServerSettings is the resolved widget server configuration.
type ServerSettings struct {
	Listen       string
	SessionTTL   time.Duration
	MaxSessions  int
	AllowPrivate bool
}

// ResolveServer reads the server.* keys from the viper chain.
func ResolveServer(v *viper.Viper) (ServerSettings, error) {
	var ttl time.Duration
	if raw := v.GetString("server.session_ttl"); raw != "" {
		var err error
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			return ServerSettings{}, fmt.Errorf("invalid server.session_ttl %q: %w", raw, err)
		}
	}

	return ServerSettings{
		Listen:       v.GetString("server.listen"),
		SessionTTL:   ttl,
		MaxSessions:  v.GetInt("server.max_sessions"),
		AllowPrivate: v.GetBool("server.allow_private"),
	}, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// LLM
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	// Search
	v.SetDefault("search.query_param", d.Search.QueryParam)
	v.SetDefault("search.max_tokens", d.Search.MaxTokens)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("server.max_sessions", d.Server.MaxSessions)
	v.SetDefault("server.allow_private", d.Server.AllowPrivate)
}
