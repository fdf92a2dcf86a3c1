package config

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = "5m"

	defaultQueryParam      = "q"
	defaultSearchMaxTokens = 150

	defaultServerListen      = "127.0.0.1:8090"
	defaultServerSessionTTL  = "30m"
	defaultServerMaxSessions = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		LLM: LLMConfig{
			BaseURL: defaultBaseURL,
			Model:   defaultModel,
			Timeout: defaultTimeout,
		},
		Search: SearchConfig{
			QueryParam: defaultQueryParam,
			MaxTokens:  defaultSearchMaxTokens,
		},
		Server: ServerConfig{
			Listen:      defaultServerListen,
			SessionTTL:  defaultServerSessionTTL,
			MaxSessions: defaultServerMaxSessions,
		},
	}
}
