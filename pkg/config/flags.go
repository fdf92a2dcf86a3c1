package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --model
// on both "glean summarize" and "glean search").
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "llm.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagBaseURL         = "base-url"
	FlagModel           = "model"
	FlagMaxTokens       = "max-tokens"
	FlagTimeout         = "timeout"
	FlagQueryParam      = "query-param"
	FlagSearchMaxTokens = "search-max-tokens"
	FlagListen          = "listen"
	FlagSessionTTL      = "session-ttl"
	FlagMaxSessions     = "max-sessions"
	FlagAllowPrivate    = "allow-private"
)

// Flags is the shared registry used by the summarize, search and serve
// commands.
var Flags = FlagSet{
	FlagBaseURL:         {Name: "base-url", ViperKey: "llm.base_url", Description: "Base URL of the OpenAI compatible API"},
	FlagModel:           {Name: "model", Shorthand: "m", ViperKey: "llm.model", Description: "Model identifier"},
	FlagMaxTokens:       {Name: "max-tokens", ViperKey: "llm.max_tokens", Description: "Token cap for summaries (0 for none)"},
	FlagTimeout:         {Name: "timeout", ViperKey: "llm.timeout", Description: "Request timeout, e.g. 5m"},
	FlagQueryParam:      {Name: "query-param", ViperKey: "search.query_param", Description: "URL parameter holding the search query"},
	FlagSearchMaxTokens: {Name: "max-tokens", ViperKey: "search.max_tokens", Description: "Token cap for answers (0 for none)"},
	FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "server.listen", Description: "Address for the widget server to listen on"},
	FlagSessionTTL:      {Name: "session-ttl", ViperKey: "server.session_ttl", Description: "Drop widget sessions idle for this long, e.g. 30m"},
	FlagMaxSessions:     {Name: "max-sessions", ViperKey: "server.max_sessions", Description: "Maximum number of widget sessions held at once"},
	FlagAllowPrivate:    {Name: "allow-private", ViperKey: "server.allow_private", Description: "Allow summarizing pages on loopback and private networks"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
