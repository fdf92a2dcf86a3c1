// Package configcmder provides the config command for managing persistent
// glean configuration stored in the .glean/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/glean/pkg/config"
)

const configLongDesc string = `Manage persistent glean configuration.

Configuration is stored as config.toml in the .glean/ directory and provides
default values for command flags. CLI flags and GLEAN_ environment variables
take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  llm.base_url, llm.api_key, llm.model, llm.max_tokens, llm.timeout,
  search.query_param, search.max_tokens,
  server.listen

Use subcommands to get, set, or list configuration values:
  glean config set <key> <value>    Set a configuration value
  glean config get <key>            Get a configuration value
  glean config list                 List all configuration values

Examples:
  glean config set llm.model gpt-4o
  glean config set llm.base_url http://localhost:11434
  glean config get llm.model
  glean config list`

const configShortDesc string = "Manage persistent glean configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

// display returns the value as shown to the user, masking secrets.
func display(key, value string) string {
	if config.IsSecretKey(key) {
		return config.Mask(value)
	}
	return value
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
