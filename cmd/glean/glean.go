// Package gleancmder
package gleancmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/glean/cmd/glean/config"
	initcmder "github.com/papercomputeco/glean/cmd/glean/init"
	searchcmder "github.com/papercomputeco/glean/cmd/glean/search"
	servecmder "github.com/papercomputeco/glean/cmd/glean/serve"
	summarizecmder "github.com/papercomputeco/glean/cmd/glean/summarize"
	versioncmder "github.com/papercomputeco/glean/cmd/version"
)

const gleanLongDesc string = `Glean streams short LLM summaries of web pages and quick answers to
search queries.

Use it from the terminal:
  glean summarize <url|file>   Summarize a page
  glean search <query|url>     Answer a search query, then ask follow-ups

Or run the widget server for browser widgets:
  glean serve`

const gleanShortDesc string = "Glean - page summaries and search answers"

func NewGleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "glean",
		Short:        gleanShortDesc,
		Long:         gleanLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .glean/ config directory")

	// Add subcommands
	cmd.AddCommand(summarizecmder.NewSummarizeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
