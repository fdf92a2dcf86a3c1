// Package summarizecmder provides the summarize command, which streams a
// summary of a web page or HTML file to the terminal.
package summarizecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glean/pkg/cliui"
	"github.com/papercomputeco/glean/pkg/config"
	"github.com/papercomputeco/glean/pkg/extract"
	"github.com/papercomputeco/glean/pkg/logger"
	"github.com/papercomputeco/glean/pkg/openai"
	"github.com/papercomputeco/glean/pkg/session"
)

type summarizeCommander struct {
	baseURL    string
	model      string
	timeout    string
	maxTokens  uint
	output     string
	transcript string
	condense   bool
	debug      bool

	settings config.LLMSettings
	logger   *slog.Logger
}

const summarizeLongDesc string = `Summarize a web page.

The visible text of the page is sent to the configured OpenAI compatible
API and the summary is printed as it streams in. The input may be a URL,
a path to an HTML file, or "-" to read HTML from stdin.

Output modes:
  text     Print the summary as it arrives (default)
  html     Print the rendered HTML markup once complete
  pretty   Render the completed summary as markdown in the terminal

Examples:
  glean summarize https://go.dev/blog/go1.22
  glean summarize ./page.html --output pretty
  curl -s https://example.com | glean summarize -
  glean summarize https://example.com --condense`

const summarizeShortDesc string = "Summarize a web page"

func NewSummarizeCmd() *cobra.Command {
	cmder := &summarizeCommander{}

	cmd := &cobra.Command{
		Use:   "summarize <url|file|->",
		Short: summarizeShortDesc,
		Long:  summarizeLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagBaseURL,
				config.FlagModel,
				config.FlagMaxTokens,
				config.FlagTimeout,
			})

			cmder.settings, err = config.ResolveLLM(v)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			mode, err := cliui.ParseOutputMode(cmder.output)
			if err != nil {
				return err
			}

			return cmder.run(cmd, args[0], mode)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	cmd.Flags().StringVarP(&cmder.output, "output", "o", string(cliui.OutputText), "Output mode: text, html or pretty")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Write the raw event stream of the response to this file")
	cmd.Flags().BoolVar(&cmder.condense, "condense", false, "Also print a condensed version of the summary")

	return cmd
}

func (c *summarizeCommander) run(cmd *cobra.Command, input string, mode cliui.OutputMode) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	cfg := openai.Config{
		BaseURL: c.settings.BaseURL,
		APIKey:  c.settings.APIKey,
		Model:   c.settings.Model,
		Timeout: c.settings.Timeout,
		Logger:  c.logger,
	}

	if c.transcript != "" {
		f, err := os.Create(c.transcript)
		if err != nil {
			return fmt.Errorf("creating transcript: %w", err)
		}
		defer f.Close()
		cfg.Transcript = f
	}

	sink := cliui.NewTerminalSink(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	sess := session.New(openai.NewClient(cfg),
		session.WithMaxTokens(c.settings.MaxTokens),
		session.WithLogger(c.logger),
		session.WithSink(sink),
	)
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// The sink reports request failures itself.
	cmd.SilenceErrors = true
	if _, err := sess.Summarize(ctx, c.source(cmd, input)); err != nil {
		return err
	}

	if !c.condense {
		return nil
	}

	cmd.SilenceErrors = false
	_, err := sess.ToggleCondense(ctx)
	return err
}

func (c *summarizeCommander) source(cmd *cobra.Command, input string) extract.Source {
	switch {
	case input == "-":
		return extract.NewPageText(cmd.InOrStdin())
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return extract.NewPage(input, extract.WithLogger(c.logger))
	default:
		return extract.NewFile(input)
	}
}
