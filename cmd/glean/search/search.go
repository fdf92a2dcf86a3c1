// Package searchcmder provides the search command, which streams a short
// answer to a search query and then takes follow-up questions.
package searchcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
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

var askPrompt = cliui.PromptStyle.Render("ask> ")

type searchCommander struct {
	baseURL    string
	model      string
	timeout    string
	maxTokens  uint
	queryParam string
	output     string
	transcript string
	once       bool
	debug      bool

	settings config.LLMSettings
	logger   *slog.Logger
}

const searchLongDesc string = `Answer a search query.

The query is either given as words or read from the query parameter of a
search results URL. The answer streams in, after which follow-up questions
continue the same conversation:

  /condense   Toggle a one or two sentence version of the last answer
  /exit       Quit (Ctrl+D works too)

Ctrl+C aborts the answer being streamed.

Examples:
  glean search how do goroutines work
  glean search "https://duckduckgo.com/?q=golang+generics"
  glean search "https://example.com/find?query=go" --query-param query
  glean search what is a mutex --once`

const searchShortDesc string = "Answer a search query"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query...|url>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagBaseURL,
				config.FlagModel,
				config.FlagTimeout,
				config.FlagSearchMaxTokens,
				config.FlagQueryParam,
			})

			cmder.settings, err = config.ResolveLLM(v)
			if err != nil {
				return err
			}
			cmder.settings.MaxTokens = v.GetUint("search.max_tokens")
			cmder.queryParam = v.GetString("search.query_param")
			return nil
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

			return cmder.run(cmd, args, mode)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagQueryParam, &cmder.queryParam)
	config.AddUintFlag(cmd, config.Flags, config.FlagSearchMaxTokens, &cmder.maxTokens)
	cmd.Flags().StringVarP(&cmder.output, "output", "o", string(cliui.OutputText), "Output mode: text, html or pretty")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Append the raw event stream of every response to this file")
	cmd.Flags().BoolVar(&cmder.once, "once", false, "Print the answer and exit without follow-up questions")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, args []string, mode cliui.OutputMode) error {
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

	// The sink reports request failures itself.
	cmd.SilenceErrors = true
	err := interruptible(cmd.Context(), func(ctx context.Context) error {
		_, err := sess.Search(ctx, c.source(args))
		return err
	})
	if err != nil || c.once {
		return err
	}

	return c.followUps(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), sess)
}

// source reads the query from a single URL argument, or joins the
// arguments into a literal query.
func (c *searchCommander) source(args []string) extract.Source {
	if len(args) == 1 && (strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://")) {
		return extract.NewQuery(args[0], c.queryParam)
	}
	return extract.Literal(strings.Join(args, " "))
}

func (c *searchCommander) followUps(ctx context.Context, in io.Reader, status io.Writer, sess *session.Session) error {
	fmt.Fprintf(status, "\n  %s\n\n",
		cliui.DimStyle.Render("Ask a follow-up question. /condense toggles a short answer, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(status, askPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			return nil
		case "/condense":
			err := interruptible(ctx, func(ctx context.Context) error {
				_, err := sess.ToggleCondense(ctx)
				return err
			})
			if err != nil {
				fmt.Fprintf(status, "  %s %v\n", cliui.FailMark, err)
			}
			continue
		}

		// Failed questions are shown by the sink and rolled back, so the
		// user can simply ask again.
		_ = interruptible(ctx, func(ctx context.Context) error {
			_, err := sess.Ask(ctx, input)
			return err
		})
	}

	fmt.Fprintln(status)
	return scanner.Err()
}

// interruptible runs fn with a context that Ctrl+C cancels. Outside of fn
// an interrupt terminates the process as usual.
func interruptible(ctx context.Context, fn func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return fn(ctx)
}
