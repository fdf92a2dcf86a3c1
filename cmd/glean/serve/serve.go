// Package servecmder provides the serve command, which runs the widget
// server browser widgets stream summaries and answers from.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/glean/api"
	"github.com/papercomputeco/glean/pkg/config"
	"github.com/papercomputeco/glean/pkg/logger"
	"github.com/papercomputeco/glean/pkg/openai"
)

type ServeCommander struct {
	listen       string
	baseURL      string
	model        string
	timeout      string
	maxTokens    uint
	queryParam   string
	sessionTTL   string
	maxSessions  uint
	allowPrivate bool
	logFile      string
	debug        bool

	settings        config.LLMSettings
	server          config.ServerSettings
	searchMaxTokens uint
	logger          *slog.Logger
}

const serveLongDesc string = `Run the glean widget server.

Browser widgets open an event stream per summary or search answer:
  GET    /summarize?url=<page>       Stream a page summary
  GET    /search?q=<query>           Stream a search answer
  POST   /sessions/:id/ask           Stream the answer to a follow-up question
  POST   /sessions/:id/condense      Toggle the condensed view of an answer
  DELETE /sessions/:id               Close a widget

The server listens on loopback and refuses to summarize pages on loopback
or private network addresses unless --allow-private is set.

Examples:
  glean serve
  glean serve --listen :9000 --model gpt-4o
  glean serve --log-file glean.log`

const serveShortDesc string = "Run the glean widget server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
				config.FlagBaseURL,
				config.FlagModel,
				config.FlagMaxTokens,
				config.FlagTimeout,
				config.FlagQueryParam,
				config.FlagSessionTTL,
				config.FlagMaxSessions,
				config.FlagAllowPrivate,
			})

			cmder.settings, err = config.ResolveLLM(v)
			if err != nil {
				return err
			}
			cmder.server, err = config.ResolveServer(v)
			if err != nil {
				return err
			}
			cmder.queryParam = v.GetString("search.query_param")
			cmder.searchMaxTokens = v.GetUint("search.max_tokens")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagQueryParam, &cmder.queryParam)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagSessionTTL, &cmder.sessionTTL)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxSessions, &cmder.maxSessions)
	config.AddBoolFlag(cmd, config.Flags, config.FlagAllowPrivate, &cmder.allowPrivate)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	if c.logFile != "" {
		fileLogger, closer, err := logger.OpenFile(c.logFile, logger.WithDebug(c.debug))
		if err != nil {
			return err
		}
		defer closer.Close()

		c.logger = logger.Multi(c.logger, fileLogger)
	}

	client := openai.NewClient(openai.Config{
		BaseURL: c.settings.BaseURL,
		APIKey:  c.settings.APIKey,
		Model:   c.settings.Model,
		Timeout: c.settings.Timeout,
		Logger:  c.logger,
	})

	server, err := api.NewServer(api.Config{
		ListenAddr:          c.server.Listen,
		SummaryMaxTokens:    c.settings.MaxTokens,
		SearchMaxTokens:     c.searchMaxTokens,
		QueryParam:          c.queryParam,
		AllowPrivateTargets: c.server.AllowPrivate,
		SessionIdleTTL:      c.server.SessionTTL,
		MaxSessions:         c.server.MaxSessions,
	}, client, c.logger)
	if err != nil {
		return fmt.Errorf("creating widget server: %w", err)
	}

	c.logger.Info("using model",
		"base_url", c.settings.BaseURL,
		"model", c.settings.Model,
	)
	if c.server.AllowPrivate {
		c.logger.Warn("summarizing pages on private networks is allowed")
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("widget server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
