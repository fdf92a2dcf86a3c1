// Package openai talks to OpenAI compatible chat completion endpoints.
// Streamed requests are decoded with pkg/stream; one-shot completions go
// through the official SDK.
package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/logger"
)

const completionsPath = "/v1/chat/completions"

// Config holds the connection settings for a Client.
type Config struct {
	// BaseURL is the API root without the /v1 suffix,
	// e.g. "https://api.openai.com" or "http://localhost:11434".
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is used for requests that do not name one.
	Model string

	// Timeout bounds a whole request including the streamed body.
	// Zero means no timeout.
	Timeout time.Duration

	// HTTPClient defaults to a client without a timeout so long streams are
	// not cut off.
	HTTPClient *http.Client

	// Transcript, when set, receives the raw SSE bytes of every streamed
	// response.
	Transcript io.Writer

	Logger *slog.Logger
}

// Client is a chat completion client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	transcript io.Writer
	logger     *slog.Logger

	sdk sdk.Client
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		transcript: cfg.Transcript,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}

	opts := []option.RequestOption{
		option.WithBaseURL(c.baseURL + "/v1/"),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	}
	if c.apiKey != "" {
		opts = append(opts, option.WithAPIKey(c.apiKey))
	}
	c.sdk = sdk.NewClient(opts...)

	return c
}

// Model returns the default model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a non-streaming request and returns
// choices[0].message.content.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.modelFor(req)),
		Messages: toSDKMessages(req.Messages),
	}
	if req.MaxTokens != nil {
		params.MaxTokens = sdk.Int(int64(*req.MaxTokens))
	}

	c.logger.Debug("sending completion", "model", params.Model, "messages", len(req.Messages))

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", &NetworkError{StatusCode: apiErr.StatusCode, Message: err.Error(), Err: err}
		}
		return "", &NetworkError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &NetworkError{Message: "no choices in response", Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) modelFor(req *llm.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func toSDKMessages(messages []llm.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		case llm.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}
