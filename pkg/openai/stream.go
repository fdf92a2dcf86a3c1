package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/stream"
	"github.com/papercomputeco/glean/pkg/utils"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// FragmentFunc receives each content fragment together with the text
// accumulated so far, in arrival order.
type FragmentFunc func(fragment, accumulated string)

// Stream sends req with streaming enabled and decodes the response,
// calling onFragment for every non-empty fragment. It returns the full
// response text once the stream ends.
//
// Cancelling ctx aborts the request and the body read; Stream then returns
// the context error. A non-2xx status or a failed body read is a
// NetworkError.
func (c *Client) Stream(ctx context.Context, req *llm.ChatRequest, onFragment FragmentFunc) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body := *req
	body.Model = c.modelFor(req)
	body.Stream = true

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", utils.UserAgent())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("streaming completion", "model", body.Model, "messages", len(body.Messages))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &NetworkError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	decoder := stream.NewDecoder(resp.Body,
		stream.WithLogger(c.logger),
		stream.WithTee(c.transcript),
	)

	text, err := decoder.Run(ctx, onFragment)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return text, ctxErr
		}
		return text, &NetworkError{Err: err}
	}

	c.logger.Debug("stream complete", "chars", len(text))
	return text, nil
}

// errorMessage pulls error.message out of an API error body, falling back
// to the raw body.
func errorMessage(raw []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(bytes.TrimSpace(raw))
}
