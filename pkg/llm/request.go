package llm

// ChatRequest is the body of POST /v1/chat/completions.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o-mini", "llama3.2")
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Whether to stream the response as server-sent events
	Stream bool `json:"stream"`

	// Optional cap on generated tokens. Nil omits the field.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// NewChatRequest builds a request for model over messages. A maxTokens of
// zero leaves the cap unset.
func NewChatRequest(model string, messages []Message, stream bool, maxTokens uint) *ChatRequest {
	req := &ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}
	if maxTokens > 0 {
		n := int(maxTokens)
		req.MaxTokens = &n
	}
	return req
}
