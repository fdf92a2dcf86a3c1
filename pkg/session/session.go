// Package session drives one summary or search widget: it extracts the
// input, streams the model's answer into a Sink as rendered markup, keeps
// the conversation for follow-up questions and condenses finished answers.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/papercomputeco/glean/pkg/extract"
	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/logger"
	"github.com/papercomputeco/glean/pkg/markdown"
	"github.com/papercomputeco/glean/pkg/openai"
	"github.com/papercomputeco/glean/pkg/utils"
)

// Completer sends chat completion requests. *openai.Client implements it.
type Completer interface {
	Stream(ctx context.Context, req *llm.ChatRequest, onFragment openai.FragmentFunc) (string, error)
	Complete(ctx context.Context, req *llm.ChatRequest) (string, error)
}

// Session owns the response text and conversation history of one widget.
// Starting a request cancels the one in flight; only the newest request
// may write to the sink or the history.
type Session struct {
	id        string
	completer Completer
	maxTokens uint
	logger    *slog.Logger

	mu      sync.Mutex
	sink    Sink
	history *llm.History

	// generation increments for every request and on Close. A request
	// whose generation is no longer current is stale.
	generation uint64
	cancel     context.CancelFunc
	running    bool
	closed     bool

	// pendingTurn is set while the history ends with the user turn of the
	// request in flight.
	pendingTurn bool

	full             string
	condensed        string
	condenseDone     bool
	showingCondensed bool

	condense       singleflight.Group
	condenseCancel context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithMaxTokens caps the tokens generated for each streamed answer.
// Zero means no cap.
func WithMaxTokens(n uint) Option {
	return func(s *Session) {
		s.maxTokens = n
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSink attaches the initial sink.
func WithSink(sink Sink) Option {
	return func(s *Session) {
		s.Attach(sink)
	}
}

// New creates a session that sends its requests through c.
func New(c Completer, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		completer: c,
		logger:    logger.Nop(),
		sink:      nopSink{},
		history:   &llm.History{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	return s.id
}

// Attach replaces the sink. A nil sink discards output.
func (s *Session) Attach(sink Sink) {
	if sink == nil {
		sink = nopSink{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Detach removes sink if it is still the attached sink, leaving a sink
// attached by a later request in place.
func (s *Session) Detach(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == sink {
		s.sink = nopSink{}
	}
}

// History returns a copy of the conversation.
func (s *Session) History() []llm.Message {
	return s.history.Messages()
}

// Text returns the last completed response.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}

// Running reports whether a request is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Summarize starts a new conversation asking for a summary of the text
// produced by src.
func (s *Session) Summarize(ctx context.Context, src extract.Source) (string, error) {
	return s.start(ctx, src, llm.SummaryPrompt)
}

// Search starts a new conversation asking for an answer to the query
// produced by src.
func (s *Session) Search(ctx context.Context, src extract.Source) (string, error) {
	return s.start(ctx, src, llm.SearchPrompt)
}

// Ask streams an answer to a follow-up question using the whole
// conversation so far.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	return s.ask(ctx, question, nil)
}

// AskTo is Ask writing to sink. The sink is attached together with
// superseding the request in flight, so that request can no longer write
// to it. A rejected question is reported on sink and leaves the attached
// sink in place.
func (s *Session) AskTo(ctx context.Context, question string, sink Sink) (string, error) {
	if sink == nil {
		sink = nopSink{}
	}
	return s.ask(ctx, question, sink)
}

func (s *Session) ask(ctx context.Context, question string, sink Sink) (string, error) {
	question = strings.TrimSpace(question)

	switch {
	case question == "":
		return "", s.reject(&extract.MissingInputError{Input: "question"}, sink)
	case s.history.Len() == 0:
		return "", s.reject(ErrNoConversation, sink)
	}

	runCtx, gen, err := s.begin(ctx, sink)
	if err != nil {
		return "", err
	}

	return s.stream(runCtx, gen, question, false)
}

// reject reports err without disturbing the request in flight or the
// response on display. A nil sink means the attached one.
func (s *Session) reject(err error, sink Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if sink == nil {
		sink = s.sink
	}
	sink.ShowError(err.Error())
	return err
}

func (s *Session) start(ctx context.Context, src extract.Source, prompt func(string) string) (string, error) {
	runCtx, gen, err := s.begin(ctx, nil)
	if err != nil {
		return "", err
	}

	text, err := src.Text(runCtx)
	if err != nil {
		return "", s.fail(gen, err)
	}

	return s.stream(runCtx, gen, prompt(text), true)
}

// begin supersedes the request in flight and starts a new generation. A
// non-nil sink replaces the attached one.
func (s *Session) begin(ctx context.Context, sink Sink) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, ErrClosed
	}

	s.supersede()
	if sink != nil {
		s.sink = sink
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.full = ""
	s.condensed = ""
	s.condenseDone = false
	s.showingCondensed = false

	s.sink.ShowLoading()
	return runCtx, s.generation, nil
}

// supersede cancels the request in flight, rolls back its user turn and
// bumps the generation. Callers hold s.mu.
func (s *Session) supersede() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.condenseCancel != nil {
		s.condenseCancel()
		s.condenseCancel = nil
	}
	if s.pendingTurn {
		s.history.Pop()
		s.pendingTurn = false
	}
	s.running = false
	s.generation++
}

func (s *Session) stream(ctx context.Context, gen uint64, prompt string, newConversation bool) (string, error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return "", s.staleErr()
	}
	if newConversation {
		s.history.Reset()
	}
	s.history.Append(llm.NewUserMessage(prompt))
	s.pendingTurn = true
	messages := s.history.Messages()
	s.mu.Unlock()

	req := llm.NewChatRequest("", messages, true, s.maxTokens)
	s.logger.Debug("starting stream", "turns", len(messages), "prompt", utils.Truncate(prompt, 80))

	text, err := s.completer.Stream(ctx, req, func(fragment, accumulated string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.generation {
			return
		}
		if fw, ok := s.sink.(FragmentWriter); ok {
			fw.WriteFragment(fragment)
		}
		s.sink.RenderIncremental(markdown.Render(accumulated))
	})
	if err != nil {
		return "", s.fail(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return "", s.staleErrLocked()
	}

	s.history.Append(llm.NewAssistantMessage(text))
	s.pendingTurn = false
	s.finish()
	s.full = text
	s.sink.RenderFinal(markdown.Render(text), s)

	return text, nil
}

// fail ends the request of generation gen with err. A stale request
// returns ErrSuperseded or ErrClosed without touching the sink.
func (s *Session) fail(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return s.staleErrLocked()
	}

	if s.pendingTurn {
		s.history.Pop()
		s.pendingTurn = false
	}
	s.finish()

	s.logger.Warn("request failed", "error", err)
	s.sink.ShowError(err.Error())
	return err
}

// finish releases the context of the current request. Callers hold s.mu.
func (s *Session) finish() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

func (s *Session) staleErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleErrLocked()
}

func (s *Session) staleErrLocked() error {
	if s.closed {
		return ErrClosed
	}
	return ErrSuperseded
}

// Condense returns a one or two sentence version of the last completed
// response. The result is cached until the next request, and concurrent
// calls share a single API request. Failures are returned as
// *CondenseError and are not cached.
//
// The shared request does not end with the caller that started it: a
// cancelled caller returns at once while the others keep waiting. It is
// bounded by the completer's timeout and aborted by the next request.
func (s *Session) Condense(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if s.running {
		s.mu.Unlock()
		return "", ErrSessionActive
	}
	if s.full == "" {
		s.mu.Unlock()
		return "", ErrNothingToCondense
	}
	if s.condenseDone {
		cached := s.condensed
		s.mu.Unlock()
		return cached, nil
	}
	gen := s.generation
	full := s.full
	s.mu.Unlock()

	ch := s.condense.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.condenseShared(context.WithoutCancel(ctx), gen, full)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", &CondenseError{Err: ctx.Err()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return "", s.staleErrLocked()
	}
	if res.Err != nil {
		s.logger.Warn("condense failed", "error", res.Err)
		return "", &CondenseError{Err: res.Err}
	}
	return res.Val.(string), nil
}

// condenseShared runs the condense request for generation gen and caches a
// successful result, even when every caller has gone.
func (s *Session) condenseShared(ctx context.Context, gen uint64, full string) (string, error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return "", s.staleErr()
	}
	if s.condenseDone {
		cached := s.condensed
		s.mu.Unlock()
		return cached, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.condenseCancel = cancel
	s.mu.Unlock()
	defer cancel()

	req := llm.NewChatRequest("", []llm.Message{llm.NewUserMessage(llm.CondensePrompt(full))}, false, 0)
	text, err := s.completer.Complete(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return "", s.staleErrLocked()
	}
	s.condenseCancel = nil
	if err != nil {
		return "", err
	}
	s.condensed = text
	s.condenseDone = true
	return text, nil
}

// ToggleCondense switches the completed response between the full and the
// condensed view and shows the result on the sink. When condensing fails
// the sink shows the full response again and the error is returned.
func (s *Session) ToggleCondense(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.showingCondensed {
		s.showingCondensed = false
		view := View{Markup: markdown.Render(s.full)}
		s.sink.RenderFinal(view.Markup, s)
		s.mu.Unlock()
		return view, nil
	}
	s.mu.Unlock()

	condensed, err := s.Condense(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	var condenseErr *CondenseError
	switch {
	case errors.As(err, &condenseErr):
		view := View{Markup: markdown.Render(s.full)}
		s.sink.RenderFinal(view.Markup, s)
		return view, err
	case err != nil:
		return View{}, err
	}

	s.showingCondensed = true
	view := View{Markup: markdown.Render(condensed), Condensed: true}
	s.sink.ShowCondensed(view.Markup)
	return view, nil
}

// Close aborts the request in flight. Every later call fails with
// ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.supersede()
	s.logger.Debug("session closed")
}
