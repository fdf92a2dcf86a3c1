package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/openai"
	"github.com/papercomputeco/glean/pkg/session"
)

type streamFunc func(ctx context.Context, req *llm.ChatRequest, onFragment openai.FragmentFunc) (string, error)

type completeFunc func(ctx context.Context, req *llm.ChatRequest) (string, error)

// fakeCompleter plays back scripted stream and completion results, one per
// call, repeating the last script when it runs out.
type fakeCompleter struct {
	mu        sync.Mutex
	streams   []streamFunc
	completes []completeFunc

	streamReqs   []*llm.ChatRequest
	completeReqs []*llm.ChatRequest
}

func (f *fakeCompleter) Stream(ctx context.Context, req *llm.ChatRequest, onFragment openai.FragmentFunc) (string, error) {
	f.mu.Lock()
	idx := len(f.streamReqs)
	f.streamReqs = append(f.streamReqs, req)
	fn := f.streams[min(idx, len(f.streams)-1)]
	f.mu.Unlock()
	return fn(ctx, req, onFragment)
}

func (f *fakeCompleter) Complete(ctx context.Context, req *llm.ChatRequest) (string, error) {
	f.mu.Lock()
	idx := len(f.completeReqs)
	f.completeReqs = append(f.completeReqs, req)
	fn := f.completes[min(idx, len(f.completes)-1)]
	f.mu.Unlock()
	return fn(ctx, req)
}

func (f *fakeCompleter) streamCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streamReqs)
}

func (f *fakeCompleter) completeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completeReqs)
}

func (f *fakeCompleter) lastStreamRequest() *llm.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamReqs[len(f.streamReqs)-1]
}

// fragments streams the given pieces in order.
func fragments(pieces ...string) streamFunc {
	return func(_ context.Context, _ *llm.ChatRequest, onFragment openai.FragmentFunc) (string, error) {
		acc := ""
		for _, p := range pieces {
			acc += p
			if onFragment != nil {
				onFragment(p, acc)
			}
		}
		return acc, nil
	}
}

func failing(err error) streamFunc {
	return func(context.Context, *llm.ChatRequest, openai.FragmentFunc) (string, error) {
		return "", err
	}
}

func completion(text string, err error) completeFunc {
	return func(context.Context, *llm.ChatRequest) (string, error) {
		return text, err
	}
}

// recordingSink records every call as "kind:markup".
type recordingSink struct {
	mu      sync.Mutex
	calls   []string
	toggler session.CondenseToggler
}

func (r *recordingSink) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordingSink) ShowLoading()                    { r.record("loading") }
func (r *recordingSink) ShowError(message string)        { r.record("error:" + message) }
func (r *recordingSink) RenderIncremental(markup string) { r.record("incremental:" + markup) }
func (r *recordingSink) ShowCondensed(markup string)     { r.record("condensed:" + markup) }
func (r *recordingSink) RenderFinal(markup string, toggle session.CondenseToggler) {
	r.mu.Lock()
	r.toggler = toggle
	r.mu.Unlock()
	r.record("final:" + markup)
}

func (r *recordingSink) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// blockUntilDone streams nothing and returns once ctx ends, closing
// started when it begins.
func blockUntilDone(started chan struct{}) streamFunc {
	return func(ctx context.Context, _ *llm.ChatRequest, _ openai.FragmentFunc) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}
}
