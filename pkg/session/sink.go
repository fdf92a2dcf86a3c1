package session

import "context"

// Sink is the presentation surface a session writes to. The session calls
// Sink methods while holding its lock, so a Sink must not call back into
// the session from inside them.
type Sink interface {
	// ShowLoading is called when a request starts.
	ShowLoading()

	// ShowError reports a failed request.
	ShowError(message string)

	// RenderIncremental shows the markup of the partial response.
	RenderIncremental(markup string)

	// RenderFinal shows the markup of the complete response. toggle
	// switches between the full and the condensed view.
	RenderFinal(markup string, toggle CondenseToggler)

	// ShowCondensed shows the markup of the condensed response.
	ShowCondensed(markup string)
}

// CondenseToggler switches a completed response between its full and its
// condensed view.
type CondenseToggler interface {
	ToggleCondense(ctx context.Context) (View, error)
}

// FragmentWriter is implemented by sinks that also want the raw text of
// each fragment, such as a terminal printing the answer as it arrives.
type FragmentWriter interface {
	WriteFragment(fragment string)
}

// View is the response as currently displayed.
type View struct {
	Markup    string `json:"markup"`
	Condensed bool   `json:"condensed"`
}

type nopSink struct{}

func (nopSink) ShowLoading()                        {}
func (nopSink) ShowError(string)                    {}
func (nopSink) RenderIncremental(string)            {}
func (nopSink) RenderFinal(string, CondenseToggler) {}
func (nopSink) ShowCondensed(string)                {}
