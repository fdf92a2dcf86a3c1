package cliui

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/papercomputeco/glean/pkg/session"
)

// OutputMode selects how a TerminalSink prints responses.
type OutputMode string

const (
	// OutputText streams the raw response text as it arrives.
	OutputText OutputMode = "text"

	// OutputHTML prints the rendered markup of each completed response.
	OutputHTML OutputMode = "html"

	// OutputPretty renders each completed response with glamour.
	OutputPretty OutputMode = "pretty"
)

// OutputModes lists the accepted --output values.
var OutputModes = []OutputMode{OutputText, OutputHTML, OutputPretty}

// ParseOutputMode validates an --output flag value.
func ParseOutputMode(s string) (OutputMode, error) {
	for _, m := range OutputModes {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown output mode %q (available: text, html, pretty)", s)
}

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	strictPolicy = bluemonday.StrictPolicy()
)

// TerminalSink prints a session to a terminal. Responses go to out, status
// and errors to status.
type TerminalSink struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer
	mode   OutputMode

	// streamed is set once fragments of the current response were printed.
	streamed bool
	text     strings.Builder
}

// NewTerminalSink returns a sink writing in the given mode.
func NewTerminalSink(out, status io.Writer, mode OutputMode) *TerminalSink {
	return &TerminalSink{out: out, status: status, mode: mode}
}

func (t *TerminalSink) ShowLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.streamed = false
	t.text.Reset()
	fmt.Fprintln(t.status, loadingStyle.Render("  thinking..."))
}

func (t *TerminalSink) ShowError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamed {
		fmt.Fprintln(t.out)
		t.streamed = false
	}
	fmt.Fprintf(t.status, "  %s %s\n", FailMark, errorStyle.Render(message))
}

// WriteFragment prints fragments in text mode and collects them for pretty
// rendering.
func (t *TerminalSink) WriteFragment(fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.text.WriteString(fragment)
	if t.mode == OutputText {
		fmt.Fprint(t.out, fragment)
		t.streamed = true
	}
}

// RenderIncremental is a no-op; the terminal follows fragments instead.
func (t *TerminalSink) RenderIncremental(string) {}

func (t *TerminalSink) RenderFinal(markup string, _ session.CondenseToggler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamed {
		fmt.Fprintln(t.out)
		t.streamed = false
		return
	}

	switch t.mode {
	case OutputHTML:
		fmt.Fprintln(t.out, markup)
	case OutputPretty:
		source := t.text.String()
		if source == "" {
			source = MarkupToText(markup)
		}
		t.printPretty(source)
	default:
		fmt.Fprintln(t.out, MarkupToText(markup))
	}
}

func (t *TerminalSink) ShowCondensed(markup string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.mode {
	case OutputHTML:
		fmt.Fprintln(t.out, markup)
	case OutputPretty:
		t.printPretty(MarkupToText(markup))
	default:
		fmt.Fprintln(t.out, MarkupToText(markup))
	}
}

func (t *TerminalSink) printPretty(source string) {
	rendered, err := RenderMarkdown(source)
	if err != nil {
		fmt.Fprintln(t.out, source)
		return
	}
	fmt.Fprint(t.out, rendered)
}

// MarkupToText turns rendered markup back into plain text: line breaks
// become newlines, every other tag is dropped and entities are decoded.
func MarkupToText(markup string) string {
	text := strings.ReplaceAll(markup, "<br>", "\n")
	return html.UnescapeString(strictPolicy.Sanitize(text))
}
