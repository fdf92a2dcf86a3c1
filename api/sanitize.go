package api

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// markupPolicy admits exactly the elements the markdown renderer emits.
var markupPolicy = newMarkupPolicy()

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "h1", "h2", "h3", "ol", "ul", "li", "code", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}

func sanitize(markup string) string {
	return markupPolicy.Sanitize(markup)
}
