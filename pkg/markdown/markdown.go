// Package markdown converts the small subset of markdown that chat models
// emit into HTML using an ordered chain of regular expression rewrites.
//
// Render is not a markdown parser. Each rule runs over the output of the
// previous one, list items are wrapped one per line without merging, and
// rendering already rendered markup changes it again.
package markdown

import "regexp"

// Rule is one rewrite step of the renderer.
type Rule struct {
	// Name identifies the rule, e.g. "strong".
	Name string

	// Pattern is matched against the whole text.
	Pattern *regexp.Regexp

	// Replacement is expanded with regexp.Regexp.ReplaceAllString semantics.
	Replacement string
}

// rules are applied in order. Header and list patterns use (?m) so ^ and $
// match at line boundaries, and . never matches a newline.
var rules = []Rule{
	{Name: "strong", Pattern: regexp.MustCompile(`\*\*(.*?)\*\*`), Replacement: "<strong>$1</strong>"},
	{Name: "em", Pattern: regexp.MustCompile(`\*(.*?)\*`), Replacement: "<em>$1</em>"},
	{Name: "h3", Pattern: regexp.MustCompile(`(?m)^### (.*)$`), Replacement: "<h3>$1</h3>"},
	{Name: "h2", Pattern: regexp.MustCompile(`(?m)^## (.*)$`), Replacement: "<h2>$1</h2>"},
	{Name: "h1", Pattern: regexp.MustCompile(`(?m)^# (.*)$`), Replacement: "<h1>$1</h1>"},
	{Name: "ordered-item", Pattern: regexp.MustCompile(`(?m)^\d\. (.*)$`), Replacement: "<ol><li>$1</li></ol>"},
	{Name: "unordered-item", Pattern: regexp.MustCompile(`(?m)^- (.*)$`), Replacement: "<ul><li>$1</li></ul>"},
	{Name: "code", Pattern: regexp.MustCompile("`(.*?)`"), Replacement: "<code>$1</code>"},
	{Name: "link", Pattern: regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), Replacement: `<a href="$2" target="_blank">$1</a>`},
	{Name: "line-break", Pattern: regexp.MustCompile(`\n`), Replacement: "<br>"},
}

// Rules returns a copy of the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Render converts text to HTML markup.
func Render(text string) string {
	if text == "" {
		return ""
	}
	for _, r := range rules {
		text = r.Pattern.ReplaceAllString(text, r.Replacement)
	}
	return text
}
