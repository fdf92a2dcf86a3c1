package llm

import "fmt"

const (
	summaryPrompt  = "Provide a very brief, plain-text (NO MARKDOWN STYLING, JUST PLAIN TEXT) summary of the key information from this webpage text. Focus only on the most important points: %s"
	searchPrompt   = "Provide a brief, helpful response to: %s"
	condensePrompt = "Create an extremely concise version (about 1-2 sentences) of this summary, focusing only on the absolute key points: %s"
)

// SummaryPrompt asks for a plain-text summary of visible page text.
func SummaryPrompt(pageText string) string {
	return fmt.Sprintf(summaryPrompt, pageText)
}

// SearchPrompt asks for a short answer to a search query.
func SearchPrompt(query string) string {
	return fmt.Sprintf(searchPrompt, query)
}

// CondensePrompt asks for a one or two sentence version of a summary.
func CondensePrompt(summary string) string {
	return fmt.Sprintf(condensePrompt, summary)
}
