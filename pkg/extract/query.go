package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// DefaultQueryParam is the URL parameter search engines use for the query.
const DefaultQueryParam = "q"

// Query is a Source that reads the search query from a URL parameter.
type Query struct {
	rawURL string
	param  string
}

// NewQuery returns a Source reading param from rawURL. An empty param
// means DefaultQueryParam.
func NewQuery(rawURL, param string) *Query {
	if param == "" {
		param = DefaultQueryParam
	}
	return &Query{rawURL: rawURL, param: param}
}

// Text returns the trimmed query. An absent or blank parameter is a
// MissingInputError.
func (q *Query) Text(_ context.Context) (string, error) {
	u, err := url.Parse(q.rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}

	query := strings.TrimSpace(u.Query().Get(q.param))
	if query == "" {
		return "", &MissingInputError{Input: fmt.Sprintf("query parameter %q", q.param)}
	}
	return query, nil
}

// Literal is a Source returning fixed text, used for queries typed directly
// on the command line.
type Literal string

// Text returns the trimmed literal. Blank text is a MissingInputError.
func (l Literal) Text(_ context.Context) (string, error) {
	s := strings.TrimSpace(string(l))
	if s == "" {
		return "", &MissingInputError{Input: "query"}
	}
	return s, nil
}
