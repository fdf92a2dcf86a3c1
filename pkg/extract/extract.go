// Package extract produces the source text a pipeline sends to the model:
// the visible text of a web page or a search query taken from a URL.
package extract

import "context"

// Source produces input text for a request.
type Source interface {
	Text(ctx context.Context) (string, error)
}
