package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/papercomputeco/glean/pkg/logger"
	"github.com/papercomputeco/glean/pkg/utils"
)

// maxPageSize caps how much of a page body is parsed.
const maxPageSize = 10 << 20

// Page is a Source that fetches a web page and extracts its visible text.
type Page struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithHTTPClient sets the client used to fetch the page.
func WithHTTPClient(c *http.Client) PageOption {
	return func(p *Page) {
		p.client = c
	}
}

// WithLogger sets the page logger.
func WithLogger(l *slog.Logger) PageOption {
	return func(p *Page) {
		p.logger = l
	}
}

// NewPage returns a Source for the page at url.
func NewPage(url string, opts ...PageOption) *Page {
	p := &Page{
		url:    url,
		client: http.DefaultClient,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Text fetches the page and returns its visible text.
func (p *Page) Text(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", utils.UserAgent())

	p.logger.Debug("fetching page", "url", p.url)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &FetchError{URL: p.url, StatusCode: resp.StatusCode}
	}

	return NewPageText(io.LimitReader(resp.Body, maxPageSize)).Text(ctx)
}

// File is a Source over an HTML file on disk.
type File struct {
	path string
}

// NewFile returns a Source for the HTML file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Text reads the file and returns its visible text.
func (f *File) Text(ctx context.Context) (string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return "", fmt.Errorf("opening page file: %w", err)
	}
	defer fh.Close()

	return NewPageText(fh).Text(ctx)
}
