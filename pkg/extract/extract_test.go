package extract_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glean/pkg/extract"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Ignored title</title><style>body { color: red }</style></head>
<body>
  <h1>  Release notes  </h1>
  <script>var secret = "no";</script>
  <p>Version <b>2.0</b> is out.</p>
  <div hidden>hidden attribute</div>
  <div style="display: none">display none</div>
  <div style="color: blue; VISIBILITY: hidden">visibility hidden</div>
  <div style="visibility:collapse">visibility collapse</div>
  <div style="opacity: 0">transparent</div>
  <div style="opacity: 0.5">half visible</div>
  <noscript>enable javascript</noscript>
  <template><p>template</p></template>
  <svg><text>chart label</text></svg>
  <!-- a comment -->
  <ul><li>one</li><li>two</li></ul>
</body>
</html>`

var _ = Describe("VisibleText", func() {
	It("joins trimmed visible text nodes with single spaces", func() {
		text, err := extract.VisibleText(strings.NewReader(samplePage))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Release notes Version 2.0 is out. half visible one two"))
	})

	It("returns empty text for a document without body text", func() {
		text, err := extract.VisibleText(strings.NewReader("<html><head><title>t</title></head><body>  </body></html>"))
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(BeEmpty())
	})
})

var _ = Describe("PageText", func() {
	It("returns the visible text", func() {
		text, err := extract.NewPageText(strings.NewReader("<p>hello</p><p>world</p>")).Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("hello world"))
	})

	It("fails with MissingInputError when nothing is visible", func() {
		_, err := extract.NewPageText(strings.NewReader(`<div style="display:none">x</div>`)).Text(context.Background())

		var missing *extract.MissingInputError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Input).To(Equal("visible page text"))
	})
})

var _ = Describe("Page", func() {
	var server *httptest.Server

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("fetches the page and extracts its text", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodGet))
			Expect(r.Header.Get("User-Agent")).To(HavePrefix("glean/"))
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(samplePage))
		}))

		text, err := extract.NewPage(server.URL, extract.WithHTTPClient(server.Client())).Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(HavePrefix("Release notes"))
	})

	It("returns a FetchError for non-2xx responses", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := extract.NewPage(server.URL + "/missing").Text(context.Background())

		var fetchErr *extract.FetchError
		Expect(errors.As(err, &fetchErr)).To(BeTrue())
		Expect(fetchErr.StatusCode).To(Equal(http.StatusNotFound))
		Expect(fetchErr.URL).To(HaveSuffix("/missing"))
		Expect(err.Error()).To(ContainSubstring("status 404"))
	})

	It("honors context cancellation", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<p>late</p>"))
		}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := extract.NewPage(server.URL).Text(ctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

var _ = Describe("PublicOnlyClient", func() {
	var (
		server *httptest.Server
		hits   int
	)

	BeforeEach(func() {
		hits = 0
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			_, _ = w.Write([]byte(samplePage))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("refuses pages on loopback addresses", func() {
		client := extract.PublicOnlyClient(server.Client())

		_, err := extract.NewPage(server.URL, extract.WithHTTPClient(client)).Text(context.Background())
		Expect(errors.Is(err, extract.ErrPrivateAddress)).To(BeTrue())
		Expect(hits).To(BeZero())
	})

	It("checks the resolved address of host names", func() {
		pageURL := strings.Replace(server.URL, "127.0.0.1", "localhost", 1)

		client := extract.PublicOnlyClient(nil)
		_, err := extract.NewPage(pageURL, extract.WithHTTPClient(client)).Text(context.Background())
		Expect(errors.Is(err, extract.ErrPrivateAddress)).To(BeTrue())
		Expect(hits).To(BeZero())
	})

	It("keeps the timeout of the wrapped client", func() {
		client := extract.PublicOnlyClient(&http.Client{Timeout: 7})
		Expect(client.Timeout).To(BeEquivalentTo(7))
		Expect(client.Transport).NotTo(BeIdenticalTo(http.DefaultTransport))
	})
})

var _ = DescribeTable("IsPublicAddr",
	func(addr string, public bool) {
		Expect(extract.IsPublicAddr(netip.MustParseAddr(addr))).To(Equal(public))
	},
	Entry("loopback", "127.0.0.1", false),
	Entry("IPv6 loopback", "::1", false),
	Entry("IPv4 mapped loopback", "::ffff:127.0.0.1", false),
	Entry("unspecified", "0.0.0.0", false),
	Entry("private 10/8", "10.1.2.3", false),
	Entry("private 172.16/12", "172.20.0.1", false),
	Entry("private 192.168/16", "192.168.1.1", false),
	Entry("link local metadata", "169.254.169.254", false),
	Entry("IPv6 link local", "fe80::1", false),
	Entry("IPv6 unique local", "fd00::1", false),
	Entry("carrier grade NAT", "100.64.0.1", false),
	Entry("multicast", "224.0.0.1", false),
	Entry("public IPv4", "93.184.216.34", true),
	Entry("public IPv6", "2606:4700:4700::1111", true),
)

var _ = Describe("File", func() {
	It("reads the page from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "page.html")
		Expect(os.WriteFile(path, []byte("<p>from disk</p>"), 0o600)).To(Succeed())

		text, err := extract.NewFile(path).Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("from disk"))
	})

	It("reports a missing file", func() {
		_, err := extract.NewFile(filepath.Join(GinkgoT().TempDir(), "nope.html")).Text(context.Background())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})
})

var _ = Describe("Query", func() {
	It("reads the default q parameter", func() {
		text, err := extract.NewQuery("https://www.google.com/search?q=golang+generics&hl=en", "").Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("golang generics"))
	})

	It("reads a custom parameter", func() {
		text, err := extract.NewQuery("https://search.example/?query=rust%20async", "query").Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("rust async"))
	})

	DescribeTable("fails with MissingInputError",
		func(rawURL string) {
			_, err := extract.NewQuery(rawURL, "q").Text(context.Background())

			var missing *extract.MissingInputError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Input).To(Equal(`query parameter "q"`))
		},
		Entry("absent parameter", "https://www.google.com/search?hl=en"),
		Entry("blank parameter", "https://www.google.com/search?q=+++"),
		Entry("no query string", "https://www.google.com/"),
	)
})

var _ = Describe("Literal", func() {
	It("returns trimmed text", func() {
		text, err := extract.Literal("  what is sse  ").Text(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("what is sse"))
	})

	It("rejects blank text", func() {
		_, err := extract.Literal(" ").Text(context.Background())

		var missing *extract.MissingInputError
		Expect(errors.As(err, &missing)).To(BeTrue())
	})
})
