package openai_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glean/pkg/llm"
	"github.com/papercomputeco/glean/pkg/openai"
)

func writeFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, f := range frames {
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", f)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		requests atomic.Int32
		client   *openai.Client
		lastBody map[string]any
		lastHdr  http.Header
		lastPath string
	)

	BeforeEach(func() {
		requests.Store(0)
		lastBody = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			lastPath = r.URL.Path
			lastHdr = r.Header.Clone()
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &lastBody)
			handler(w, r)
		}))
		client = openai.NewClient(openai.Config{
			BaseURL: server.URL + "/",
			APIKey:  "sk-test",
			Model:   "gpt-4o-mini",
		})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Stream", func() {
		It("posts a streaming request and accumulates fragments", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				writeFrames(w, "Hel", "lo, ", "world!")
			}

			var fragments []string
			req := llm.NewChatRequest("", []llm.Message{llm.NewUserMessage("hi")}, true, 150)
			text, err := client.Stream(context.Background(), req, func(fragment, _ string) {
				fragments = append(fragments, fragment)
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Hello, world!"))
			Expect(fragments).To(Equal([]string{"Hel", "lo, ", "world!"}))

			Expect(lastPath).To(Equal("/v1/chat/completions"))
			Expect(lastHdr.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(lastHdr.Get("Accept")).To(Equal("text/event-stream"))
			Expect(lastHdr.Get("User-Agent")).To(HavePrefix("glean/"))
			Expect(lastBody).To(HaveKeyWithValue("model", "gpt-4o-mini"))
			Expect(lastBody).To(HaveKeyWithValue("stream", true))
			Expect(lastBody).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 150)))
		})

		It("forces streaming even when the request did not ask for it", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) { writeFrames(w, "x") }

			req := llm.NewChatRequest("custom-model", []llm.Message{llm.NewUserMessage("hi")}, false, 0)
			_, err := client.Stream(context.Background(), req, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(lastBody).To(HaveKeyWithValue("stream", true))
			Expect(lastBody).To(HaveKeyWithValue("model", "custom-model"))
			Expect(lastBody).NotTo(HaveKey("max_tokens"))
		})

		It("returns a NetworkError for non-2xx responses", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
			}

			_, err := client.Stream(context.Background(), llm.NewChatRequest("", nil, true, 0), nil)

			var netErr *openai.NetworkError
			Expect(errors.As(err, &netErr)).To(BeTrue())
			Expect(netErr.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(netErr.Message).To(Equal("Incorrect API key provided"))
			Expect(err.Error()).To(Equal("API error: 401"))
		})

		It("returns a NetworkError when the server is unreachable", func() {
			server.Close()

			_, err := client.Stream(context.Background(), llm.NewChatRequest("", nil, true, 0), nil)

			var netErr *openai.NetworkError
			Expect(errors.As(err, &netErr)).To(BeTrue())
			Expect(netErr.StatusCode).To(BeZero())
			Expect(netErr.Err).To(HaveOccurred())
		})

		It("aborts the stream when the context is cancelled", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
				w.(http.Flusher).Flush()
				<-r.Context().Done()
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			text, err := client.Stream(ctx, llm.NewChatRequest("", nil, true, 0), func(string, string) {
				cancel()
			})

			Expect(err).To(MatchError(context.Canceled))
			Expect(text).To(Equal("first"))
		})

		It("records the raw stream to the transcript", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) { writeFrames(w, "x") }

			var transcript bytes.Buffer
			client = openai.NewClient(openai.Config{BaseURL: server.URL, Model: "m", Transcript: &transcript})

			_, err := client.Stream(context.Background(), llm.NewChatRequest("", nil, true, 0), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(transcript.String()).To(HaveSuffix("data: [DONE]\n\n"))
			Expect(lastHdr.Get("Authorization")).To(BeEmpty())
		})
	})

	Describe("Complete", func() {
		It("returns the first choice's content", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"id": "chatcmpl-1",
					"object": "chat.completion",
					"created": 1700000000,
					"model": "gpt-4o-mini",
					"choices": [{"index": 0, "message": {"role": "assistant", "content": "Short."}, "finish_reason": "stop"}]
				}`))
			}

			history := []llm.Message{llm.NewUserMessage("q"), llm.NewAssistantMessage("a"), llm.NewUserMessage("condense")}
			text, err := client.Complete(context.Background(), llm.NewChatRequest("", history, false, 60))

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Short."))
			Expect(lastPath).To(Equal("/v1/chat/completions"))
			Expect(lastHdr.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(lastBody).To(HaveKeyWithValue("model", "gpt-4o-mini"))
			Expect(lastBody).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 60)))
			Expect(lastBody["messages"]).To(HaveLen(3))
		})

		It("does not retry failed requests", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			}

			_, err := client.Complete(context.Background(), llm.NewChatRequest("", []llm.Message{llm.NewUserMessage("q")}, false, 0))

			var netErr *openai.NetworkError
			Expect(errors.As(err, &netErr)).To(BeTrue())
			Expect(netErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(err.Error()).To(Equal("API error: 500"))
			Expect(requests.Load()).To(Equal(int32(1)))
		})
	})
})
