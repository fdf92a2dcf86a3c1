package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/glean/pkg/llm"
)

var _ = Describe("ChatRequest", func() {
	It("omits max_tokens when no cap is set", func() {
		req := llm.NewChatRequest("gpt-4o-mini", []llm.Message{llm.NewUserMessage("hi")}, true, 0)

		data, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`{
			"model": "gpt-4o-mini",
			"messages": [{"role": "user", "content": "hi"}],
			"stream": true
		}`))
	})

	It("includes max_tokens and stream false", func() {
		req := llm.NewChatRequest("gpt-4o-mini", []llm.Message{llm.NewUserMessage("hi")}, false, 150)

		data, err := json.Marshal(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`{
			"model": "gpt-4o-mini",
			"messages": [{"role": "user", "content": "hi"}],
			"stream": false,
			"max_tokens": 150
		}`))
	})
})

var _ = Describe("StreamChunk", func() {
	DescribeTable("Content",
		func(payload, expected string) {
			var chunk llm.StreamChunk
			Expect(json.Unmarshal([]byte(payload), &chunk)).To(Succeed())
			Expect(chunk.Content()).To(Equal(expected))
		},
		Entry("delta content", `{"choices":[{"delta":{"content":"Hel"}}]}`, "Hel"),
		Entry("role only delta", `{"choices":[{"delta":{"role":"assistant"}}]}`, ""),
		Entry("missing delta", `{"choices":[{"index":0}]}`, ""),
		Entry("empty choices", `{"choices":[]}`, ""),
		Entry("no choices", `{"id":"chatcmpl-1"}`, ""),
	)

	It("is safe on a nil chunk", func() {
		var chunk *llm.StreamChunk
		Expect(chunk.Content()).To(BeEmpty())
	})
})

var _ = Describe("History", func() {
	var h *llm.History

	BeforeEach(func() {
		h = &llm.History{}
	})

	It("keeps turns in order", func() {
		h.Append(llm.NewUserMessage("q1"))
		h.Append(llm.NewAssistantMessage("a1"))
		h.Append(llm.NewUserMessage("q2"))

		Expect(h.Len()).To(Equal(3))
		Expect(h.Messages()).To(Equal([]llm.Message{
			{Role: llm.RoleUser, Content: "q1"},
			{Role: llm.RoleAssistant, Content: "a1"},
			{Role: llm.RoleUser, Content: "q2"},
		}))
	})

	It("returns a copy from Messages", func() {
		h.Append(llm.NewUserMessage("q1"))
		msgs := h.Messages()
		msgs[0].Content = "changed"

		Expect(h.Messages()[0].Content).To(Equal("q1"))
	})

	It("pops the most recent turn", func() {
		h.Append(llm.NewUserMessage("q1"))
		h.Append(llm.NewUserMessage("q2"))

		last, ok := h.Pop()
		Expect(ok).To(BeTrue())
		Expect(last.Content).To(Equal("q2"))
		Expect(h.Len()).To(Equal(1))
	})

	It("reports an empty history", func() {
		_, ok := h.Pop()
		Expect(ok).To(BeFalse())
		_, ok = h.Last()
		Expect(ok).To(BeFalse())
	})

	It("resets", func() {
		h.Append(llm.NewUserMessage("q1"))
		h.Reset()
		Expect(h.Len()).To(BeZero())
	})
})

var _ = Describe("Prompts", func() {
	It("builds the search prompt", func() {
		Expect(llm.SearchPrompt("golang generics")).To(Equal("Provide a brief, helpful response to: golang generics"))
	})

	It("embeds the page text in the summary prompt", func() {
		Expect(llm.SummaryPrompt("PAGE")).To(HaveSuffix("most important points: PAGE"))
	})

	It("embeds the summary in the condense prompt", func() {
		Expect(llm.CondensePrompt("SUMMARY")).To(ContainSubstring("1-2 sentences"))
		Expect(llm.CondensePrompt("SUMMARY")).To(HaveSuffix(": SUMMARY"))
	})
})
