package chatstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/chatstream"
)

var _ = Describe("Classify", func() {
	It("recognizes the done sentinel", func() {
		ev, ok := chatstream.Classify("[DONE]")
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(chatstream.KindDone))
	})

	It("does not treat a padded sentinel as done", func() {
		_, ok := chatstream.Classify("[DONE] ")
		Expect(ok).To(BeFalse())
	})

	DescribeTable("assistant and tool message content",
		func(data string, kind chatstream.Kind, content string) {
			ev, ok := chatstream.Classify(data)
			Expect(ok).To(BeTrue())
			Expect(ev.Kind).To(Equal(kind))
			Expect(ev.Content).To(Equal(content))
		},
		Entry("assistant string", `{"type":"assistant","content":"Hel"}`, chatstream.KindAssistant, "Hel"),
		Entry("assistant whitespace kept", `{"type":"assistant","content":" world "}`, chatstream.KindAssistant, " world "),
		Entry("assistant null content", `{"type":"assistant","content":null}`, chatstream.KindAssistant, ""),
		Entry("assistant missing content", `{"type":"assistant"}`, chatstream.KindAssistant, ""),
		Entry("assistant numeric content", `{"type":"assistant","content":42}`, chatstream.KindAssistant, "42"),
		Entry("assistant object content", `{"type":"assistant","content":{"a":1}}`, chatstream.KindAssistant, `{"a":1}`),
		Entry("tool message", `{"type":"tool_message","content":"fetched 3 rows"}`, chatstream.KindToolMessage, "fetched 3 rows"),
		Entry("tool message unicode", `{"type":"tool_message","content":"€ 12"}`, chatstream.KindToolMessage, "€ 12"),
	)

	It("keeps tool call payloads as compact JSON", func() {
		ev, ok := chatstream.Classify(`{"type":"tool_call","content":{ "name" : "get_costs", "args": [1, 2] }}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Kind).To(Equal(chatstream.KindToolCall))
		Expect(ev.Payload).To(MatchJSON(`{"name":"get_costs","args":[1,2]}`))
		Expect(string(ev.Payload)).To(Equal(`{"name":"get_costs","args":[1,2]}`))
	})

	It("represents a missing tool call payload as null", func() {
		ev, ok := chatstream.Classify(`{"type":"tool_call"}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Payload).To(Equal(json.RawMessage("null")))
	})

	DescribeTable("discarded payloads",
		func(data string) {
			_, ok := chatstream.Classify(data)
			Expect(ok).To(BeFalse())
		},
		Entry("unknown type", `{"type":"heartbeat"}`),
		Entry("missing type", `{"content":"x"}`),
		Entry("case-mismatched keys", `{"TYPE":"assistant","Content":"x"}`),
		Entry("capitalized type key", `{"Type":"assistant","content":"x"}`),
		Entry("null type", `{"type":null,"content":"x"}`),
		Entry("plain text", `keep-alive`),
		Entry("truncated JSON", `{"type":"assistant","content":"Hel`),
		Entry("JSON array", `["assistant"]`),
		Entry("JSON string", `"assistant"`),
		Entry("empty", ``),
	)
})

var _ = Describe("Kind", func() {
	It("names every kind", func() {
		Expect(chatstream.KindAssistant.String()).To(Equal("assistant"))
		Expect(chatstream.KindToolCall.String()).To(Equal("tool_call"))
		Expect(chatstream.KindToolMessage.String()).To(Equal("tool_message"))
		Expect(chatstream.KindDone.String()).To(Equal("done"))
		Expect(chatstream.Kind(0).String()).To(Equal("unknown"))
	})
})
