package transcript_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/transcript"
)

var _ = Describe("Message", func() {
	It("assigns unique time-ordered IDs", func() {
		seen := map[string]bool{}
		prev := ""
		for range 100 {
			m := transcript.NewMessage(transcript.RoleUser, "hi")
			Expect(seen).NotTo(HaveKey(m.ID))
			seen[m.ID] = true
			Expect(m.ID > prev).To(BeTrue())
			prev = m.ID
		}
	})

	It("formats tool events with fixed prefixes", func() {
		call := transcript.FormatToolCall([]byte(`{"name":"costs"}`))
		msg := transcript.FormatToolMessage("3 rows")

		Expect(call).To(Equal(`🔧 Tool call: {"name":"costs"}`))
		Expect(msg).To(Equal("🧩 Tool message: 3 rows"))
		Expect(transcript.IsToolText(call)).To(BeTrue())
		Expect(transcript.IsToolText(msg)).To(BeTrue())
		Expect(transcript.IsToolText("plain answer")).To(BeFalse())
	})
})

var _ = Describe("Transcript", func() {
	It("keeps messages in append order", func() {
		t := transcript.New()
		a := transcript.NewMessage(transcript.RoleUser, "a")
		b := transcript.NewMessage(transcript.RoleAssistant, "b")
		t.Append(a)
		t.Append(b)

		Expect(t.Snapshot()).To(Equal([]transcript.Message{a, b}))
		Expect(t.Len()).To(Equal(2))
	})

	It("returns snapshots that do not alias the store", func() {
		t := transcript.New(transcript.NewMessage(transcript.RoleAssistant, "welcome"))
		snap := t.Snapshot()
		snap[0].Content = "changed"

		Expect(t.Snapshot()[0].Content).To(Equal("welcome"))
	})

	It("resets to the given seed", func() {
		seed := transcript.NewMessage(transcript.RoleAssistant, "welcome")
		t := transcript.New()
		t.Append(transcript.NewMessage(transcript.RoleUser, "q"))
		t.Reset(seed)

		Expect(t.Snapshot()).To(Equal([]transcript.Message{seed}))
		Expect(t.HasRole(transcript.RoleUser)).To(BeFalse())

		t.Reset()
		Expect(t.Len()).To(BeZero())
	})
})
