package mockapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/auth"
	"github.com/costwise/costwise/pkg/backend"
	"github.com/costwise/costwise/pkg/chatstream"
	"github.com/costwise/costwise/pkg/logger"
)

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, r)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		server = NewServer(Config{ListenAddr: ":0"}, logger.Nop())
	})

	do := func(req *http.Request) (int, string) {
		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(body)
	}

	It("answers ping", func() {
		code, body := do(jsonRequest(http.MethodGet, "/ping", ""))
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(Equal(`"pong"`))
	})

	Describe("conversations", func() {
		It("creates, titles, reads and deletes a conversation", func() {
			code, _ := do(jsonRequest(http.MethodPut, "/api/chat/create_conv/user-1?conv_id=c1", ""))
			Expect(code).To(Equal(http.StatusOK))

			code, _ = do(jsonRequest(http.MethodPut, "/api/chat/create_conv/user-1?conv_id=c1", ""))
			Expect(code).To(Equal(http.StatusConflict))

			code, _ = do(jsonRequest(http.MethodPut, "/api/chat/c1/title", `{"title":"EC2 costs"}`))
			Expect(code).To(Equal(http.StatusOK))

			code, body := do(jsonRequest(http.MethodGet, "/api/chat/c1/history", ""))
			Expect(code).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"history":[],"conversation_type":"cost_analysis"}`))

			code, _ = do(jsonRequest(http.MethodDelete, "/api/chat/c1", ""))
			Expect(code).To(Equal(http.StatusOK))

			code, _ = do(jsonRequest(http.MethodGet, "/api/chat/c1/history", ""))
			Expect(code).To(Equal(http.StatusNotFound))
		})

		It("requires a conversation id to create", func() {
			code, _ := do(jsonRequest(http.MethodPut, "/api/chat/create_conv/user-1", ""))
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("rejects titles for unknown conversations", func() {
			code, _ := do(jsonRequest(http.MethodPut, "/api/chat/nope/title", `{"title":"x"}`))
			Expect(code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("budgets", func() {
		It("returns canned deviations", func() {
			code, body := do(jsonRequest(http.MethodPost, "/api/chat/budgets-structured", `{"user_id":"u","conv_id":"c"}`))
			Expect(code).To(Equal(http.StatusOK))

			var res backend.BudgetDeviationsResponse
			Expect(json.Unmarshal([]byte(body), &res)).To(Succeed())
			Expect(res.TotalBudgets).To(Equal(len(res.Budgets)))
			Expect(res.Budgets[0].OverBudget()).To(BeTrue())
			Expect(res.QueryTimestamp).NotTo(BeEmpty())
		})

		It("requires a user", func() {
			code, _ := do(jsonRequest(http.MethodPost, "/api/chat/budgets-structured", `{}`))
			Expect(code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("chat", func() {
		It("rejects empty messages", func() {
			code, _ := do(jsonRequest(http.MethodPost, "/api/chat/", `{"message":"  "}`))
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("streams the scripted frames", func() {
			code, body := do(jsonRequest(http.MethodPost, "/api/chat/", `{"message":"EC2?","user_id":"u","conv_id":"c"}`))
			Expect(code).To(Equal(http.StatusOK))

			frames, err := script("EC2?")
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal(strings.Join(frames, "")))
		})
	})

	Describe("token", func() {
		It("rejects requests without the configured token", func() {
			server = NewServer(Config{Token: "secret"}, logger.Nop())

			code, _ := do(jsonRequest(http.MethodGet, "/api/chat/c1/history", ""))
			Expect(code).To(Equal(http.StatusUnauthorized))

			req := jsonRequest(http.MethodPut, "/api/chat/create_conv/u?conv_id=c1", "")
			req.Header.Set("Authorization", "Bearer secret")
			code, _ = do(req)
			Expect(code).To(Equal(http.StatusOK))
		})

		It("leaves ping open", func() {
			server = NewServer(Config{Token: "secret"}, logger.Nop())
			code, _ := do(jsonRequest(http.MethodGet, "/ping", ""))
			Expect(code).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("Server over a real listener", func() {
	var (
		server  *Server
		baseURL string
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = NewServer(Config{Token: "tok"}, logger.Nop())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		baseURL = "http://" + ln.Addr().String()

		go func() {
			_ = server.RunWithListener(ln)
		}()
	})

	AfterEach(func() {
		Expect(server.Shutdown()).To(Succeed())
	})

	It("serves a full chat turn to the stream client and records history", func() {
		tokens := auth.NewStatic("tok")
		chat := chatstream.NewClient(chatstream.Config{BaseURL: baseURL, Tokens: tokens})
		api := backend.NewClient(backend.Config{BaseURL: baseURL, Tokens: tokens})

		Expect(api.CreateConversation(ctx, "user-1", "conv-1")).To(Succeed())

		stream, err := chat.Stream(ctx, chatstream.Request{Message: "EC2?", UserID: "user-1", ConvID: "conv-1"})
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		var (
			kinds  []chatstream.Kind
			answer strings.Builder
		)
		for {
			ev, err := stream.Next()
			if err == io.EOF {
				break
			}
			Expect(err).NotTo(HaveOccurred())
			kinds = append(kinds, ev.Kind)
			if ev.Kind == chatstream.KindAssistant {
				answer.WriteString(ev.Content)
			}
		}

		Expect(stream.Outcome()).To(Equal(chatstream.OutcomeDone))
		Expect(kinds[0]).To(Equal(chatstream.KindToolCall))
		Expect(kinds[1]).To(Equal(chatstream.KindToolMessage))
		Expect(kinds[len(kinds)-1]).To(Equal(chatstream.KindDone))
		Expect(answer.String()).To(Equal(scriptedAnswer("EC2?")))

		Eventually(func() []backend.HistoryEntry {
			h, err := api.History(ctx, "conv-1")
			if err != nil {
				return nil
			}
			return h.History
		}).Should(Equal([]backend.HistoryEntry{
			{Role: "user", Content: "EC2?"},
			{Role: "assistant", Content: scriptedAnswer("EC2?")},
		}))
	})

	It("reports unauthorized streams as status errors", func() {
		chat := chatstream.NewClient(chatstream.Config{BaseURL: baseURL})
		_, err := chat.Stream(ctx, chatstream.Request{Message: "hi"})

		var statusErr *chatstream.StatusError
		Expect(err).To(BeAssignableToTypeOf(statusErr))
		Expect(err.(*chatstream.StatusError).StatusCode).To(Equal(http.StatusUnauthorized))
	})
})
