package budgetscmder_test

import (
	"bytes"
	"net"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	budgetscmder "github.com/costwise/costwise/cmd/costwise/budgets"
	"github.com/costwise/costwise/cmd/costwise/cmdenv"
	"github.com/costwise/costwise/mockapi"
	"github.com/costwise/costwise/pkg/logger"
)

var _ = Describe("budgets command", func() {
	var (
		server  *mockapi.Server
		baseURL string
		tmpDir  string
	)

	BeforeEach(func() {
		server = mockapi.NewServer(mockapi.Config{Token: "tok"}, logger.Nop())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		baseURL = "http://" + ln.Addr().String()
		go func() {
			defer GinkgoRecover()
			_ = server.RunWithListener(ln)
		}()
		DeferCleanup(func() { Expect(server.Shutdown()).To(Succeed()) })

		tmpDir, err = os.MkdirTemp("", "budgets-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(tmpDir) })
	})

	run := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "costwise", SilenceUsage: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.PersistentFlags().Bool("debug", false, "")
		root.AddCommand(budgetscmder.NewBudgetsCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"budgets", "--config-dir", tmpDir, "--api-url", baseURL}, args...))

		err := root.Execute()
		return out.String(), err
	}

	It("renders the budget table", func() {
		out, err := run("--user", "alice", "--token", "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Fetching budget deviations"))
		Expect(out).To(ContainSubstring("EC2"))
		Expect(out).To(ContainSubstring("Over budget:"))
	})

	It("requires a user", func() {
		_, err := run("--token", "tok")
		Expect(err).To(MatchError(cmdenv.ErrNoUser))
	})

	It("surfaces authentication failures", func() {
		_, err := run("--user", "alice", "--token", "wrong")
		Expect(err).To(MatchError(ContainSubstring("401")))
	})
})
