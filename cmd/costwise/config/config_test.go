package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/costwise/costwise/cmd/costwise/config"
)

var _ = Describe("config command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "costwise-config-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(tmpDir) })
	})

	run := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "costwise", SilenceUsage: true}
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(configcmder.NewConfigCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append(append([]string{"config"}, args...), "--config-dir", tmpDir))

		err := root.Execute()
		return out.String(), err
	}

	It("has set, get, and list subcommands", func() {
		names := []string{}
		for _, sub := range configcmder.NewConfigCmd().Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("set", "get", "list"))
	})

	It("sets and gets a value", func() {
		_, err := run("set", "user.id", "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(tmpDir, "config.toml")).To(BeARegularFile())

		out, err := run("get", "user.id")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("alice"))
	})

	It("shows defaults for unset keys", func() {
		out, err := run("get", "auth.realm")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("aws-cost-realm"))

		out, err = run("get", "user.id")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("<not set>"))
	})

	It("rejects unknown keys and bad values", func() {
		_, err := run("set", "proxy.provider", "x")
		Expect(err).To(MatchError(ContainSubstring("unknown config key")))

		_, err = run("get", "proxy.provider")
		Expect(err).To(MatchError(ContainSubstring("Valid keys")))

		_, err = run("set", "chat.clean_mode", "perhaps")
		Expect(err).To(HaveOccurred())
	})

	It("requires exactly two arguments for set", func() {
		_, err := run("set", "user.id")
		Expect(err).To(HaveOccurred())
	})

	It("lists every key and masks secrets", func() {
		_, err := run("set", "auth.client_secret", "s3cret")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("api.base_url"))
		Expect(out).To(ContainSubstring("mock.frame_delay"))
		Expect(out).NotTo(ContainSubstring("s3cret"))

		out, err = run("list", "--reveal")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("s3cret"))
	})
})
