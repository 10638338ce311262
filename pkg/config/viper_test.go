package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/costwise/costwise/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	setenv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(func() { _ = os.Unsetenv(key) })
	}

	It("returns defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := "[api]\nbase_url = \"https://cost.example.com\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.base_url")).To(Equal("https://cost.example.com"))
		Expect(v.GetString("auth.realm")).To(Equal(config.NewDefaultConfig().Auth.Realm))
	})

	It("lets COSTWISE_ env vars override the file", func() {
		data := "[user]\nid = \"from-file\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		setenv("COSTWISE_USER_ID", "from-env")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v).User.ID).To(Equal("from-env"))
	})

	It("loads a .env file from the config dir", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("COSTWISE_AUTH_REALM=dotenv-realm\n"), 0o600)).To(Succeed())
		DeferCleanup(func() { _ = os.Unsetenv("COSTWISE_AUTH_REALM") })

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("auth.realm")).To(Equal("dotenv-realm"))
	})

	It("splits comma separated brokers from the environment", func() {
		setenv("COSTWISE_EVENTSTREAM_KAFKA_BROKERS", "k1:9092,k2:9092")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v).EventStream.KafkaBrokers).To(Equal([]string{"k1:9092", "k2:9092"}))
	})
})

var _ = Describe("flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds a set flag over the config file", func() {
		data := "[api]\nbase_url = \"https://from-file\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var apiURL string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIURL, &apiURL)
		Expect(cmd.Flags().Set("api-url", "https://from-flag")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIURL})
		Expect(v.GetString("api.base_url")).To(Equal("https://from-flag"))
	})

	It("falls through to the config file when the flag is unset", func() {
		data := "[mock]\nlisten = \":5555\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagMockListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagMockListen})

		Expect(v.GetString("mock.listen")).To(Equal(":5555"))
	})

	It("registers bool flags with their defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var clean bool
		config.AddBoolFlag(cmd, config.Flags, config.FlagClean, &clean)

		f := cmd.Flags().Lookup("clean")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("false"))
		Expect(f.Usage).To(Equal(config.Flags[config.FlagClean].Description))
	})

	It("takes name, shorthand and default from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var user, listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &user)
		config.AddStringFlag(cmd, config.Flags, config.FlagMockListen, &listen)

		Expect(cmd.Flags().Lookup("user").Shorthand).To(Equal("u"))
		Expect(cmd.Flags().Lookup("listen").DefValue).To(Equal(config.NewDefaultConfig().Mock.Listen))
	})

	It("skips unknown registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.AddStringFlag(cmd, config.Flags, "nonexistent", new(string))
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent"})

		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})

	It("maps every flag to a valid config key", func() {
		for name, f := range config.Flags {
			Expect(config.IsValidConfigKey(f.ViperKey)).To(BeTrue(), name)
			Expect(f.Name).To(Equal(name))
		}
	})
})
