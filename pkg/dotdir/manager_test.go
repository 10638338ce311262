package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/costwise/costwise/pkg/dotdir"
)

var _ = Describe("dotdir.Manager", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(origDir) })
	}

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("prefers the override even when a local .costwise dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, dotdir.DirName), 0o755)).To(Succeed())
			chdir(tmpDir)

			override := filepath.Join(tmpDir, "override")
			result, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(override))
		})

		It("uses the local .costwise dir when present", func() {
			local := filepath.Join(tmpDir, dotdir.DirName)
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to a .costwise dir under HOME", func() {
			work := filepath.Join(tmpDir, "work")
			home := filepath.Join(tmpDir, "home")
			Expect(os.Mkdir(work, 0o755)).To(Succeed())
			Expect(os.Mkdir(home, 0o755)).To(Succeed())
			chdir(work)
			origHome := os.Getenv("HOME")
			Expect(os.Setenv("HOME", home)).To(Succeed())
			DeferCleanup(func() { _ = os.Setenv("HOME", origHome) })

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, dotdir.DirName)))
			Expect(filepath.Join(home, dotdir.DirName)).To(BeADirectory())
		})
	})

	Describe("chat state", func() {
		It("returns nil when nothing was saved", func() {
			state, err := m.LoadChatState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("saves and loads the resumed conversation", func() {
			Expect(m.SaveChatState(&dotdir.ChatState{ConversationID: "abc123", UserID: "u-1"}, tmpDir)).To(Succeed())

			state, err := m.LoadChatState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.ConversationID).To(Equal("abc123"))
			Expect(state.UserID).To(Equal("u-1"))
			Expect(state.UpdatedAt).NotTo(BeZero())
		})

		It("rejects nil or anonymous state", func() {
			Expect(m.SaveChatState(nil, tmpDir)).To(HaveOccurred())
			Expect(m.SaveChatState(&dotdir.ChatState{UserID: "u-1"}, tmpDir)).To(HaveOccurred())
		})

		It("reports corrupt state files", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "chat.json"), []byte("{nope"), 0o600)).To(Succeed())
			_, err := m.LoadChatState(tmpDir)
			Expect(err).To(MatchError(ContainSubstring("parsing chat state")))
		})

		It("clears state and tolerates clearing twice", func() {
			Expect(m.SaveChatState(&dotdir.ChatState{ConversationID: "abc123"}, tmpDir)).To(Succeed())
			Expect(m.ClearChatState(tmpDir)).To(Succeed())
			Expect(m.ClearChatState(tmpDir)).To(Succeed())

			state, err := m.LoadChatState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})
})
