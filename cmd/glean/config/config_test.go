package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/glean/cmd/glean/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetArgs(args)
		cmd.SetOut(out)
		cmd.SetErr(out)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "glean-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .glean dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".glean"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "llm.model", "gpt-4o")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".glean", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`model = "gpt-4o"`))
			Expect(out.String()).To(ContainSubstring("gpt-4o"))
		})

		It("masks secrets in its output", func() {
			Expect(run("set", "llm.api_key", "sk-secret-9876")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("sk-secret"))
			Expect(out.String()).To(ContainSubstring("9876"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "llm.model")).NotTo(Succeed())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).NotTo(Succeed())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "search.max_tokens", "not-a-number")).NotTo(Succeed())
		})

		It("rejects invalid durations", func() {
			Expect(run("set", "llm.timeout", "soon")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "llm.model", "llama3.2")).To(Succeed())

			out.Reset()
			Expect(run("get", "llm.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("llama3.2"))
		})

		It("masks secrets", func() {
			Expect(run("set", "llm.api_key", "sk-secret-9876")).To(Succeed())

			out.Reset()
			Expect(run("get", "llm.api_key")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("sk-secret"))
			Expect(out.String()).To(ContainSubstring("********9876"))
		})

		It("reports an unset key", func() {
			Expect(run("get", "llm.api_key")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists defaults when no config exists", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`"gpt-4o-mini"`))
		})

		It("lists set values with secrets masked", func() {
			Expect(run("set", "llm.api_key", "sk-secret-9876")).To(Succeed())
			Expect(run("set", "server.listen", ":9000")).To(Succeed())

			out.Reset()
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Using config file"))
			Expect(out.String()).To(ContainSubstring(`":9000"`))
			Expect(out.String()).NotTo(ContainSubstring("sk-secret"))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).NotTo(Succeed())
		})
	})
})
