package initcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/glean/cmd/glean/init"
	"github.com/papercomputeco/glean/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("accepts zero arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	runInit := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "glean-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .glean directory in the current directory", func() {
		Expect(runInit()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".glean"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates a config.toml with default values", func() {
		Expect(runInit()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.LLM.BaseURL).To(Equal("https://api.openai.com"))
		Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
		Expect(cfg.Search.QueryParam).To(Equal("q"))
		Expect(cfg.Server.Listen).To(Equal("127.0.0.1:8090"))
	})

	It("does not overwrite an existing config without a preset", func() {
		gleanDir := filepath.Join(tmpDir, ".glean")
		Expect(os.MkdirAll(gleanDir, 0o755)).To(Succeed())

		existing := "[llm]\nmodel = \"mine\"\n"
		Expect(os.WriteFile(filepath.Join(gleanDir, "config.toml"), []byte(existing), 0o600)).To(Succeed())

		Expect(runInit()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(gleanDir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(existing))
	})

	Describe("--preset with provider presets", func() {
		It("creates config.toml with openai preset", func() {
			Expect(runInit("--preset", "openai")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.BaseURL).To(Equal("https://api.openai.com"))
			Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
		})

		It("creates config.toml with ollama preset", func() {
			Expect(runInit("--preset", "ollama")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.LLM.BaseURL).To(Equal("http://localhost:11434"))
			Expect(cfg.LLM.Model).To(Equal("llama3.2"))
		})

		It("rejects unknown preset names", func() {
			err := runInit("--preset", "invalid-provider")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[llm]
base_url = "http://llm.internal:8000"
model = "qwen2.5"

[search]
max_tokens = 300
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(runInit("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.LLM.BaseURL).To(Equal("http://llm.internal:8000"))
			Expect(cfg.LLM.Model).To(Equal("qwen2.5"))
			Expect(cfg.Search.MaxTokens).To(Equal(uint(300)))
		})

		It("returns error for non-200 HTTP response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := runInit("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("HTTP 404"))
		})

		It("returns error for invalid TOML from URL", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := runInit("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing"))
		})

		It("returns error for unreachable URL", func() {
			err := runInit("--preset", "http://127.0.0.1:1")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fetching remote config"))
		})
	})

	Describe("--preset overwrites config on re-init", func() {
		It("overwrites existing config.toml when re-running with a different preset", func() {
			Expect(runInit("--preset", "openai")).To(Succeed())
			Expect(loadConfig(tmpDir).LLM.Model).To(Equal("gpt-4o-mini"))

			Expect(runInit("--preset", "ollama")).To(Succeed())
			Expect(loadConfig(tmpDir).LLM.Model).To(Equal("llama3.2"))
		})
	})
})

// loadConfig is a test helper that reads and parses the config.toml from the
// .glean directory within the given base directory.
func loadConfig(baseDir string) *config.Config {
	configPath := filepath.Join(baseDir, ".glean", "config.toml")
	data, err := os.ReadFile(configPath)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	err = toml.Unmarshal(data, cfg)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return cfg
}
