package initcmder_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/spool/cmd/spool/init"
	"github.com/papercomputeco/spool/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).NotTo(Succeed())
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

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(io.Discard)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	loadConfig := func() *config.Config {
		GinkgoHelper()
		cfg := &config.Config{}
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".spool", "config.toml"), cfg)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("creates a .spool directory with a default config.toml", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".spool"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig()
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.History.Capacity).To(Equal(config.NewDefaultConfig().History.Capacity))
		Expect(cfg.Dump.Mode).To(Equal("append"))
		Expect(cfg.API.Listen).To(Equal(":8081"))
	})

	It("keeps an existing config.toml when no preset is given", func() {
		dir := filepath.Join(tmpDir, ".spool")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		existing := "version = 0\n\n[dump]\nmode = \"extend\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(existing), 0o600)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(existing))
	})

	Describe("--preset with named presets", func() {
		It("writes the csv preset", func() {
			Expect(run("--preset", "csv")).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.Dump.Destination).To(Equal("history.csv"))
			Expect(cfg.Dump.LogTime).To(BeTrue())
		})

		It("writes the txt preset with the default formatter", func() {
			Expect(run("--preset", "txt")).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.Dump.Destination).To(Equal("history.txt"))
			Expect(cfg.History.Formatter).To(Equal("default"))
		})

		It("replaces an existing config", func() {
			Expect(run()).To(Succeed())
			Expect(run("--preset", "json")).To(Succeed())
			Expect(loadConfig().Dump.Key).To(Equal("history"))
		})

		It("rejects unknown preset names", func() {
			err := run("--preset", "yaml")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown preset"))
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes a remote config.toml", func() {
			remote := "version = 0\n\n[history]\ncapacity = 25\n\n[dump]\ndestination = \"runs.csv\"\nmode = \"extend\"\n"
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, remote)
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())
			cfg := loadConfig()
			Expect(cfg.History.Capacity).To(Equal(25))
			Expect(cfg.Dump.Destination).To(Equal("runs.csv"))
			Expect(cfg.Dump.Mode).To(Equal("extend"))
			Expect(cfg.API.Listen).To(Equal(":8081"))
		})

		It("fails on a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unexpected status"))
		})

		It("rejects a remote config that fails validation", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "version = 0\n\n[dump]\nmode = \"sideways\"\n")
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).NotTo(Succeed())
			_, err := os.Stat(filepath.Join(tmpDir, ".spool", "config.toml"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
