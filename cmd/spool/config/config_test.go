package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/spool/cmd/spool/config"
	"github.com/papercomputeco/spool/pkg/config"
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
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .spool dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".spool"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	loadConfig := func() *config.Config {
		GinkgoHelper()
		cfger, err := config.NewConfiger(filepath.Join(tmpDir, ".spool"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "dump.mode", "extend")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".spool", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loadConfig().Dump.Mode).To(Equal("extend"))
			Expect(out.String()).To(ContainSubstring("dump.mode"))
		})

		It("splits broker lists", func() {
			Expect(run("set", "eventstream.brokers", "a:9092, b:9092")).To(Succeed())
			Expect(loadConfig().EventStream.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
		})

		It("rejects unknown keys", func() {
			err := run("set", "invalid_key", "value")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("rejects values that fail validation", func() {
			Expect(run("set", "dump.mode", "sideways")).NotTo(Succeed())
			_, err := os.Stat(filepath.Join(tmpDir, ".spool", "config.toml"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("rejects invalid int values", func() {
			Expect(run("set", "history.capacity", "not-a-number")).NotTo(Succeed())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "dump.mode")).NotTo(Succeed())
			Expect(run("set")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "dump.key", "runs.latest")).To(Succeed())
			out.Reset()

			Expect(run("get", "dump.key")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("runs.latest"))
		})

		It("shows an unset value as unset", func() {
			Expect(run("get", "dump.key")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<unset>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "nope")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("notes when no config file exists", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No config file found"))
		})
	})
})
