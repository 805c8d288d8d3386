package dumpcmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	dumpcmder "github.com/papercomputeco/spool/cmd/spool/dump"
)

var _ = Describe("Dump command", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		cmd := dumpcmder.NewDumpCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	read := func(name string) string {
		GinkgoHelper()
		data, err := os.ReadFile(filepath.Join(tmpDir, name))
		Expect(err).NotTo(HaveOccurred())
		return string(data)
	}

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".spool"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("registers the shared config flags", func() {
		cmd := dumpcmder.NewDumpCmd()
		for _, name := range []string{"destination", "format", "mode", "key", "strict-keys", "log-time", "batch"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("destination").Shorthand).To(Equal("o"))
	})

	It("appends argument records to a JSON document", func() {
		Expect(run("", "-o", "out.json", `{"a":1}`, `{"b":2}`)).To(Succeed())
		Expect(read("out.json")).To(MatchJSON(`[{"a":1},{"b":2}]`))
		Expect(out.String()).To(ContainSubstring("Writing 2 record(s)"))
	})

	It("reads a record from stdin", func() {
		Expect(run(`"hello"`, "-o", "out.txt")).To(Succeed())
		Expect(read("out.txt")).To(Equal("hello\n"))
	})

	It("splits a batch array into records", func() {
		Expect(run(`[{"a":1,"b":2},{"b":3,"c":4}]`, "--batch", "-o", "out.csv")).To(Succeed())
		Expect(read("out.csv")).To(Equal("a,b,c\n1,2,\n,3,4\n"))
	})

	It("nests records under a key", func() {
		Expect(run("", "-o", "out.json", "-k", "runs.latest", "-m", "update", `{"loss":0.5}`)).To(Succeed())
		Expect(read("out.json")).To(MatchJSON(`{"runs":{"latest":{"loss":0.5}}}`))
	})

	It("honors the mode from config.toml", func() {
		cfg := "version = 0\n\n[dump]\nmode = \"overwrite\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, ".spool", "config.toml"), []byte(cfg), 0o600)).To(Succeed())

		Expect(run("", "-o", "out.txt", `"first"`)).To(Succeed())
		Expect(run("", "-o", "out.txt", `"second"`)).To(Succeed())
		Expect(read("out.txt")).To(Equal("second\n"))
	})

	It("fails on a strict key path that does not exist", func() {
		err := run("", "-o", "out.json", "-k", "missing", "--strict-keys", `1`)
		Expect(err).To(HaveOccurred())
		_, statErr := os.Stat(filepath.Join(tmpDir, "out.json"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("rejects invalid JSON", func() {
		err := run("", "-o", "out.json", `{"a":`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("not valid JSON"))
	})

	It("rejects empty stdin", func() {
		Expect(run("  \n", "-o", "out.json")).To(MatchError(dumpcmder.ErrNoRecords))
	})

	It("rejects an invalid mode", func() {
		Expect(run("", "-o", "out.json", "-m", "sideways", `1`)).NotTo(Succeed())
	})
})
