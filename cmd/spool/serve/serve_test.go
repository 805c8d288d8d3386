package servecmder_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/spool/cmd/spool/serve"
)

var _ = Describe("Serve command", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".spool"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("registers every config flag", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"capacity", "tolerance", "formatter", "destination", "format", "mode", "key",
			"strict-keys", "log-time", "log-as", "max-concurrency", "listen",
			"event-provider", "event-brokers", "event-topic",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects an invalid configuration before starting", func() {
		cmd := servecmder.NewServeCmd()
		cmd.SetArgs([]string{"--mode", "sideways"})
		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("dump.mode"))
	})

	It("rejects kafka without brokers", func() {
		cmd := servecmder.NewServeCmd()
		cmd.SetArgs([]string{"--event-provider", "kafka"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})

	It("serves until its context is cancelled and writes a log file", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		cmd := servecmder.NewServeCmd()
		cmd.SetArgs([]string{
			"--listen", "127.0.0.1:0",
			"-o", filepath.Join(tmpDir, "history.json"),
		})
		Expect(cmd.ExecuteContext(ctx)).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".spool", "logs", "serve.log"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(BeNumerically(">", 0))
	})
})
