package config_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/config"
)

// replaceConfig swaps config.toml in by rename so the watcher never observes
// a half-written file.
func replaceConfig(dir, data string) {
	GinkgoHelper()
	tmp := filepath.Join(dir, "config.toml.tmp")
	Expect(os.WriteFile(tmp, []byte(data), 0o600)).To(Succeed())
	Expect(os.Rename(tmp, filepath.Join(dir, "config.toml"))).To(Succeed())
}

var _ = Describe("WatchConfig", func() {
	It("applies valid reloads and skips invalid ones", func() {
		tmpDir := GinkgoT().TempDir()
		writeConfig(tmpDir, "[history]\ncapacity = 1\n")

		c, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		reloads := make(chan *config.Config, 8)
		done := make(chan error, 1)
		go func() {
			done <- c.WatchConfig(ctx, nil, func(cfg *config.Config) { reloads <- cfg })
		}()

		// Give the watcher time to register the directory.
		time.Sleep(100 * time.Millisecond)

		replaceConfig(tmpDir, "[history]\ncapacity = -5\n")
		Consistently(reloads, 300*time.Millisecond).ShouldNot(Receive())

		replaceConfig(tmpDir, "[history]\ncapacity = 7\n")
		var got *config.Config
		Eventually(reloads, 2*time.Second).Should(Receive(&got))
		Expect(got.History.Capacity).To(Equal(7))

		cancel()
		Eventually(done, time.Second).Should(Receive(BeNil()))
	})
})
