package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("runs fn and reports success", func() {
			var buf bytes.Buffer
			ran := false
			err := cliui.Step(&buf, "writing history", func() error {
				ran = true
				return nil
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(ran).To(BeTrue())
			Expect(buf.String()).To(ContainSubstring("writing history"))
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		})

		It("returns fn's error and marks failure", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")
			err := cliui.Step(&buf, "writing history", func() error { return boom })

			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})
	})

	Describe("FormatDuration", func() {
		It("uses milliseconds below a second", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("uses seconds with one decimal above", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("KeyValue", func() {
		It("prints the key and value", func() {
			var buf bytes.Buffer
			cliui.KeyValue(&buf, 10, "dump.mode", "append")
			Expect(buf.String()).To(ContainSubstring("dump.mode"))
			Expect(buf.String()).To(ContainSubstring("append"))
			Expect(buf.String()).To(HaveSuffix("\n"))
		})

		It("marks empty values as unset", func() {
			var buf bytes.Buffer
			cliui.KeyValue(&buf, 10, "dump.key", "")
			Expect(buf.String()).To(ContainSubstring("<unset>"))
		})
	})

	Describe("RenderMarkdown", func() {
		It("renders table cells", func() {
			out, err := cliui.RenderMarkdown("| key | value |\n|---|---|\n| state | idle |\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("state"))
			Expect(out).To(ContainSubstring("idle"))
		})
	})
})
