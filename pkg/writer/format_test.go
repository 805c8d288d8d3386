package writer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/writer"
)

var _ = Describe("Format", func() {
	DescribeTable("ParseFormat",
		func(in string, expected writer.Format) {
			f, err := writer.ParseFormat(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(expected))
		},
		Entry("json alias", "json", writer.FormatDocument),
		Entry("csv alias", "CSV", writer.FormatTable),
		Entry("txt with dot", ".txt", writer.FormatLines),
		Entry("canonical name", "document", writer.FormatDocument),
	)

	It("rejects unknown formats", func() {
		_, err := writer.ParseFormat("xml")
		Expect(err).To(MatchError(writer.ErrUnknownFormat))
	})

	It("infers the format from the extension", func() {
		f, err := writer.FormatFromPath("/tmp/history.JSON")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(writer.FormatDocument))
		Expect(f.Extension()).To(Equal(".json"))

		_, err = writer.FormatFromPath("/tmp/history")
		Expect(err).To(MatchError(writer.ErrUnknownFormat))

		_, err = writer.FormatFromPath("/tmp/history.yaml")
		Expect(err).To(MatchError(writer.ErrUnknownFormat))
	})
})

var _ = Describe("Registry", func() {
	It("holds a writer per format", func() {
		r := writer.NewRegistry(zap.NewNop())
		for _, f := range []writer.Format{writer.FormatDocument, writer.FormatTable, writer.FormatLines} {
			w, err := r.Get(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Format()).To(Equal(f))
		}

		_, err := r.Get(writer.Format("yaml"))
		Expect(err).To(MatchError(writer.ErrUnknownFormat))
	})
})
