package history_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/history"
	"github.com/papercomputeco/spool/pkg/value"
)

var _ = Describe("DefaultFormat", func() {
	render := func(doc string) string {
		GinkgoHelper()
		m, ok := mustParse(doc).AsMapping()
		Expect(ok).To(BeTrue())
		s, ok := history.DefaultFormat(m).AsString()
		Expect(ok).To(BeTrue())
		return s
	}

	It("renders COMMIT records on one line", func() {
		out := render(`{"query":"COMMIT","path":"test.db","timestamp":"2024-01-01 12:00:00"}`)
		Expect(out).To(Equal("[2024-01-01 12:00:00](test.db) : COMMIT\n"))
	})

	It("renders query records with inputs and outputs", func() {
		out := render(`{"query":"SELECT * FROM t WHERE id = ?","path":"test.db","params":[1],"result":[[1,"a"]],"timestamp":"2024-01-01 12:00:00"}`)
		Expect(out).To(Equal("[2024-01-01 12:00:00](test.db)\nSELECT * FROM t WHERE id = ?\nInput: [1]\nOutput: [[1,\"a\"]]\n"))
	})

	It("marks records without a timestamp", func() {
		out := render(`{"query":"SELECT 1","path":"test.db","params":null,"result":null}`)
		Expect(out).To(HavePrefix("[no timestamp](test.db)\n"))
		Expect(out).To(ContainSubstring("Input: null\n"))
	})

	It("leaves absent fields blank", func() {
		out := render(`{}`)
		Expect(out).To(Equal("[no timestamp]()\n\nInput: \nOutput: \n"))
	})
})

var _ = Describe("Formatter", func() {
	DescribeTable("ParseFormatter",
		func(in string, expected history.Formatter) {
			f, err := history.ParseFormatter(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(f).To(Equal(expected))
			Expect(f.String()).NotTo(BeEmpty())
		},
		Entry("empty", "", history.FormatNone),
		Entry("none", "none", history.FormatNone),
		Entry("default", "default", history.FormatDefault),
		Entry("custom", "custom", history.FormatCustom),
	)

	It("rejects unknown formatters", func() {
		_, err := history.ParseFormatter("pretty")
		Expect(err).To(MatchError(dump.ErrValidation))
	})

	It("renders an empty mapping as text", func() {
		Expect(history.DefaultFormat(value.NewMapping()).Kind()).To(Equal(value.KindString))
	})
})
