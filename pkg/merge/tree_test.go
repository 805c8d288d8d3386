package merge_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
)

var _ = Describe("Root", func() {
	It("overwrite replaces the document", func() {
		out, err := merge.Root(mustParse(`[1]`), mustParse(`{"a":1}`), merge.ModeOverwrite)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `{"a":1}`)
	})

	Context("append", func() {
		It("pushes onto a sequence as one element", func() {
			out, err := merge.Root(mustParse(`[1]`), mustParse(`[2,3]`), merge.ModeAppend)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `[1,[2,3]]`)
		})

		It("unions mappings with payload precedence", func() {
			out, err := merge.Root(mustParse(`{"a":1,"b":2}`), mustParse(`{"b":3,"c":4}`), merge.ModeAppend)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"a":1,"b":3,"c":4}`)
		})

		It("unions sets", func() {
			out, err := merge.Root(value.Set(value.Int(1)), value.Set(value.Int(1), value.Int(2)), merge.ModeAppend)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Kind()).To(Equal(value.KindSet))
			Expect(out.Len()).To(Equal(2))
		})

		It("wraps mismatched shapes", func() {
			out, err := merge.Root(mustParse(`{"a":1}`), value.String("x"), merge.ModeAppend)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `[{"a":1},"x"]`)
		})

		It("does not mutate the stored document", func() {
			doc := mustParse(`{"a":1}`)
			_, err := merge.Root(doc, mustParse(`{"b":2}`), merge.ModeAppend)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(doc, `{"a":1}`)
		})
	})

	DescribeTable("extend and update",
		func(mode merge.Mode) {
			out, err := merge.Root(mustParse(`[1]`), mustParse(`[2,3]`), mode)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `[1,2,3]`)

			out, err = merge.Root(mustParse(`{"a":1}`), mustParse(`{"a":2}`), mode)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"a":2}`)

			_, err = merge.Root(mustParse(`[1]`), value.Int(2), mode)
			Expect(err).To(MatchError(merge.ErrMergeType))

			_, err = merge.Root(value.String("x"), value.String("y"), mode)
			Expect(err).To(MatchError(merge.ErrMergeType))
		},
		Entry("extend", merge.ModeExtend),
		Entry("update", merge.ModeUpdate),
	)
})

var _ = Describe("Nested", func() {
	It("creates intermediates and wraps the payload on append to an absent slot", func() {
		out, err := merge.Nested(mustParse(`{}`), []string{"a", "b"}, value.Int(1), merge.ModeAppend, false)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `{"a":{"b":[1]}}`)
	})

	It("treats a null slot as absent", func() {
		out, err := merge.Nested(mustParse(`{"a":null}`), []string{"a"}, value.Int(1), merge.ModeAppend, false)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `{"a":[1]}`)
	})

	It("replaces non-mapping intermediates when not strict", func() {
		out, err := merge.Nested(mustParse(`{"a":5}`), []string{"a", "b"}, value.Int(1), merge.ModeOverwrite, false)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `{"a":{"b":1}}`)
	})

	It("replaces a non-mapping root when not strict", func() {
		out, err := merge.Nested(mustParse(`[1,2]`), []string{"k"}, value.Int(1), merge.ModeOverwrite, false)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `{"k":1}`)
	})

	It("fails on missing intermediates when strict", func() {
		_, err := merge.Nested(mustParse(`{}`), []string{"a", "b"}, value.Int(1), merge.ModeAppend, true)
		Expect(err).To(MatchError(merge.ErrKeyPath))
	})

	Context("append", func() {
		It("pushes onto a sequence slot", func() {
			out, err := merge.Nested(mustParse(`{"k":[1]}`), []string{"k"}, value.Int(2), merge.ModeAppend, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":[1,2]}`)
		})

		It("unions mapping slots", func() {
			out, err := merge.Nested(mustParse(`{"k":{"a":1}}`), []string{"k"}, mustParse(`{"a":2,"b":3}`), merge.ModeAppend, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":{"a":2,"b":3}}`)
		})

		It("wraps scalar slots", func() {
			out, err := merge.Nested(mustParse(`{"k":"x"}`), []string{"k"}, value.String("y"), merge.ModeAppend, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":["x","y"]}`)
		})

		It("wraps set slots instead of unioning them", func() {
			doc := value.FromMapping(value.MappingOf(value.P("k", value.Set(value.Int(1)))))
			out, err := merge.Nested(doc, []string{"k"}, value.Set(value.Int(2)), merge.ModeAppend, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":[[1],[2]]}`)
		})
	})

	DescribeTable("extend and update",
		func(mode merge.Mode) {
			out, err := merge.Nested(mustParse(`{}`), []string{"k"}, value.Int(1), mode, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":1}`)

			out, err = merge.Nested(mustParse(`{"k":[1]}`), []string{"k"}, mustParse(`[2]`), mode, false)
			Expect(err).NotTo(HaveOccurred())
			EqualJSON(out, `{"k":[1,2]}`)

			_, err = merge.Nested(mustParse(`{"k":[1]}`), []string{"k"}, value.Int(2), mode, false)
			Expect(err).To(MatchError(merge.ErrMergeType))
		},
		Entry("extend", merge.ModeExtend),
		Entry("update", merge.ModeUpdate),
	)

	It("leaves the input document untouched", func() {
		doc := mustParse(`{"a":{"b":[1]}}`)
		_, err := merge.Nested(doc, []string{"a", "b"}, value.Int(2), merge.ModeAppend, false)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(doc, `{"a":{"b":[1]}}`)
	})
})

var _ = Describe("ValidateStrict", func() {
	It("accepts an existing path of mappings", func() {
		Expect(merge.ValidateStrict(mustParse(`{"a":{"b":[]}}`), []string{"a", "b"})).To(Succeed())
	})

	It("requires the last segment to exist", func() {
		err := merge.ValidateStrict(mustParse(`{"a":{}}`), []string{"a", "b"})
		Expect(err).To(MatchError(merge.ErrKeyPath))
	})

	It("requires every walked container to be a mapping", func() {
		err := merge.ValidateStrict(mustParse(`{"a":[1]}`), []string{"a", "b"})
		Expect(err).To(MatchError(merge.ErrKeyPath))
	})
})

var _ = Describe("Document", func() {
	It("validates strict keys before merging", func() {
		_, err := merge.Document(mustParse(`{"a":{}}`), []string{"a", "b"}, value.Int(1), merge.ModeAppend, true)
		Expect(err).To(MatchError(merge.ErrKeyPath))
	})

	It("merges at the root without a key", func() {
		out, err := merge.Document(mustParse(`[]`), nil, value.Int(1), merge.ModeAppend, true)
		Expect(err).NotTo(HaveOccurred())
		EqualJSON(out, `[1]`)
	})

	It("rejects invalid modes", func() {
		_, err := merge.Document(mustParse(`[]`), nil, value.Int(1), merge.Mode("x"), false)
		Expect(err).To(MatchError(merge.ErrInvalidMode))
	})
})
