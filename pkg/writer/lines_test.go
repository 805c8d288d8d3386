package writer_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
	"github.com/papercomputeco/spool/pkg/writer"
)

var _ = Describe("LinesWriter", func() {
	var (
		w    *writer.LinesWriter
		path string
		ctx  context.Context
	)

	BeforeEach(func() {
		w = writer.NewLinesWriter(zap.NewNop())
		path = filepath.Join(GinkgoT().TempDir(), "history.txt")
		ctx = context.Background()
	})

	It("overwrites then appends line by line", func() {
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, value.String("hello"))).To(Succeed())
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeAppend}, value.String("world"))).To(Succeed())
		Expect(readFile(path)).To(Equal("hello\nworld\n"))
	})

	It("renders each value in display form", func() {
		payload := value.Sequence(value.Int(1), value.Float(2), value.Null(), value.Bool(true), mustParse(`{"a":[1]}`))
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, payload)).To(Succeed())
		Expect(readFile(path)).To(Equal("1\n2.0\nnull\ntrue\n{\"a\":[1]}\n"))
	})

	It("flattens a batch into one merge", func() {
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, value.String("first"))).To(Succeed())

		batch := []value.Value{mustParse(`["a","b"]`), value.String("c"), value.Set(value.String("d"))}
		Expect(w.WriteBatch(ctx, writer.Request{Path: path, Mode: merge.ModeExtend}, batch)).To(Succeed())
		Expect(readFile(path)).To(Equal("first\na\nb\nc\n[\"d\"]\n"))
	})

	It("keeps blank lines already in the file", func() {
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, mustParse(`["a","","b"]`))).To(Succeed())
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeAppend}, value.String("c"))).To(Succeed())
		Expect(readFile(path)).To(Equal("a\n\nb\nc\n"))
	})

	It("truncates the file for an empty overwrite", func() {
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, value.String("x"))).To(Succeed())
		Expect(w.WriteSingle(ctx, writer.Request{Path: path, Mode: merge.ModeOverwrite}, value.Null())).To(Succeed())
		Expect(readFile(path)).To(BeEmpty())
	})
})
