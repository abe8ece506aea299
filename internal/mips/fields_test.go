package mips_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mipsdis/internal/mips"
)

var _ = Describe("Field decoders", func() {
	var (
		ctx  mips.Context
		inst mips.Inst
	)

	BeforeEach(func() {
		ctx = mips.Context{Regs: mips.NewRegisterInfo(), BigEndian: true}
		inst = mips.Inst{}
	})

	It("has a decoder for every field kind", func() {
		for k := mips.FieldKind(0); k < mips.NumFieldKinds; k++ {
			_, ok := k.Decoder()
			Expect(ok).To(BeTrue(), "missing decoder for %s", k)
		}
		_, ok := mips.FieldKind(mips.NumFieldKinds).Decoder()
		Expect(ok).To(BeFalse())
	})

	It("reports an out of range kind as a contract error", func() {
		err := mips.DecodeField(mips.NumFieldKinds, &inst, 0, 0, &ctx)
		Expect(err).To(MatchError(mips.ErrContract))
	})

	Describe("immediates", func() {
		It("adds one to the lsa field", func() {
			Expect(mips.DecodeField(mips.FieldLSAImm, &inst, 5, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(6)}))
		})

		It("adds one to the extract size", func() {
			Expect(mips.DecodeField(mips.FieldExtSize, &inst, 3, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(4)}))
		})

		It("computes the insert size from the position operand", func() {
			inst.Args = []mips.Operand{mips.RegOp(mips.T0), mips.RegOp(mips.A0), mips.ImmOp(2)}
			Expect(mips.DecodeField(mips.FieldInsSize, &inst, 5, 0, &ctx)).To(Succeed())
			Expect(inst.Args[3]).To(Equal(mips.ImmOp(4)))
		})

		It("rejects an insert size decoded before its position", func() {
			inst.Args = []mips.Operand{mips.RegOp(mips.T0)}
			err := mips.DecodeField(mips.FieldInsSize, &inst, 5, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrContract))
			Expect(inst.Args).To(HaveLen(1))
		})

		It("sign extends 16-bit immediates", func() {
			Expect(mips.DecodeField(mips.FieldSimm16, &inst, 0x8000, 0, &ctx)).To(Succeed())
			Expect(inst.Args[0]).To(Equal(mips.ImmOp(-32768)))
		})
	})

	Describe("targets", func() {
		DescribeTable("classic branch offsets",
			func(raw uint32, want int64) {
				Expect(mips.DecodeField(mips.FieldBranchTarget, &inst, raw, 0, &ctx)).To(Succeed())
				Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(want)}))
			},
			Entry("forward", uint32(3), int64(16)),
			Entry("self", uint32(0xffff), int64(0)),
			Entry("most negative", uint32(0x8000), int64(-131068)),
		)

		It("scales microMIPS branch offsets without correction", func() {
			Expect(mips.DecodeField(mips.FieldBranchTargetMM, &inst, 4, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(8)}))
		})

		It("takes 26 jump bits", func() {
			Expect(mips.DecodeField(mips.FieldJumpTarget, &inst, 0xffffffff, 0, &ctx)).To(Succeed())
			Expect(mips.DecodeField(mips.FieldJumpTargetMM, &inst, 0xffffffff, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(0x0ffffffc), mips.ImmOp(0x07fffffe)}))
		})
	})

	Describe("registers", func() {
		It("resolves pointers by the pointer width", func() {
			Expect(mips.DecodeField(mips.FieldPtr, &inst, 29, 0, &ctx)).To(Succeed())
			ctx.N64 = true
			Expect(mips.DecodeField(mips.FieldPtr, &inst, 29, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal(regs(mips.SP, mips.ZERO64+29)))
		})

		It("aliases DSP registers to GPR32", func() {
			Expect(mips.DecodeField(mips.FieldDSPR, &inst, 4, 0, &ctx)).To(Succeed())
			Expect(inst.Args).To(Equal(regs(mips.A0)))
		})

		It("never decodes MIPS16 registers", func() {
			err := mips.DecodeField(mips.FieldCPU16Regs, &inst, 0, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrUnsupportedClass))
			Expect(inst.Args).To(BeEmpty())
		})

		It("appends nothing on an out of range index", func() {
			err := mips.DecodeField(mips.FieldFCC, &inst, 8, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrRegisterRange))
			Expect(inst.Args).To(BeEmpty())
		})
	})

	Describe("memory operands", func() {
		It("rejects a vector offset for a non-vector opcode", func() {
			inst.Op = mips.ADDU
			err := mips.DecodeField(mips.FieldMSA128Mem, &inst, 0x78032060, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrContract))
			Expect(inst.Args).To(BeEmpty())
		})

		It("appends nothing when a register lookup fails", func() {
			inst.Op = mips.LDC1
			// empty tables fail every lookup
			ctx.Regs = &mips.RegisterInfo{}
			err := mips.DecodeField(mips.FieldFMem, &inst, 0xd7a20008, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrRegisterRange))
			Expect(inst.Args).To(BeEmpty())
		})
	})

	Describe("insve", func() {
		It("fails on a tag outside the four element formats", func() {
			inst.Op = mips.INSVE_B
			err := mips.DecodeField(mips.FieldINSVE, &inst, 0x79400019|0x1f<<17, 0, &ctx)
			Expect(err).To(MatchError(mips.ErrContract))
			Expect(inst.Args).To(BeEmpty())
		})

		DescribeTable("index width follows the element format",
			func(dfn uint32, index int64) {
				word := uint32(0x79400019) | dfn<<16 | 2<<11 | 1<<6
				Expect(mips.DecodeField(mips.FieldINSVE, &inst, word, 0, &ctx)).To(Succeed())
				Expect(inst.Args).To(HaveLen(5))
				Expect(inst.Args[0]).To(Equal(inst.Args[1]))
				Expect(inst.Args[2]).To(Equal(mips.ImmOp(index)))
				Expect(inst.Args[3]).To(Equal(mips.RegOp(mips.W0 + 2)))
				Expect(inst.Args[4]).To(Equal(mips.ImmOp(0)))
			},
			Entry("byte, 4-bit index", uint32(0x0f), int64(15)),
			Entry("half, 3-bit index", uint32(0x27), int64(7)),
			Entry("word, 2-bit index", uint32(0x33), int64(3)),
			Entry("double, 1-bit index", uint32(0x39), int64(1)),
		)
	})
})
