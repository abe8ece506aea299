package mips_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mipsdis/internal/mips"
)

func be(word uint32) []byte {
	return []byte{byte(word >> 24), byte(word >> 16), byte(word >> 8), byte(word)}
}

func regs(rs ...mips.Reg) []mips.Operand {
	ops := make([]mips.Operand, len(rs))
	for i, r := range rs {
		ops[i] = mips.RegOp(r)
	}
	return ops
}

var _ = Describe("ReadWord", func() {
	src := mips.Region{Base: 0x1000, Data: []byte{0x01, 0x02, 0x03, 0x04}}

	DescribeTable("byte order",
		func(ctx mips.Context, want uint32) {
			w, n, err := mips.ReadWord(src, 0x1000, &ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
			Expect(w).To(Equal(want))
		},
		Entry("big-endian", mips.Context{BigEndian: true}, uint32(0x01020304)),
		Entry("little-endian", mips.Context{}, uint32(0x04030201)),
		Entry("microMIPS little-endian", mips.Context{MicroMips: true}, uint32(0x02010403)),
	)

	It("fails on a short read", func() {
		_, n, err := mips.ReadWord(src, 0x1001, &mips.Context{})
		Expect(err).To(MatchError(mips.ErrShortRead))
		Expect(n).To(BeZero())
	})

	It("fails below the region base", func() {
		_, _, err := mips.ReadWord(src, 0xffc, &mips.Context{})
		Expect(err).To(MatchError(mips.ErrShortRead))
	})
})

var _ = Describe("Decoder", func() {
	var dec *mips.Decoder

	decode := func(word uint32) (mips.Inst, int, error) {
		return dec.Decode(mips.Region{Base: 0x400000, Data: be(word)}, 0x400000)
	}

	Describe("MIPS32 big-endian", func() {
		BeforeEach(func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, BigEndian: true})
		})

		// addiu $sp, $sp, -32
		It("decodes addiu", func() {
			inst, n, err := decode(0x27bdffe0)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
			Expect(inst.Op).To(Equal(mips.ADDIU))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.SP), mips.RegOp(mips.SP), mips.ImmOp(-32),
			}))
			Expect(inst.String()).To(Equal("addiu $sp, $sp, -32"))
		})

		It("decodes nop", func() {
			inst, _, err := decode(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.NOP))
			Expect(inst.Args).To(BeEmpty())
			Expect(inst.String()).To(Equal("nop"))
		})

		// lw $ra, 28($sp)
		It("decodes a load as data, base, offset", func() {
			inst, _, err := decode(0x8fbf001c)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.LW))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.RA), mips.RegOp(mips.SP), mips.ImmOp(28),
			}))
			Expect(inst.String()).To(Equal("lw $ra, 28($sp)"))
		})

		// sc $t0, 0($a0)
		It("duplicates the data register of sc", func() {
			inst, _, err := decode(0xe0880000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.SC))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.T0), mips.RegOp(mips.T0), mips.RegOp(mips.A0), mips.ImmOp(0),
			}))
			Expect(inst.String()).To(Equal("sc $t0, 0($a0)"))
		})

		It("corrects branch offsets for the delay slot", func() {
			inst, _, err := decode(0x10000003)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.BEQ))
			Expect(inst.Args[2]).To(Equal(mips.ImmOp(16)))
			target, ok := inst.Target(0x1000)
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(uint64(0x1010)))

			inst, _, err = decode(0x1000ffff)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Args[2]).To(Equal(mips.ImmOp(0)))
		})

		It("resolves jump targets within the current region", func() {
			inst, _, err := decode(0x0c100000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.JAL))
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(0x400000)}))
			target, ok := inst.Target(0x80000000)
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(uint64(0x80400000)))
		})

		It("has no static target for jr", func() {
			inst, _, err := decode(0x03e00008)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.JR))
			_, ok := inst.Target(0x1000)
			Expect(ok).To(BeFalse())
		})

		// ext $t0, $a0, 2, 4
		It("decodes the ext size as msbd+1", func() {
			inst, _, err := decode(0x7c881880)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.EXT))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.T0), mips.RegOp(mips.A0), mips.ImmOp(2), mips.ImmOp(4),
			}))
		})

		// ins $t0, $a0, 2, 4
		It("decodes the ins size relative to its position", func() {
			inst, _, err := decode(0x7c882884)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.INS))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.T0), mips.RegOp(mips.A0), mips.ImmOp(2), mips.ImmOp(4), mips.RegOp(mips.T0),
			}))
			Expect(inst.String()).To(Equal("ins $t0, $a0, 2, 4"))
		})

		// rdhwr $v1, $29
		It("accepts only hardware register 29", func() {
			inst, _, err := decode(0x7c03e83b)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Args).To(Equal(regs(mips.ZERO+3, mips.HWR29)))
			Expect(inst.String()).To(Equal("rdhwr $v1, $29"))

			_, n, err := decode(0x7c03e03b)
			Expect(err).To(MatchError(mips.ErrRegisterRange))
			Expect(n).To(BeZero())
		})

		// add.d $f0, $f2, $f4
		It("decodes paired double registers", func() {
			inst, _, err := decode(0x46241000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.ADD_D32))
			Expect(inst.Args).To(Equal(regs(mips.D0, mips.D0+1, mips.D0+2)))
			Expect(inst.String()).To(Equal("add.d $f0, $f2, $f4"))
		})

		It("rejects odd halves of a register pair", func() {
			inst, n, err := decode(0x46240800)
			Expect(err).To(MatchError(mips.ErrRegisterRange))
			Expect(n).To(BeZero())
			Expect(inst.Op).To(Equal(mips.OpInvalid))
			Expect(inst.Args).To(BeEmpty())
		})

		It("reports unknown words as .word", func() {
			inst, n, err := decode(0x67bdffe0)
			Expect(err).To(MatchError(mips.ErrNoMatch))
			Expect(n).To(BeZero())
			Expect(inst.Enc).To(Equal(uint32(0x67bdffe0)))
			Expect(inst.String()).To(Equal(".word 0x67bdffe0"))
		})

		// mult $ac1, $a0, $a1
		It("needs the DSP feature for accumulator forms", func() {
			_, _, err := decode(0x00850818)
			Expect(err).To(MatchError(mips.ErrNoMatch))

			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, BigEndian: true, Features: mips.FeatureDSP})
			inst, _, err := decode(0x00850818)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.MULT_DSP))
			Expect(inst.Args).To(Equal(regs(mips.AC0+1, mips.A0, mips.A0+1)))
		})

		It("decodes full 64-bit FPU registers in FR=1 mode", func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, BigEndian: true, Features: mips.FeatureFP64})
			inst, _, err := decode(0x46240800)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.ADD_D64))
			Expect(inst.Args).To(Equal(regs(mips.D0_64, mips.D0_64+1, mips.D0_64+4)))
		})
	})

	Describe("MSA", func() {
		BeforeEach(func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, BigEndian: true, Features: mips.FeatureMSA})
		})

		DescribeTable("scales the load offset by element size",
			func(word uint32, op mips.Opcode, offset int64) {
				inst, _, err := decode(word)
				Expect(err).NotTo(HaveOccurred())
				Expect(inst.Op).To(Equal(op))
				Expect(inst.Args).To(Equal([]mips.Operand{
					mips.RegOp(mips.W0 + 1), mips.RegOp(mips.A0), mips.ImmOp(offset),
				}))
			},
			Entry("ld.b", uint32(0x78032060), mips.LD_B, int64(3)),
			Entry("ld.h", uint32(0x78032061), mips.LD_H, int64(6)),
			Entry("ld.w", uint32(0x78032062), mips.LD_W, int64(12)),
			Entry("ld.d", uint32(0x78032063), mips.LD_D, int64(24)),
			Entry("ld.d negative", uint32(0x7bff2063), mips.LD_D, int64(-8)),
		)

		// insve.b $w1[3], $w2[0]
		It("decodes insve.b with a 4-bit index", func() {
			inst, _, err := decode(0x79431059)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.INSVE_B))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.W0 + 1), mips.RegOp(mips.W0 + 1), mips.ImmOp(3),
				mips.RegOp(mips.W0 + 2), mips.ImmOp(0),
			}))
			Expect(inst.String()).To(Equal("insve.b $w1[3], $w2[0]"))
		})

		// insve.d $w1[1], $w2[0]
		It("decodes insve.d with a 1-bit index and a trailing zero", func() {
			inst, _, err := decode(0x79791059)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.INSVE_D))
			Expect(inst.Args).To(HaveLen(5))
			Expect(inst.Args[2]).To(Equal(mips.ImmOp(1)))
			Expect(inst.Args[4]).To(Equal(mips.ImmOp(0)))
		})

		// lsa $v0, $a0, $a1, 3
		It("adds one to the lsa shift amount", func() {
			inst, _, err := decode(0x00851085)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.LSA))
			Expect(inst.Args[3]).To(Equal(mips.ImmOp(3)))
		})

		// ctcmsa $msacsr, $a0
		It("decodes MSA control registers", func() {
			inst, _, err := decode(0x783e2059)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.CTCMSA))
			Expect(inst.String()).To(Equal("ctcmsa $msacsr, $a0"))
		})
	})

	Describe("MIPS64", func() {
		BeforeEach(func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips64, BigEndian: true})
		})

		It("decodes 64-bit encodings through GPR64", func() {
			inst, _, err := decode(0x67bdffe0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.DADDIU))
			Expect(inst.Args[0].Reg.Is64()).To(BeTrue())
			Expect(inst.String()).To(Equal("daddiu $sp, $sp, -32"))
		})

		It("falls back to the 32-bit table", func() {
			inst, n, err := decode(0x27bdffe0)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
			Expect(inst.Op).To(Equal(mips.ADDIU))
			Expect(inst.Args[0]).To(Equal(mips.RegOp(mips.SP)))
		})

		It("fails when neither table matches", func() {
			_, n, err := decode(0xec000000)
			Expect(err).To(MatchError(mips.ErrNoMatch))
			Expect(n).To(BeZero())
		})

		// ld $ra, 8($sp)
		It("resolves the base register by pointer width", func() {
			inst, _, err := decode(0xdfbf0008)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.LD))
			Expect(inst.Args[1]).To(Equal(mips.RegOp(mips.SP)))

			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips64, BigEndian: true, Features: mips.FeatureN64})
			inst, _, err = decode(0xdfbf0008)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Args[1]).To(Equal(mips.RegOp(mips.ZERO64 + 29)))
			Expect(inst.String()).To(Equal("ld $ra, 8($sp)"))
		})

		It("does not hide table inconsistencies behind the fallback", func() {
			m := mips.NewTableMatcher(map[mips.TableID][]mips.Encoding{
				mips.TableMips64: {{Op: mips.DADDU, Fields: []mips.Field{{Kind: mips.FieldMSA128Mem}}}},
				mips.TableMips32: {{Op: mips.NOP}},
			})
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips64}, mips.WithMatcher(m))
			_, n, err := decode(0)
			Expect(err).To(MatchError(mips.ErrContract))
			var ce *mips.ContractError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Field).To(Equal(mips.FieldMSA128Mem))
			Expect(n).To(BeZero())
		})
	})

	Describe("microMIPS little-endian", func() {
		BeforeEach(func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, Features: mips.FeatureMicroMips})
		})

		mm := func(word uint32) []byte {
			return []byte{byte(word >> 16), byte(word >> 24), byte(word), byte(word >> 8)}
		}
		decodeMM := func(word uint32, addr uint64) (mips.Inst, int, error) {
			return dec.Decode(mips.Region{Base: addr, Data: mm(word)}, addr)
		}

		It("reassembles halfwords before matching", func() {
			inst, n, err := decodeMM(0x33bdffe0, 0x1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(4))
			Expect(inst.Op).To(Equal(mips.ADDIU_MM))
			Expect(inst.String()).To(Equal("addiu $sp, $sp, -32"))
		})

		It("scales branch offsets by halfwords", func() {
			inst, _, err := decodeMM(0x94040004, 0x1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.BEQ_MM))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.A0), mips.RegOp(mips.ZERO), mips.ImmOp(8),
			}))
			target, ok := inst.Target(0x1000)
			Expect(ok).To(BeTrue())
			Expect(target).To(Equal(uint64(0x100c)))
		})

		It("scales jump targets by halfwords", func() {
			inst, _, err := decodeMM(0xd4000100, 0x80001000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.J_MM))
			Expect(inst.Args).To(Equal([]mips.Operand{mips.ImmOp(0x200)}))
			target, _ := inst.Target(0x80001000)
			Expect(target).To(Equal(uint64(0x80000200)))
		})

		It("decodes 16-bit offset memory operands", func() {
			inst, _, err := decodeMM(0xfffd0004, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.LW_MM))
			Expect(inst.String()).To(Equal("lw $ra, 4($sp)"))
		})

		It("decodes 12-bit offset memory operands", func() {
			inst, _, err := decodeMM(0x6104b008, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(mips.SC_MM))
			Expect(inst.Args).To(Equal([]mips.Operand{
				mips.RegOp(mips.T0), mips.RegOp(mips.T0), mips.RegOp(mips.A0), mips.ImmOp(8),
			}))
		})
	})

	Describe("short reads", func() {
		DescribeTable("fail with zero bytes consumed",
			func(cfg mips.Config) {
				d := mips.NewDecoder(cfg)
				inst, n, err := d.Decode(mips.Region{Base: 0x10, Data: []byte{1, 2, 3}}, 0x10)
				Expect(err).To(MatchError(mips.ErrShortRead))
				Expect(n).To(BeZero())
				Expect(inst.Op).To(Equal(mips.OpInvalid))
			},
			Entry("mips32 big-endian", mips.Config{Arch: mips.ArchMips32, BigEndian: true}),
			Entry("mips32 little-endian", mips.Config{Arch: mips.ArchMips32}),
			Entry("mips64", mips.Config{Arch: mips.ArchMips64, BigEndian: true}),
			Entry("microMIPS", mips.Config{Arch: mips.ArchMips32, Features: mips.FeatureMicroMips}),
		)
	})

	Describe("purity", func() {
		It("returns equal, unaliased results for identical input", func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips32, BigEndian: true})
			first, n1, err1 := decode(0x8fbf001c)
			second, n2, err2 := decode(0x8fbf001c)
			Expect(first).To(Equal(second))
			Expect(n1).To(Equal(n2))
			Expect(err1).NotTo(HaveOccurred())
			Expect(err2).NotTo(HaveOccurred())

			first.Args[0] = mips.ImmOp(99)
			Expect(second.Args[0]).To(Equal(mips.RegOp(mips.RA)))
		})

		It("is safe for concurrent use", func() {
			dec = mips.NewDecoder(mips.Config{Arch: mips.ArchMips64, BigEndian: true})
			done := make(chan mips.Inst, 8)
			for i := 0; i < 8; i++ {
				go func() {
					defer GinkgoRecover()
					inst, _, err := decode(0x67bdffe0)
					Expect(err).NotTo(HaveOccurred())
					done <- inst
				}()
			}
			for i := 0; i < 8; i++ {
				Expect((<-done).Op).To(Equal(mips.DADDIU))
			}
		})
	})
})

var _ = DescribeTable("WritesFirst",
	func(op mips.Opcode, want bool) {
		Expect(op.WritesFirst()).To(Equal(want))
	},
	Entry("addiu", mips.ADDIU, true),
	Entry("lw", mips.LW, true),
	Entry("sc writes the status back", mips.SC, true),
	Entry("sw", mips.SW, false),
	Entry("mult", mips.MULT, false),
	Entry("mtc1", mips.MTC1, false),
	Entry("st.w", mips.ST_W, false),
	Entry("unknown opcode", mips.Opcode(0xffff), false),
)
