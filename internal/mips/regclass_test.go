package mips_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mipsdis/internal/mips"
)

var _ = Describe("RegisterInfo", func() {
	ri := mips.NewRegisterInfo()

	DescribeTable("enforces the class bound before lookup",
		func(rc mips.RegClass, bound uint32) {
			Expect(rc.Bound()).To(Equal(bound))
			_, err := ri.Lookup(rc, bound-1)
			Expect(err).NotTo(HaveOccurred())
			_, err = ri.Lookup(rc, bound)
			Expect(err).To(MatchError(mips.ErrRegisterRange))
		},
		Entry("GPR32", mips.ClassGPR32, uint32(32)),
		Entry("GPR64", mips.ClassGPR64, uint32(32)),
		Entry("DSPR", mips.ClassDSPR, uint32(32)),
		Entry("FGR32", mips.ClassFGR32, uint32(32)),
		Entry("FGR64", mips.ClassFGR64, uint32(32)),
		Entry("FGRH32", mips.ClassFGRH32, uint32(32)),
		Entry("CCR", mips.ClassCCR, uint32(32)),
		Entry("FCC", mips.ClassFCC, uint32(8)),
		Entry("ACC64DSP", mips.ClassACC64DSP, uint32(4)),
		Entry("HI32DSP", mips.ClassHI32DSP, uint32(4)),
		Entry("LO32DSP", mips.ClassLO32DSP, uint32(4)),
		Entry("MSA128B", mips.ClassMSA128B, uint32(32)),
		Entry("MSA128H", mips.ClassMSA128H, uint32(32)),
		Entry("MSA128W", mips.ClassMSA128W, uint32(32)),
		Entry("MSA128D", mips.ClassMSA128D, uint32(32)),
		Entry("MSACtrl", mips.ClassMSACtrl, uint32(8)),
	)

	It("halves paired float indexes and rejects odd ones", func() {
		r, err := ri.Lookup(mips.ClassAFGR64, 30)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(mips.D0 + 15))
		Expect(r.String()).To(Equal("$f30"))

		_, err = ri.Lookup(mips.ClassAFGR64, 29)
		Expect(err).To(MatchError(mips.ErrRegisterRange))
		_, err = ri.Lookup(mips.ClassAFGR64, 31)
		Expect(err).To(MatchError(mips.ErrRegisterRange))
	})

	It("accepts only UserLocal among hardware registers", func() {
		r, err := ri.Lookup(mips.ClassHWRegs, 29)
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(mips.HWR29))
		for _, raw := range []uint32{0, 28, 30, 31} {
			_, err := ri.Lookup(mips.ClassHWRegs, raw)
			Expect(err).To(MatchError(mips.ErrRegisterRange), "raw %d", raw)
		}
	})

	It("never resolves MIPS16 registers", func() {
		_, err := ri.Lookup(mips.ClassCPU16, 0)
		Expect(err).To(MatchError(mips.ErrUnsupportedClass))
		_, err = ri.Lookup(mips.NumRegClasses, 0)
		Expect(err).To(MatchError(mips.ErrUnsupportedClass))
	})

	It("names every register of every class", func() {
		for rc := mips.RegClass(1); rc < mips.NumRegClasses; rc++ {
			for raw := uint32(0); raw < rc.Bound(); raw++ {
				r, err := ri.Lookup(rc, raw)
				if err != nil {
					continue
				}
				Expect(r.String()).To(HavePrefix("$"), "%s %d", rc, raw)
			}
		}
	})
})

var _ = Describe("Encoding tables", func() {
	m := mips.DefaultMatcher()

	It("only constrains bits inside each mask", func() {
		for t := mips.TableID(0); t < mips.NumTables; t++ {
			for _, e := range m.Encodings(t) {
				Expect(e.Value&^e.Mask).To(BeZero(), "%s %s", t, e.Op)
			}
		}
	})

	It("names every opcode it produces", func() {
		for t := mips.TableID(0); t < mips.NumTables; t++ {
			for _, e := range m.Encodings(t) {
				Expect(e.Op).To(BeNumerically("<", mips.NumOpcodes))
				Expect(strings.HasPrefix(e.Op.String(), "Opcode(")).To(BeFalse(), "%s", t)
				Expect(e.Op.MicroMips()).To(Equal(t == mips.TableMicroMips32), "%s in %s", e.Op, t)
			}
		}
	})

	It("decodes the mask value of every entry or fails cleanly", func() {
		ctx := mips.Context{Regs: mips.NewRegisterInfo(), BigEndian: true}
		all := mips.FeatureDSP | mips.FeatureMSA | mips.FeatureFP64
		for t := mips.TableID(0); t < mips.NumTables; t++ {
			for _, e := range m.Encodings(t) {
				var inst mips.Inst
				err := m.Match(t, e.Value, 0, &ctx, all, &inst)
				Expect(errors.Is(err, mips.ErrContract)).To(BeFalse(), "%s %s: %v", t, e.Op, err)
			}
		}
	})
})
