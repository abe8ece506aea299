package mips

import "fmt"

// RegClass identifies a register file as seen by the encoding.
type RegClass uint8

// Register classes.
const (
	ClassCPU16 RegClass = iota // MIPS16 subset, never decoded
	ClassGPR32
	ClassGPR64
	ClassDSPR
	ClassFGR32
	ClassFGR64
	ClassFGRH32
	ClassAFGR64
	ClassCCR
	ClassFCC
	ClassHWRegs
	ClassACC64DSP
	ClassHI32DSP
	ClassLO32DSP
	ClassMSA128B
	ClassMSA128H
	ClassMSA128W
	ClassMSA128D
	ClassMSACtrl
	numRegClasses
)

type classInfo struct {
	name string
	// bound is the exclusive upper limit of the raw index.
	bound uint32
	// index maps a validated raw index to a table slot. nil means identity.
	index func(raw uint32) (uint32, bool)
	// alias names the class whose table backs this one.
	alias RegClass
}

var classInfos = [numRegClasses]classInfo{
	ClassCPU16:    {name: "CPU16Regs"},
	ClassGPR32:    {name: "GPR32", bound: 32, alias: ClassGPR32},
	ClassGPR64:    {name: "GPR64", bound: 32, alias: ClassGPR64},
	ClassDSPR:     {name: "DSPR", bound: 32, alias: ClassGPR32},
	ClassFGR32:    {name: "FGR32", bound: 32, alias: ClassFGR32},
	ClassFGR64:    {name: "FGR64", bound: 32, alias: ClassFGR64},
	ClassFGRH32:   {name: "FGRH32", bound: 32, alias: ClassFGRH32},
	ClassAFGR64:   {name: "AFGR64", bound: 31, index: pairedIndex, alias: ClassAFGR64},
	ClassCCR:      {name: "CCR", bound: 32, alias: ClassCCR},
	ClassFCC:      {name: "FCC", bound: 8, alias: ClassFCC},
	ClassHWRegs:   {name: "HWRegs", bound: 30, index: hwrIndex, alias: ClassHWRegs},
	ClassACC64DSP: {name: "ACC64DSP", bound: 4, alias: ClassACC64DSP},
	ClassHI32DSP:  {name: "HI32DSP", bound: 4, alias: ClassHI32DSP},
	ClassLO32DSP:  {name: "LO32DSP", bound: 4, alias: ClassLO32DSP},
	ClassMSA128B:  {name: "MSA128B", bound: 32, alias: ClassMSA128B},
	ClassMSA128H:  {name: "MSA128H", bound: 32, alias: ClassMSA128H},
	ClassMSA128W:  {name: "MSA128W", bound: 32, alias: ClassMSA128W},
	ClassMSA128D:  {name: "MSA128D", bound: 32, alias: ClassMSA128D},
	ClassMSACtrl:  {name: "MSACtrl", bound: 8, alias: ClassMSACtrl},
}

// pairedIndex halves the index of an even/odd FPU pair. Odd halves are not
// addressable on their own.
func pairedIndex(raw uint32) (uint32, bool) {
	if raw%2 != 0 {
		return 0, false
	}
	return raw / 2, true
}

// hwrIndex accepts hardware register 29 (UserLocal) only.
func hwrIndex(raw uint32) (uint32, bool) {
	if raw != 29 {
		return 0, false
	}
	return 0, true
}

func (rc RegClass) String() string {
	if rc >= numRegClasses {
		return fmt.Sprintf("RegClass(%d)", uint8(rc))
	}
	return classInfos[rc].name
}

// Bound returns the exclusive upper limit of raw indexes for rc.
func (rc RegClass) Bound() uint32 {
	if rc >= numRegClasses {
		return 0
	}
	return classInfos[rc].bound
}

// RegisterInfo maps (class, table slot) to physical registers. It is built
// once and never modified.
type RegisterInfo struct {
	tables [numRegClasses][]Reg
}

func span(base Reg, n int) []Reg {
	regs := make([]Reg, n)
	for i := range regs {
		regs[i] = base + Reg(i)
	}
	return regs
}

// NewRegisterInfo returns the register tables for the MIPS family.
func NewRegisterInfo() *RegisterInfo {
	ri := &RegisterInfo{}
	ri.tables[ClassGPR32] = span(ZERO, 32)
	ri.tables[ClassGPR64] = span(ZERO64, 32)
	ri.tables[ClassFGR32] = span(F0, 32)
	ri.tables[ClassFGR64] = span(D0_64, 32)
	ri.tables[ClassFGRH32] = span(F_HI0, 32)
	ri.tables[ClassAFGR64] = span(D0, 16)
	ri.tables[ClassCCR] = span(FCR0, 32)
	ri.tables[ClassFCC] = span(FCC0, 8)
	ri.tables[ClassHWRegs] = []Reg{HWR29}
	ri.tables[ClassACC64DSP] = span(AC0, 4)
	ri.tables[ClassHI32DSP] = span(HI0, 4)
	ri.tables[ClassLO32DSP] = span(LO0, 4)
	// The four MSA views share the same physical vector registers.
	w := span(W0, 32)
	ri.tables[ClassMSA128B] = w
	ri.tables[ClassMSA128H] = w
	ri.tables[ClassMSA128W] = w
	ri.tables[ClassMSA128D] = w
	ri.tables[ClassMSACtrl] = span(MSAIR, 8)
	return ri
}

// Lookup translates a raw encoded index for class rc. The index is checked
// against the class bound and transform before any table access.
func (ri *RegisterInfo) Lookup(rc RegClass, raw uint32) (Reg, error) {
	if rc >= numRegClasses {
		return RegNone, fmt.Errorf("%w: class %d", ErrUnsupportedClass, uint8(rc))
	}
	info := classInfos[rc]
	if info.bound == 0 {
		return RegNone, fmt.Errorf("%w: %s", ErrUnsupportedClass, info.name)
	}
	if raw >= info.bound {
		return RegNone, fmt.Errorf("%w: %s index %d", ErrRegisterRange, info.name, raw)
	}
	slot := raw
	if info.index != nil {
		var ok bool
		if slot, ok = info.index(raw); !ok {
			return RegNone, fmt.Errorf("%w: %s index %d", ErrRegisterRange, info.name, raw)
		}
	}
	table := ri.tables[info.alias]
	if int(slot) >= len(table) {
		return RegNone, fmt.Errorf("%w: %s slot %d", ErrRegisterRange, info.name, slot)
	}
	return table[slot], nil
}
