package mips

import "fmt"

// Reg is a physical register identifier. Register classes map raw encoded
// indexes onto these through the tables in RegisterInfo.
type Reg uint16

// Register file bases. Each file occupies a contiguous block.
const (
	RegNone Reg = 0

	ZERO   Reg = 1           // GPR32 $zero..$ra, 32 registers
	ZERO64     = ZERO + 32   // GPR64 $zero..$ra, 32 registers
	F0         = ZERO64 + 32 // FGR32 $f0..$f31
	D0_64      = F0 + 32     // FGR64 $f0..$f31
	F_HI0      = D0_64 + 32  // FGRH32 $f_hi0..$f_hi31
	D0         = F_HI0 + 32  // AFGR64 even/odd pairs, 16 registers
	FCR0       = D0 + 16     // CCR $0..$31
	FCC0       = FCR0 + 32   // FCC $fcc0..$fcc7
	HWR29      = FCC0 + 8    // the only supported hardware register
	AC0        = HWR29 + 1   // ACC64DSP $ac0..$ac3
	HI0        = AC0 + 4     // HI32DSP
	LO0        = HI0 + 4     // LO32DSP
	W0         = LO0 + 4     // MSA128 $w0..$w31
	MSAIR      = W0 + 32     // MSACtrl, 8 registers
	regEnd     = MSAIR + 8
)

// Commonly referenced general purpose registers.
const (
	AT = ZERO + 1
	V0 = ZERO + 2
	A0 = ZERO + 4
	T0 = ZERO + 8
	S0 = ZERO + 16
	T9 = ZERO + 25
	GP = ZERO + 28
	SP = ZERO + 29
	FP = ZERO + 30
	RA = ZERO + 31
)

var gprNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

var msaCtrlNames = [8]string{
	"msair", "msacsr", "msaaccess", "msasave",
	"msamodify", "msarequest", "msamap", "msaunmap",
}

var regNames [regEnd]string

func init() {
	for i := 0; i < 32; i++ {
		regNames[ZERO+Reg(i)] = gprNames[i]
		regNames[ZERO64+Reg(i)] = gprNames[i]
		regNames[F0+Reg(i)] = fmt.Sprintf("f%d", i)
		regNames[D0_64+Reg(i)] = fmt.Sprintf("f%d", i)
		regNames[F_HI0+Reg(i)] = fmt.Sprintf("f_hi%d", i)
		regNames[FCR0+Reg(i)] = fmt.Sprintf("%d", i)
		regNames[W0+Reg(i)] = fmt.Sprintf("w%d", i)
	}
	// AFGR64 pairs are named after their even half.
	for i := 0; i < 16; i++ {
		regNames[D0+Reg(i)] = fmt.Sprintf("f%d", 2*i)
	}
	for i := 0; i < 8; i++ {
		regNames[FCC0+Reg(i)] = fmt.Sprintf("fcc%d", i)
		regNames[MSAIR+Reg(i)] = msaCtrlNames[i]
	}
	regNames[HWR29] = "29"
	for i := 0; i < 4; i++ {
		regNames[AC0+Reg(i)] = fmt.Sprintf("ac%d", i)
		regNames[HI0+Reg(i)] = fmt.Sprintf("hi%d", i)
		regNames[LO0+Reg(i)] = fmt.Sprintf("lo%d", i)
	}
}

// String returns the assembler name of r, including the leading '$'.
func (r Reg) String() string {
	if r == RegNone || r >= regEnd {
		return fmt.Sprintf("Reg(%d)", uint16(r))
	}
	return "$" + regNames[r]
}

// Is64 reports whether r belongs to the 64-bit general purpose file.
func (r Reg) Is64() bool {
	return r >= ZERO64 && r < ZERO64+32
}

// GPRIndex returns the architectural number of a general purpose register
// of either width.
func GPRIndex(r Reg) (int, bool) {
	switch {
	case r >= ZERO && r < ZERO+32:
		return int(r - ZERO), true
	case r >= ZERO64 && r < ZERO64+32:
		return int(r - ZERO64), true
	}
	return 0, false
}
