package elfx

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// MIPS e_flags fields.
const (
	efMipsArch         = 0xf0000000
	efMipsASEMicroMips = 0x02000000
	efMipsFP64         = 0x00000200
	efMipsABI2         = 0x00000020
	efMipsArch64       = 0x60000000
	efMipsArch64R2     = 0x80000000
	efMipsArch64R6     = 0xa0000000
	efMipsArch32       = 0x50000000
	efMipsArch32R2     = 0x70000000
	efMipsArch32R6     = 0x90000000
)

// Arch summarises the ELF header fields that select a disassembler.
type Arch struct {
	Machine   elf.Machine
	Class     elf.Class
	BigEndian bool
	Flags     uint32
}

func archOf(h *elf.FileHeader, raw []byte) Arch {
	return Arch{
		Machine:   h.Machine,
		Class:     h.Class,
		BigEndian: h.ByteOrder == binary.BigEndian,
		Flags:     headerFlags(h, raw),
	}
}

// IsMIPS reports whether the image targets the MIPS family.
func (a Arch) IsMIPS() bool {
	return a.Machine == elf.EM_MIPS || a.Machine == elf.EM_MIPS_RS3_LE
}

// Is64 reports whether the code uses the 64-bit ISA. n32 objects are
// ELFCLASS32 but still carry a 64-bit ISA level.
func (a Arch) Is64() bool {
	if !a.IsMIPS() {
		return a.Class == elf.ELFCLASS64
	}
	switch a.Flags & efMipsArch {
	case efMipsArch64, efMipsArch64R2, efMipsArch64R6:
		return true
	}
	return a.Class == elf.ELFCLASS64
}

// N64 reports whether pointers are 64 bits wide.
func (a Arch) N64() bool { return a.IsMIPS() && a.Class == elf.ELFCLASS64 }

// N32 reports the n32 ABI: 64-bit registers, 32-bit pointers.
func (a Arch) N32() bool { return a.IsMIPS() && a.Class == elf.ELFCLASS32 && a.Flags&efMipsABI2 != 0 }

// MicroMips reports whether the image is built for the microMIPS ASE.
func (a Arch) MicroMips() bool { return a.IsMIPS() && a.Flags&efMipsASEMicroMips != 0 }

// FP64 reports whether the FPU runs with 64-bit registers (FR=1).
func (a Arch) FP64() bool { return a.IsMIPS() && a.Flags&efMipsFP64 != 0 }

// ISA returns the ISA level name encoded in e_flags.
func (a Arch) ISA() string {
	switch a.Flags & efMipsArch {
	case efMipsArch32:
		return "mips32"
	case efMipsArch32R2:
		return "mips32r2"
	case efMipsArch32R6:
		return "mips32r6"
	case efMipsArch64:
		return "mips64"
	case efMipsArch64R2:
		return "mips64r2"
	case efMipsArch64R6:
		return "mips64r6"
	}
	if a.Is64() {
		return "mips64"
	}
	return "mips"
}

func (a Arch) String() string {
	if !a.IsMIPS() {
		return a.Machine.String()
	}
	s := a.ISA()
	if !a.BigEndian {
		s += "el"
	}
	if a.MicroMips() {
		s += "+micromips"
	}
	if a.N32() {
		s += " (n32)"
	}
	return s
}

// headerFlags reads e_flags from the raw header; debug/elf does not expose it.
func headerFlags(h *elf.FileHeader, raw []byte) uint32 {
	off := 36
	if h.Class == elf.ELFCLASS64 {
		off = 48
	}
	if h.ByteOrder == nil || len(raw) < off+4 {
		return 0
	}
	return h.ByteOrder.Uint32(raw[off:])
}

// Describe renders a one-line summary used in listing headers.
func (a Arch) Describe() string {
	return fmt.Sprintf("%s class=%s flags=%#08x", a, a.Class, a.Flags)
}
