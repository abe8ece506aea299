// Package disasm defines a common instruction representation used
// across architecture-specific disassemblers.
package disasm

import (
	"debug/elf"
	"errors"
	"fmt"

	"mipsdis/internal/elfx"
	"mipsdis/internal/mips"
)

var (
	// ErrUnsupportedArch is returned by New for machines without a backend.
	ErrUnsupportedArch = errors.New("unsupported architecture")
	// ErrShortRead is returned when fewer than 4 bytes remain at an address.
	ErrShortRead = mips.ErrShortRead
)

// Flow classifies how an instruction transfers control.
type Flow uint8

const (
	FlowNone Flow = iota
	FlowBranch
	FlowCall
	FlowJump
	FlowReturn
	FlowIndirect
)

func (f Flow) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowBranch:
		return "branch"
	case FlowCall:
		return "call"
	case FlowJump:
		return "jump"
	case FlowReturn:
		return "return"
	case FlowIndirect:
		return "indirect"
	}
	return fmt.Sprintf("Flow(%d)", uint8(f))
}

// Inst is a simplified decoded instruction.
type Inst struct {
	VA   uint64  // virtual address of instruction
	Size int     // bytes consumed
	Text string  // formatted disassembly string
	Op   string  // mnemonic in lowercase
	Raw  [4]byte // raw encoding in memory order
	Word uint32  // raw encoding as assembled by the backend

	Flow      Flow
	Target    uint64 // direct branch or call destination
	HasTarget bool

	// Valid is false for words no backend table recognised.
	Valid bool
	// Mips holds the decoder output for MIPS backends.
	Mips *mips.Inst
}

// Operands returns Text without the mnemonic.
func (i Inst) Operands() string {
	if len(i.Text) > len(i.Op) && i.Text[:len(i.Op)] == i.Op {
		s := i.Text[len(i.Op):]
		for len(s) > 0 && s[0] == ' ' {
			s = s[1:]
		}
		return s
	}
	if i.Op == "" {
		return i.Text
	}
	return ""
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// At returns the instruction at va.
func (s Stream) At(va uint64) (Inst, bool) {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s[mid].VA == va:
			return s[mid], true
		case s[mid].VA < va:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Inst{}, false
}

// Source provides code bytes by virtual address. *elfx.Image and
// mips.Region implement it.
type Source interface {
	ReadBytesVA(va uint64, size int) ([]byte, bool)
}

// Backend decodes one instruction at a time.
type Backend interface {
	Name() string
	// Decode decodes the instruction at va. When the bytes were read but
	// not recognised it returns a .word placeholder with Valid unset
	// together with the error.
	Decode(src Source, va uint64) (Inst, error)
}

// Options tune backend selection.
type Options struct {
	// Features are added to the ones derived from the ELF header.
	Features mips.Features
	// ForceMicroMips decodes the image as microMIPS regardless of e_flags.
	ForceMicroMips bool
}

// New returns the backend for an image architecture.
func New(arch elfx.Arch, opts Options) (Backend, error) {
	switch {
	case arch.IsMIPS():
		return NewMIPS(MIPSConfig(arch, opts)), nil
	case arch.Machine == elf.EM_AARCH64:
		return NewARM64(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedArch, arch)
}

// MIPSConfig derives the decoder configuration for an image.
func MIPSConfig(arch elfx.Arch, opts Options) mips.Config {
	cfg := mips.Config{Arch: mips.ArchMips32, BigEndian: arch.BigEndian, Features: opts.Features}
	if arch.Is64() {
		cfg.Arch = mips.ArchMips64
	}
	if arch.N64() {
		cfg.Features |= mips.FeatureN64
	}
	if arch.MicroMips() || opts.ForceMicroMips {
		cfg.Features |= mips.FeatureMicroMips
	}
	if arch.FP64() {
		cfg.Features |= mips.FeatureFP64
	}
	return cfg
}

func rawBytes(b []byte) (raw [4]byte) {
	copy(raw[:], b)
	return raw
}

func wordDirective(word uint32) string {
	return fmt.Sprintf(".word 0x%08x", word)
}
