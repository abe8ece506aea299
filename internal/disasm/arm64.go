package disasm

import (
	"encoding/binary"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// ARM64 decodes AArch64 images, which share the listing pipeline.
type ARM64 struct{}

// NewARM64 creates an AArch64 backend.
func NewARM64() *ARM64 { return &ARM64{} }

func (ARM64) Name() string { return "arm64" }

func (ARM64) Decode(src Source, va uint64) (Inst, error) {
	b, ok := src.ReadBytesVA(va, 4)
	if !ok {
		return Inst{VA: va}, ErrShortRead
	}
	out := Inst{VA: va, Size: 4, Raw: rawBytes(b), Word: binary.LittleEndian.Uint32(b)}
	inst, err := arm64asm.Decode(b)
	if err != nil {
		out.Op = ".word"
		out.Text = wordDirective(out.Word)
		return out, err
	}
	out.Valid = true
	out.Text = arm64asm.GNUSyntax(inst)
	out.Op = strings.ToLower(strings.SplitN(out.Text, " ", 2)[0])
	out.Flow = arm64Flow(inst)
	for _, a := range inst.Args {
		if pcRel, ok := a.(arm64asm.PCRel); ok && out.Flow != FlowNone {
			out.Target = uint64(int64(va) + int64(pcRel))
			out.HasTarget = true
		}
	}
	return out, nil
}

func arm64Flow(inst arm64asm.Inst) Flow {
	switch inst.Op {
	case arm64asm.B:
		if _, cond := inst.Args[0].(arm64asm.Cond); cond {
			return FlowBranch
		}
		return FlowJump
	case arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		return FlowBranch
	case arm64asm.BL, arm64asm.BLR:
		return FlowCall
	case arm64asm.RET:
		return FlowReturn
	case arm64asm.BR:
		return FlowIndirect
	}
	return FlowNone
}
