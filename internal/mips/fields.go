package mips

import "fmt"

// FieldDecoder decodes one encoded field of inst and appends the resulting
// operands. field is the raw value the matcher extracted for the field, which
// for whole-word kinds is the instruction word itself. A non-nil error means
// the instruction does not decode.
type FieldDecoder func(inst *Inst, field uint32, addr uint64, ctx *Context) error

// FieldKind selects a field decoder.
type FieldKind uint8

// Field kinds. Register kinds take a raw index; memory, target and INSVE kinds
// take the whole instruction word.
const (
	FieldCPU16Regs FieldKind = iota
	FieldGPR32
	FieldGPR64
	FieldPtr
	FieldDSPR
	FieldFGR32
	FieldFGR64
	FieldFGRH32
	FieldAFGR64
	FieldCCR
	FieldFCC
	FieldHWRegs
	FieldACC64DSP
	FieldHI32DSP
	FieldLO32DSP
	FieldMSA128B
	FieldMSA128H
	FieldMSA128W
	FieldMSA128D
	FieldMSACtrl

	FieldMem
	FieldMemMMImm12
	FieldMemMMImm16
	FieldFMem
	FieldMSA128Mem

	FieldBranchTarget
	FieldBranchTargetMM
	FieldJumpTarget
	FieldJumpTargetMM

	FieldImm
	FieldSimm16
	FieldLSAImm
	FieldInsSize
	FieldExtSize

	FieldINSVE

	numFieldKinds
)

var fieldKindNames = [numFieldKinds]string{
	FieldCPU16Regs:      "CPU16Regs",
	FieldGPR32:          "GPR32",
	FieldGPR64:          "GPR64",
	FieldPtr:            "Ptr",
	FieldDSPR:           "DSPR",
	FieldFGR32:          "FGR32",
	FieldFGR64:          "FGR64",
	FieldFGRH32:         "FGRH32",
	FieldAFGR64:         "AFGR64",
	FieldCCR:            "CCR",
	FieldFCC:            "FCC",
	FieldHWRegs:         "HWRegs",
	FieldACC64DSP:       "ACC64DSP",
	FieldHI32DSP:        "HI32DSP",
	FieldLO32DSP:        "LO32DSP",
	FieldMSA128B:        "MSA128B",
	FieldMSA128H:        "MSA128H",
	FieldMSA128W:        "MSA128W",
	FieldMSA128D:        "MSA128D",
	FieldMSACtrl:        "MSACtrl",
	FieldMem:            "Mem",
	FieldMemMMImm12:     "MemMMImm12",
	FieldMemMMImm16:     "MemMMImm16",
	FieldFMem:           "FMem",
	FieldMSA128Mem:      "MSA128Mem",
	FieldBranchTarget:   "BranchTarget",
	FieldBranchTargetMM: "BranchTargetMM",
	FieldJumpTarget:     "JumpTarget",
	FieldJumpTargetMM:   "JumpTargetMM",
	FieldImm:            "Imm",
	FieldSimm16:         "Simm16",
	FieldLSAImm:         "LSAImm",
	FieldInsSize:        "InsSize",
	FieldExtSize:        "ExtSize",
	FieldINSVE:          "INSVE",
}

func (k FieldKind) String() string {
	if k >= numFieldKinds {
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
	return fieldKindNames[k]
}

var fieldDecoders = [numFieldKinds]FieldDecoder{
	FieldCPU16Regs: decodeCPU16Regs,
	FieldGPR32:     regDecoder(ClassGPR32),
	FieldGPR64:     regDecoder(ClassGPR64),
	FieldPtr:       decodePtr,
	FieldDSPR:      regDecoder(ClassDSPR),
	FieldFGR32:     regDecoder(ClassFGR32),
	FieldFGR64:     regDecoder(ClassFGR64),
	FieldFGRH32:    regDecoder(ClassFGRH32),
	FieldAFGR64:    regDecoder(ClassAFGR64),
	FieldCCR:       regDecoder(ClassCCR),
	FieldFCC:       regDecoder(ClassFCC),
	FieldHWRegs:    regDecoder(ClassHWRegs),
	FieldACC64DSP:  regDecoder(ClassACC64DSP),
	FieldHI32DSP:   regDecoder(ClassHI32DSP),
	FieldLO32DSP:   regDecoder(ClassLO32DSP),
	FieldMSA128B:   regDecoder(ClassMSA128B),
	FieldMSA128H:   regDecoder(ClassMSA128H),
	FieldMSA128W:   regDecoder(ClassMSA128W),
	FieldMSA128D:   regDecoder(ClassMSA128D),
	FieldMSACtrl:   regDecoder(ClassMSACtrl),

	FieldMem:        decodeMem,
	FieldMemMMImm12: decodeMemMMImm12,
	FieldMemMMImm16: decodeMemMMImm16,
	FieldFMem:       decodeFMem,
	FieldMSA128Mem:  decodeMSA128Mem,

	FieldBranchTarget:   decodeBranchTarget,
	FieldBranchTargetMM: decodeBranchTargetMM,
	FieldJumpTarget:     decodeJumpTarget,
	FieldJumpTargetMM:   decodeJumpTargetMM,

	FieldImm:     decodeImm,
	FieldSimm16:  decodeSimm16,
	FieldLSAImm:  decodeLSAImm,
	FieldInsSize: decodeInsSize,
	FieldExtSize: decodeExtSize,

	FieldINSVE: decodeINSVE,
}

// Decoder returns the field decoder for k.
func (k FieldKind) Decoder() (FieldDecoder, bool) {
	if k >= numFieldKinds || fieldDecoders[k] == nil {
		return nil, false
	}
	return fieldDecoders[k], true
}

// DecodeField runs the decoder for kind k against inst.
func DecodeField(k FieldKind, inst *Inst, field uint32, addr uint64, ctx *Context) error {
	dec, ok := k.Decoder()
	if !ok {
		return &ContractError{Op: inst.Op, Field: k, Reason: "no decoder for field kind"}
	}
	return dec(inst, field, addr, ctx)
}

// fieldFromInstruction extracts width bits of w starting at bit start.
func fieldFromInstruction(w uint32, start, width uint) uint32 {
	if width >= 32 {
		return w >> start
	}
	return (w >> start) & (1<<width - 1)
}

// signExtend interprets the low bits bits of v as a two's complement value.
func signExtend(v uint32, bits uint) int64 {
	shift := 32 - bits
	return int64(int32(v<<shift) >> shift)
}

func decodeReg(inst *Inst, rc RegClass, raw uint32, ctx *Context) error {
	r, err := ctx.Regs.Lookup(rc, raw)
	if err != nil {
		return err
	}
	inst.addReg(r)
	return nil
}

func regDecoder(rc RegClass) FieldDecoder {
	return func(inst *Inst, field uint32, _ uint64, ctx *Context) error {
		return decodeReg(inst, rc, field, ctx)
	}
}

// decodeCPU16Regs always fails: MIPS16 register fields are not decoded.
func decodeCPU16Regs(_ *Inst, _ uint32, _ uint64, _ *Context) error {
	return fmt.Errorf("%w: CPU16Regs", ErrUnsupportedClass)
}

// decodePtr resolves a pointer-sized register by the context's pointer width.
func decodePtr(inst *Inst, field uint32, _ uint64, ctx *Context) error {
	if ctx.N64 {
		return decodeReg(inst, ClassGPR64, field, ctx)
	}
	return decodeReg(inst, ClassGPR32, field, ctx)
}

// memOperands appends data, base and offset. tied repeats the data register
// for read-modify-write encodings such as sc.
func memOperands(inst *Inst, data RegClass, reg, base uint32, offset int64, tied bool, ctx *Context) error {
	r, err := ctx.Regs.Lookup(data, reg)
	if err != nil {
		return err
	}
	b, err := ctx.Regs.Lookup(ClassGPR32, base)
	if err != nil {
		return err
	}
	if tied {
		inst.addReg(r)
	}
	inst.addReg(r)
	inst.addReg(b)
	inst.addImm(offset)
	return nil
}

func decodeMem(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	offset := signExtend(word&0xffff, 16)
	reg := fieldFromInstruction(word, 16, 5)
	base := fieldFromInstruction(word, 21, 5)
	return memOperands(inst, ClassGPR32, reg, base, offset, inst.Op == SC, ctx)
}

func decodeMemMMImm12(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	offset := signExtend(word&0x0fff, 12)
	reg := fieldFromInstruction(word, 21, 5)
	base := fieldFromInstruction(word, 16, 5)
	return memOperands(inst, ClassGPR32, reg, base, offset, inst.Op == SC_MM, ctx)
}

func decodeMemMMImm16(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	offset := signExtend(word&0xffff, 16)
	reg := fieldFromInstruction(word, 21, 5)
	base := fieldFromInstruction(word, 16, 5)
	return memOperands(inst, ClassGPR32, reg, base, offset, false, ctx)
}

func decodeFMem(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	offset := signExtend(word&0xffff, 16)
	reg := fieldFromInstruction(word, 16, 5)
	base := fieldFromInstruction(word, 21, 5)
	return memOperands(inst, ClassFGR64, reg, base, offset, false, ctx)
}

// msaMemScale is log2 of the element size of each MSA load/store.
var msaMemScale = map[Opcode]uint{
	LD_B: 0, ST_B: 0,
	LD_H: 1, ST_H: 1,
	LD_W: 2, ST_W: 2,
	LD_D: 3, ST_D: 3,
}

// decodeMSA128Mem scales the 10-bit offset by the element size of the matched
// opcode, which is not recoverable from the field bits alone.
func decodeMSA128Mem(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	shift, ok := msaMemScale[inst.Op]
	if !ok {
		return &ContractError{Op: inst.Op, Field: FieldMSA128Mem, Reason: "opcode is not an MSA load or store"}
	}
	offset := signExtend(fieldFromInstruction(word, 16, 10), 10)
	reg := fieldFromInstruction(word, 6, 5)
	base := fieldFromInstruction(word, 11, 5)
	return memOperands(inst, ClassMSA128B, reg, base, offset<<shift, false, ctx)
}

// decodeBranchTarget adds 4 so the offset is relative to the branch itself
// rather than its delay slot.
func decodeBranchTarget(inst *Inst, field uint32, _ uint64, _ *Context) error {
	offset := field & 0xffff
	inst.addImm(signExtend(offset<<2, 18) + 4)
	return nil
}

func decodeBranchTargetMM(inst *Inst, field uint32, _ uint64, _ *Context) error {
	offset := field & 0xffff
	inst.addImm(signExtend(offset<<1, 18))
	return nil
}

func decodeJumpTarget(inst *Inst, word uint32, _ uint64, _ *Context) error {
	inst.addImm(int64(fieldFromInstruction(word, 0, 26)) << 2)
	return nil
}

func decodeJumpTargetMM(inst *Inst, word uint32, _ uint64, _ *Context) error {
	inst.addImm(int64(fieldFromInstruction(word, 0, 26)) << 1)
	return nil
}

func decodeImm(inst *Inst, field uint32, _ uint64, _ *Context) error {
	inst.addImm(int64(field))
	return nil
}

func decodeSimm16(inst *Inst, field uint32, _ uint64, _ *Context) error {
	inst.addImm(signExtend(field, 16))
	return nil
}

// decodeLSAImm undoes the imm-1 encoding of the lsa shift amount.
func decodeLSAImm(inst *Inst, field uint32, _ uint64, _ *Context) error {
	inst.addImm(int64(field) + 1)
	return nil
}

// decodeInsSize converts the msb field of ins into a size using the position
// operand already decoded at index 2.
func decodeInsSize(inst *Inst, field uint32, _ uint64, _ *Context) error {
	if len(inst.Args) < 3 || inst.Args[2].Kind != OperandImm {
		return &ContractError{Op: inst.Op, Field: FieldInsSize, Reason: "position operand not decoded"}
	}
	size := int64(field) - inst.Args[2].Imm + 1
	inst.addImm(signExtend(uint32(size), 16))
	return nil
}

func decodeExtSize(inst *Inst, field uint32, _ uint64, _ *Context) error {
	inst.addImm(signExtend(field+1, 16))
	return nil
}
