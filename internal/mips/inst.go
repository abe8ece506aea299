package mips

import (
	"fmt"
	"strings"
)

// OperandKind tags the value held by an Operand.
type OperandKind uint8

const (
	OperandReg OperandKind = iota + 1
	OperandImm
)

// Operand is a register reference or a signed immediate.
type Operand struct {
	Kind OperandKind
	Reg  Reg
	Imm  int64
}

// RegOp returns a register operand.
func RegOp(r Reg) Operand { return Operand{Kind: OperandReg, Reg: r} }

// ImmOp returns an immediate operand.
func ImmOp(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return o.Reg.String()
	case OperandImm:
		return fmt.Sprintf("%d", o.Imm)
	}
	return "?"
}

// Inst is a single decoded instruction. Args mirrors the textual operand
// order of the assembler syntax, including tied inputs.
type Inst struct {
	Op   Opcode
	Args []Operand
	Enc  uint32
}

func (i *Inst) addReg(r Reg)   { i.Args = append(i.Args, RegOp(r)) }
func (i *Inst) addImm(v int64) { i.Args = append(i.Args, ImmOp(v)) }

func (i *Inst) reset(word uint32) {
	i.Op = OpInvalid
	i.Args = nil
	i.Enc = word
}

// String renders i in GNU assembler syntax.
func (i Inst) String() string {
	if i.Op == OpInvalid {
		return fmt.Sprintf(".word 0x%08x", i.Enc)
	}
	var info opInfo
	if i.Op < numOpcodes {
		info = opInfos[i.Op]
	}
	args := i.Args
	var parts []string
	switch info.syntax {
	case syntaxMem, syntaxMemTied:
		if info.syntax == syntaxMemTied && len(args) > 0 {
			args = args[1:]
		}
		if n := len(args); n >= 2 {
			for _, a := range args[:n-2] {
				parts = append(parts, a.String())
			}
			parts = append(parts, fmt.Sprintf("%s(%s)", args[n-1], args[n-2]))
		}
	case syntaxTiedLast:
		if len(args) > 0 {
			args = args[:len(args)-1]
		}
		for _, a := range args {
			parts = append(parts, a.String())
		}
	case syntaxElement:
		if len(args) == 5 {
			parts = append(parts,
				fmt.Sprintf("%s[%d]", args[0], args[2].Imm),
				fmt.Sprintf("%s[%d]", args[3], args[4].Imm))
		}
	default:
		for _, a := range args {
			parts = append(parts, a.String())
		}
	}
	if len(parts) == 0 {
		return i.Op.String()
	}
	return i.Op.String() + " " + strings.Join(parts, ", ")
}

// Target returns the destination address of a direct branch or jump located
// at pc. Classic branch offsets already carry the delay slot correction;
// microMIPS offsets are relative to the delay slot.
func (i Inst) Target(pc uint64) (uint64, bool) {
	flow := i.Op.Flow()
	if flow == FlowNone || flow == FlowIndirect || len(i.Args) == 0 {
		return 0, false
	}
	last := i.Args[len(i.Args)-1]
	if last.Kind != OperandImm {
		return 0, false
	}
	micro := i.Op.MicroMips()
	switch flow {
	case FlowBranch, FlowBranchLink:
		if micro {
			return pc + 4 + uint64(last.Imm), true
		}
		return pc + uint64(last.Imm), true
	case FlowJump, FlowCall:
		region := uint64(0x0fffffff)
		if micro {
			region = 0x07ffffff
		}
		return ((pc + 4) &^ region) | uint64(last.Imm), true
	}
	return 0, false
}
