package mips

import "fmt"

// Opcode identifies a decoded instruction encoding.
type Opcode uint16

// Opcodes produced by the built-in encoding tables. Encodings that share a
// mnemonic but differ in operand classes (for example the 32-bit and 64-bit
// FPU forms of add.d) get separate opcodes.
const (
	OpInvalid Opcode = iota

	// MIPS32 SPECIAL
	NOP
	SLL
	SRL
	SRA
	SLLV
	SRLV
	SRAV
	JR
	JALR
	MOVZ
	MOVN
	SYSCALL
	BREAK
	SYNC
	MFHI
	MTHI
	MFLO
	MTLO
	MULT
	MULTU
	DIV
	DIVU
	ADD
	ADDU
	SUB
	SUBU
	AND
	OR
	XOR
	NOR
	SLT
	SLTU
	MOVF
	MOVT
	LSA

	// MIPS32 REGIMM, jumps and immediates
	BLTZ
	BGEZ
	BLTZAL
	BGEZAL
	J
	JAL
	BEQ
	BNE
	BLEZ
	BGTZ
	ADDI
	ADDIU
	SLTI
	SLTIU
	ANDI
	ORI
	XORI
	LUI

	// MIPS32 loads and stores
	LB
	LH
	LWL
	LW
	LBU
	LHU
	LWR
	SB
	SH
	SWL
	SW
	SWR
	LL
	SC
	LDC1
	SDC1

	// SPECIAL2 / SPECIAL3
	MUL
	MADD
	CLZ
	EXT
	INS
	SEB
	SEH
	WSBH
	RDHWR

	// COP1
	MFC1
	CFC1
	MFHC1
	MTC1
	CTC1
	MTHC1
	BC1F
	BC1T
	ADD_S
	SUB_S
	MUL_S
	DIV_S
	MOV_S
	ADD_D32
	SUB_D32
	MUL_D32
	DIV_D32
	MOV_D32
	C_EQ_S
	C_LT_S

	// DSP ASE
	MULT_DSP
	MULTU_DSP
	MFHI_DSP
	MFLO_DSP
	MTHI_DSP
	MTLO_DSP
	ADDU_QB
	SUBU_QB

	// MSA ASE
	LD_B
	LD_H
	LD_W
	LD_D
	ST_B
	ST_H
	ST_W
	ST_D
	INSVE_B
	INSVE_H
	INSVE_W
	INSVE_D
	ADDV_B
	ADDV_H
	ADDV_W
	ADDV_D
	CTCMSA
	CFCMSA

	// MIPS64
	DADDI
	DADDIU
	DADDU
	DSUBU
	DSLL
	DSRL
	DSRA
	DSLL32
	DSRL32
	DMULT
	DMULTU
	DDIV
	DDIVU
	LD
	SD
	LWU
	DMFC1
	DMTC1
	ADD_D64
	SUB_D64
	MUL_D64
	DIV_D64
	MOV_D64

	// microMIPS 32-bit encodings
	NOP_MM
	SLL_MM
	ADDU_MM
	SUBU_MM
	AND_MM
	OR_MM
	XOR_MM
	SLT_MM
	SLTU_MM
	JR_MM
	ADDIU_MM
	ORI_MM
	ANDI_MM
	XORI_MM
	SLTI_MM
	SLTIU_MM
	LUI_MM
	LB_MM
	LBU_MM
	LH_MM
	LHU_MM
	LW_MM
	SB_MM
	SH_MM
	SW_MM
	LWL_MM
	LWR_MM
	LL_MM
	SC_MM
	BEQ_MM
	BNE_MM
	J_MM
	JAL_MM

	numOpcodes
)

// Flow classifies how an instruction transfers control.
type Flow uint8

const (
	FlowNone       Flow = iota
	FlowBranch          // conditional, PC relative
	FlowBranchLink      // PC relative with link
	FlowJump            // absolute within the current region
	FlowCall            // absolute within the current region, with link
	FlowIndirect        // register target
)

type syntax uint8

const (
	syntaxPlain syntax = iota
	// last two operands are base register and offset, printed off(base)
	syntaxMem
	// like syntaxMem with the data register duplicated as an input
	syntaxMemTied
	// last operand is a tied input and is not printed
	syntaxTiedLast
	// wd[n], ws[0] element form
	syntaxElement
)

type opInfo struct {
	name   string
	syntax syntax
	flow   Flow
	micro  bool
	// first operand is only read
	src0   bool
}

var opInfos = [numOpcodes]opInfo{
	OpInvalid: {name: "invalid"},

	NOP:     {name: "nop"},
	SLL:     {name: "sll"},
	SRL:     {name: "srl"},
	SRA:     {name: "sra"},
	SLLV:    {name: "sllv"},
	SRLV:    {name: "srlv"},
	SRAV:    {name: "srav"},
	JR:      {name: "jr", flow: FlowIndirect},
	JALR:    {name: "jalr", flow: FlowIndirect},
	MOVZ:    {name: "movz"},
	MOVN:    {name: "movn"},
	SYSCALL: {name: "syscall"},
	BREAK:   {name: "break"},
	SYNC:    {name: "sync"},
	MFHI:    {name: "mfhi"},
	MTHI:    {name: "mthi", src0: true},
	MFLO:    {name: "mflo"},
	MTLO:    {name: "mtlo", src0: true},
	MULT:    {name: "mult", src0: true},
	MULTU:   {name: "multu", src0: true},
	DIV:     {name: "div", src0: true},
	DIVU:    {name: "divu", src0: true},
	ADD:     {name: "add"},
	ADDU:    {name: "addu"},
	SUB:     {name: "sub"},
	SUBU:    {name: "subu"},
	AND:     {name: "and"},
	OR:      {name: "or"},
	XOR:     {name: "xor"},
	NOR:     {name: "nor"},
	SLT:     {name: "slt"},
	SLTU:    {name: "sltu"},
	MOVF:    {name: "movf"},
	MOVT:    {name: "movt"},
	LSA:     {name: "lsa"},

	BLTZ:   {name: "bltz", flow: FlowBranch},
	BGEZ:   {name: "bgez", flow: FlowBranch},
	BLTZAL: {name: "bltzal", flow: FlowBranchLink},
	BGEZAL: {name: "bgezal", flow: FlowBranchLink},
	J:      {name: "j", flow: FlowJump},
	JAL:    {name: "jal", flow: FlowCall},
	BEQ:    {name: "beq", flow: FlowBranch},
	BNE:    {name: "bne", flow: FlowBranch},
	BLEZ:   {name: "blez", flow: FlowBranch},
	BGTZ:   {name: "bgtz", flow: FlowBranch},
	ADDI:   {name: "addi"},
	ADDIU:  {name: "addiu"},
	SLTI:   {name: "slti"},
	SLTIU:  {name: "sltiu"},
	ANDI:   {name: "andi"},
	ORI:    {name: "ori"},
	XORI:   {name: "xori"},
	LUI:    {name: "lui"},

	LB:   {name: "lb", syntax: syntaxMem},
	LH:   {name: "lh", syntax: syntaxMem},
	LWL:  {name: "lwl", syntax: syntaxMem},
	LW:   {name: "lw", syntax: syntaxMem},
	LBU:  {name: "lbu", syntax: syntaxMem},
	LHU:  {name: "lhu", syntax: syntaxMem},
	LWR:  {name: "lwr", syntax: syntaxMem},
	SB:   {name: "sb", syntax: syntaxMem, src0: true},
	SH:   {name: "sh", syntax: syntaxMem, src0: true},
	SWL:  {name: "swl", syntax: syntaxMem, src0: true},
	SW:   {name: "sw", syntax: syntaxMem, src0: true},
	SWR:  {name: "swr", syntax: syntaxMem, src0: true},
	LL:   {name: "ll", syntax: syntaxMem},
	SC:   {name: "sc", syntax: syntaxMemTied},
	LDC1: {name: "ldc1", syntax: syntaxMem},
	SDC1: {name: "sdc1", syntax: syntaxMem, src0: true},

	MUL:   {name: "mul"},
	MADD:  {name: "madd", src0: true},
	CLZ:   {name: "clz"},
	EXT:   {name: "ext"},
	INS:   {name: "ins", syntax: syntaxTiedLast},
	SEB:   {name: "seb"},
	SEH:   {name: "seh"},
	WSBH:  {name: "wsbh"},
	RDHWR: {name: "rdhwr"},

	MFC1:    {name: "mfc1"},
	CFC1:    {name: "cfc1"},
	MFHC1:   {name: "mfhc1"},
	MTC1:    {name: "mtc1", src0: true},
	CTC1:    {name: "ctc1", src0: true},
	MTHC1:   {name: "mthc1", src0: true},
	BC1F:    {name: "bc1f", flow: FlowBranch},
	BC1T:    {name: "bc1t", flow: FlowBranch},
	ADD_S:   {name: "add.s"},
	SUB_S:   {name: "sub.s"},
	MUL_S:   {name: "mul.s"},
	DIV_S:   {name: "div.s"},
	MOV_S:   {name: "mov.s"},
	ADD_D32: {name: "add.d"},
	SUB_D32: {name: "sub.d"},
	MUL_D32: {name: "mul.d"},
	DIV_D32: {name: "div.d"},
	MOV_D32: {name: "mov.d"},
	C_EQ_S:  {name: "c.eq.s", src0: true},
	C_LT_S:  {name: "c.lt.s", src0: true},

	MULT_DSP:  {name: "mult", src0: true},
	MULTU_DSP: {name: "multu", src0: true},
	MFHI_DSP:  {name: "mfhi"},
	MFLO_DSP:  {name: "mflo"},
	MTHI_DSP:  {name: "mthi", src0: true},
	MTLO_DSP:  {name: "mtlo", src0: true},
	ADDU_QB:   {name: "addu.qb"},
	SUBU_QB:   {name: "subu.qb"},

	LD_B:    {name: "ld.b", syntax: syntaxMem},
	LD_H:    {name: "ld.h", syntax: syntaxMem},
	LD_W:    {name: "ld.w", syntax: syntaxMem},
	LD_D:    {name: "ld.d", syntax: syntaxMem},
	ST_B:    {name: "st.b", syntax: syntaxMem, src0: true},
	ST_H:    {name: "st.h", syntax: syntaxMem, src0: true},
	ST_W:    {name: "st.w", syntax: syntaxMem, src0: true},
	ST_D:    {name: "st.d", syntax: syntaxMem, src0: true},
	INSVE_B: {name: "insve.b", syntax: syntaxElement},
	INSVE_H: {name: "insve.h", syntax: syntaxElement},
	INSVE_W: {name: "insve.w", syntax: syntaxElement},
	INSVE_D: {name: "insve.d", syntax: syntaxElement},
	ADDV_B:  {name: "addv.b"},
	ADDV_H:  {name: "addv.h"},
	ADDV_W:  {name: "addv.w"},
	ADDV_D:  {name: "addv.d"},
	CTCMSA:  {name: "ctcmsa", src0: true},
	CFCMSA:  {name: "cfcmsa"},

	DADDI:   {name: "daddi"},
	DADDIU:  {name: "daddiu"},
	DADDU:   {name: "daddu"},
	DSUBU:   {name: "dsubu"},
	DSLL:    {name: "dsll"},
	DSRL:    {name: "dsrl"},
	DSRA:    {name: "dsra"},
	DSLL32:  {name: "dsll32"},
	DSRL32:  {name: "dsrl32"},
	DMULT:   {name: "dmult", src0: true},
	DMULTU:  {name: "dmultu", src0: true},
	DDIV:    {name: "ddiv", src0: true},
	DDIVU:   {name: "ddivu", src0: true},
	LD:      {name: "ld", syntax: syntaxMem},
	SD:      {name: "sd", syntax: syntaxMem, src0: true},
	LWU:     {name: "lwu", syntax: syntaxMem},
	DMFC1:   {name: "dmfc1"},
	DMTC1:   {name: "dmtc1", src0: true},
	ADD_D64: {name: "add.d"},
	SUB_D64: {name: "sub.d"},
	MUL_D64: {name: "mul.d"},
	DIV_D64: {name: "div.d"},
	MOV_D64: {name: "mov.d"},

	NOP_MM:   {name: "nop", micro: true},
	SLL_MM:   {name: "sll", micro: true},
	ADDU_MM:  {name: "addu", micro: true},
	SUBU_MM:  {name: "subu", micro: true},
	AND_MM:   {name: "and", micro: true},
	OR_MM:    {name: "or", micro: true},
	XOR_MM:   {name: "xor", micro: true},
	SLT_MM:   {name: "slt", micro: true},
	SLTU_MM:  {name: "sltu", micro: true},
	JR_MM:    {name: "jr", flow: FlowIndirect, micro: true},
	ADDIU_MM: {name: "addiu", micro: true},
	ORI_MM:   {name: "ori", micro: true},
	ANDI_MM:  {name: "andi", micro: true},
	XORI_MM:  {name: "xori", micro: true},
	SLTI_MM:  {name: "slti", micro: true},
	SLTIU_MM: {name: "sltiu", micro: true},
	LUI_MM:   {name: "lui", micro: true},
	LB_MM:    {name: "lb", syntax: syntaxMem, micro: true},
	LBU_MM:   {name: "lbu", syntax: syntaxMem, micro: true},
	LH_MM:    {name: "lh", syntax: syntaxMem, micro: true},
	LHU_MM:   {name: "lhu", syntax: syntaxMem, micro: true},
	LW_MM:    {name: "lw", syntax: syntaxMem, micro: true},
	SB_MM:    {name: "sb", syntax: syntaxMem, micro: true, src0: true},
	SH_MM:    {name: "sh", syntax: syntaxMem, micro: true, src0: true},
	SW_MM:    {name: "sw", syntax: syntaxMem, micro: true, src0: true},
	LWL_MM:   {name: "lwl", syntax: syntaxMem, micro: true},
	LWR_MM:   {name: "lwr", syntax: syntaxMem, micro: true},
	LL_MM:    {name: "ll", syntax: syntaxMem, micro: true},
	SC_MM:    {name: "sc", syntax: syntaxMemTied, micro: true},
	BEQ_MM:   {name: "beq", flow: FlowBranch, micro: true},
	BNE_MM:   {name: "bne", flow: FlowBranch, micro: true},
	J_MM:     {name: "j", flow: FlowJump, micro: true},
	JAL_MM:   {name: "jal", flow: FlowCall, micro: true},
}

// String returns the assembler mnemonic.
func (op Opcode) String() string {
	if op >= numOpcodes || opInfos[op].name == "" {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return opInfos[op].name
}

// Flow reports how op transfers control.
func (op Opcode) Flow() Flow {
	if op >= numOpcodes {
		return FlowNone
	}
	return opInfos[op].flow
}

// MicroMips reports whether op is a microMIPS encoding.
func (op Opcode) MicroMips() bool {
	return op < numOpcodes && opInfos[op].micro
}

// WritesFirst reports whether op writes its first operand. Stores, moves
// to coprocessors, and multiply/divide into HI/LO only read it.
func (op Opcode) WritesFirst() bool {
	return op < numOpcodes && opInfos[op].name != "" && !opInfos[op].src0
}

// IsMemory reports whether op addresses memory through a base register.
// The last two operands of such instructions are the base and the offset.
func (op Opcode) IsMemory() bool {
	if op >= numOpcodes {
		return false
	}
	s := opInfos[op].syntax
	return s == syntaxMem || s == syntaxMemTied
}
