package mips

// Field constructors used by the encoding tables.
func reg(k FieldKind, start uint8) Field     { return Field{Kind: k, Start: start, Width: 5} }
func bits(k FieldKind, start, w uint8) Field { return Field{Kind: k, Start: start, Width: w} }
func whole(k FieldKind) Field                { return Field{Kind: k} }

// Classic MIPS register fields.
var (
	rs = reg(FieldGPR32, 21)
	rt = reg(FieldGPR32, 16)
	rd = reg(FieldGPR32, 11)
	sa = reg(FieldImm, 6)

	rs64 = reg(FieldGPR64, 21)
	rt64 = reg(FieldGPR64, 16)
	rd64 = reg(FieldGPR64, 11)

	simm16 = bits(FieldSimm16, 0, 16)
	uimm16 = bits(FieldImm, 0, 16)
	branch = bits(FieldBranchTarget, 0, 16)
)

const (
	maskOpcode  = 0xfc000000
	maskRType   = 0xfc0007ff // opcode, sa and funct
	maskShift   = 0xffe0003f // opcode, rs and funct
	maskFunct   = 0xfc00003f
	maskTwoReg  = 0xfc00ffff // opcode, rd, sa and funct
	maskRegImm  = 0xfc1f0000
	maskCOP1Fmt = 0xffe0003f
)

func opc(o uint32) uint32 { return o << 26 }

const (
	opRegImm   = 0x01
	opCOP1     = 0x11
	opSpecial2 = 0x1c
	opSpecial3 = 0x1f
	opMSA      = 0x1e
)

func cop1(fmt, funct uint32) uint32 { return opc(opCOP1) | fmt<<21 | funct }

func aluR(op Opcode, funct uint32) Encoding {
	return Encoding{Mask: maskRType, Value: funct, Op: op, Fields: []Field{rd, rs, rt}}
}

func aluI(op Opcode, code uint32, imm Field) Encoding {
	return Encoding{Mask: maskOpcode, Value: opc(code), Op: op, Fields: []Field{rt, rs, imm}}
}

func loadStore(op Opcode, code uint32) Encoding {
	return Encoding{Mask: maskOpcode, Value: opc(code), Op: op, Fields: []Field{whole(FieldMem)}}
}

func fpArith(op Opcode, fmt, funct uint32, k FieldKind) Encoding {
	return Encoding{
		Mask: maskCOP1Fmt, Value: cop1(fmt, funct), Op: op,
		Fields: []Field{reg(k, 6), reg(k, 11), reg(k, 16)},
	}
}

func fpMove(op Opcode, fmt uint32, k FieldKind, req Features) Encoding {
	return Encoding{
		Mask: 0xffff003f, Value: cop1(fmt, 0x06), Op: op, Requires: req,
		Fields: []Field{reg(k, 6), reg(k, 11)},
	}
}

func cop1Move(op Opcode, fmt uint32, gpr, fpr FieldKind) Encoding {
	return Encoding{
		Mask: 0xffe007ff, Value: cop1(fmt, 0), Op: op,
		Fields: []Field{reg(gpr, 16), reg(fpr, 11)},
	}
}

func msaMem(op Opcode, minor uint32) Encoding {
	return Encoding{
		Mask: maskFunct, Value: opc(opMSA) | minor, Op: op, Requires: FeatureMSA,
		Fields: []Field{whole(FieldMSA128Mem)},
	}
}

// insveEncoding folds the element format prefix of the df/n field into the
// mask so each width has its own entry.
func insveEncoding(op Opcode, f insveFormat) Encoding {
	base := opc(opMSA) | 0x5<<22 | 0x19
	return Encoding{
		Mask: 0xffc0003f | f.mask<<17, Value: base | f.value<<17, Op: op,
		Requires: FeatureMSA, Fields: []Field{whole(FieldINSVE)},
	}
}

func msa3R(op Opcode, operation, df, minor uint32, k FieldKind) Encoding {
	return Encoding{
		Mask: 0xffe0003f, Value: opc(opMSA) | operation<<23 | df<<21 | minor, Op: op,
		Requires: FeatureMSA, Fields: []Field{reg(k, 6), reg(k, 11), reg(k, 16)},
	}
}

var mips32Table = []Encoding{
	// SPECIAL
	{Mask: 0xffffffff, Value: 0, Op: NOP},
	{Mask: maskShift, Value: 0x00, Op: SLL, Fields: []Field{rd, rt, sa}},
	{Mask: maskShift, Value: 0x02, Op: SRL, Fields: []Field{rd, rt, sa}},
	{Mask: maskShift, Value: 0x03, Op: SRA, Fields: []Field{rd, rt, sa}},
	{Mask: maskRType, Value: 0x04, Op: SLLV, Fields: []Field{rd, rt, rs}},
	{Mask: 0xfc00073f, Value: 0x05, Op: LSA, Requires: FeatureMSA, Fields: []Field{rd, rs, rt, bits(FieldLSAImm, 6, 2)}},
	{Mask: maskRType, Value: 0x06, Op: SRLV, Fields: []Field{rd, rt, rs}},
	{Mask: maskRType, Value: 0x07, Op: SRAV, Fields: []Field{rd, rt, rs}},
	{Mask: 0xfc1fffff, Value: 0x08, Op: JR, Fields: []Field{rs}},
	{Mask: 0xfc1f07ff, Value: 0x09, Op: JALR, Fields: []Field{rd, rs}},
	aluR(MOVZ, 0x0a),
	aluR(MOVN, 0x0b),
	{Mask: maskFunct, Value: 0x0c, Op: SYSCALL, Fields: []Field{bits(FieldImm, 6, 20)}},
	{Mask: maskFunct, Value: 0x0d, Op: BREAK, Fields: []Field{bits(FieldImm, 16, 10)}},
	{Mask: 0xfffff83f, Value: 0x0f, Op: SYNC, Fields: []Field{sa}},
	{Mask: 0xfc0307ff, Value: 0x01, Op: MOVF, Fields: []Field{rd, rs, bits(FieldFCC, 18, 3)}},
	{Mask: 0xfc0307ff, Value: 0x00010001, Op: MOVT, Fields: []Field{rd, rs, bits(FieldFCC, 18, 3)}},

	// DSP accumulator forms shadow the plain HI/LO encodings when enabled.
	{Mask: 0xff9f07ff, Value: 0x10, Op: MFHI_DSP, Requires: FeatureDSP, Fields: []Field{rd, bits(FieldHI32DSP, 21, 2)}},
	{Mask: 0xfc1fe7ff, Value: 0x11, Op: MTHI_DSP, Requires: FeatureDSP, Fields: []Field{rs, bits(FieldHI32DSP, 11, 2)}},
	{Mask: 0xff9f07ff, Value: 0x12, Op: MFLO_DSP, Requires: FeatureDSP, Fields: []Field{rd, bits(FieldLO32DSP, 21, 2)}},
	{Mask: 0xfc1fe7ff, Value: 0x13, Op: MTLO_DSP, Requires: FeatureDSP, Fields: []Field{rs, bits(FieldLO32DSP, 11, 2)}},
	{Mask: 0xfc00e7ff, Value: 0x18, Op: MULT_DSP, Requires: FeatureDSP, Fields: []Field{bits(FieldACC64DSP, 11, 2), rs, rt}},
	{Mask: 0xfc00e7ff, Value: 0x19, Op: MULTU_DSP, Requires: FeatureDSP, Fields: []Field{bits(FieldACC64DSP, 11, 2), rs, rt}},

	{Mask: 0xffff07ff, Value: 0x10, Op: MFHI, Fields: []Field{rd}},
	{Mask: 0xfc1fffff, Value: 0x11, Op: MTHI, Fields: []Field{rs}},
	{Mask: 0xffff07ff, Value: 0x12, Op: MFLO, Fields: []Field{rd}},
	{Mask: 0xfc1fffff, Value: 0x13, Op: MTLO, Fields: []Field{rs}},
	{Mask: maskTwoReg, Value: 0x18, Op: MULT, Fields: []Field{rs, rt}},
	{Mask: maskTwoReg, Value: 0x19, Op: MULTU, Fields: []Field{rs, rt}},
	{Mask: maskTwoReg, Value: 0x1a, Op: DIV, Fields: []Field{rs, rt}},
	{Mask: maskTwoReg, Value: 0x1b, Op: DIVU, Fields: []Field{rs, rt}},
	aluR(ADD, 0x20),
	aluR(ADDU, 0x21),
	aluR(SUB, 0x22),
	aluR(SUBU, 0x23),
	aluR(AND, 0x24),
	aluR(OR, 0x25),
	aluR(XOR, 0x26),
	aluR(NOR, 0x27),
	aluR(SLT, 0x2a),
	aluR(SLTU, 0x2b),

	// REGIMM
	{Mask: maskRegImm, Value: opc(opRegImm) | 0x00<<16, Op: BLTZ, Fields: []Field{rs, branch}},
	{Mask: maskRegImm, Value: opc(opRegImm) | 0x01<<16, Op: BGEZ, Fields: []Field{rs, branch}},
	{Mask: maskRegImm, Value: opc(opRegImm) | 0x10<<16, Op: BLTZAL, Fields: []Field{rs, branch}},
	{Mask: maskRegImm, Value: opc(opRegImm) | 0x11<<16, Op: BGEZAL, Fields: []Field{rs, branch}},

	// jumps, branches, immediates
	{Mask: maskOpcode, Value: opc(0x02), Op: J, Fields: []Field{whole(FieldJumpTarget)}},
	{Mask: maskOpcode, Value: opc(0x03), Op: JAL, Fields: []Field{whole(FieldJumpTarget)}},
	{Mask: maskOpcode, Value: opc(0x04), Op: BEQ, Fields: []Field{rs, rt, branch}},
	{Mask: maskOpcode, Value: opc(0x05), Op: BNE, Fields: []Field{rs, rt, branch}},
	{Mask: maskRegImm, Value: opc(0x06), Op: BLEZ, Fields: []Field{rs, branch}},
	{Mask: maskRegImm, Value: opc(0x07), Op: BGTZ, Fields: []Field{rs, branch}},
	aluI(ADDI, 0x08, simm16),
	aluI(ADDIU, 0x09, simm16),
	aluI(SLTI, 0x0a, simm16),
	aluI(SLTIU, 0x0b, simm16),
	aluI(ANDI, 0x0c, uimm16),
	aluI(ORI, 0x0d, uimm16),
	aluI(XORI, 0x0e, uimm16),
	{Mask: 0xffe00000, Value: opc(0x0f), Op: LUI, Fields: []Field{rt, uimm16}},

	// loads and stores
	loadStore(LB, 0x20),
	loadStore(LH, 0x21),
	loadStore(LWL, 0x22),
	loadStore(LW, 0x23),
	loadStore(LBU, 0x24),
	loadStore(LHU, 0x25),
	loadStore(LWR, 0x26),
	loadStore(SB, 0x28),
	loadStore(SH, 0x29),
	loadStore(SWL, 0x2a),
	loadStore(SW, 0x2b),
	loadStore(SWR, 0x2e),
	loadStore(LL, 0x30),
	loadStore(SC, 0x38),
	{Mask: maskOpcode, Value: opc(0x35), Op: LDC1, Fields: []Field{whole(FieldFMem)}},
	{Mask: maskOpcode, Value: opc(0x3d), Op: SDC1, Fields: []Field{whole(FieldFMem)}},

	// SPECIAL2
	{Mask: maskTwoReg, Value: opc(opSpecial2) | 0x00, Op: MADD, Fields: []Field{rs, rt}},
	{Mask: maskRType, Value: opc(opSpecial2) | 0x02, Op: MUL, Fields: []Field{rd, rs, rt}},
	{Mask: maskRType, Value: opc(opSpecial2) | 0x20, Op: CLZ, Fields: []Field{rd, rs}},

	// SPECIAL3
	{Mask: maskFunct, Value: opc(opSpecial3) | 0x00, Op: EXT, Fields: []Field{rt, rs, sa, reg(FieldExtSize, 11)}},
	{Mask: maskFunct, Value: opc(opSpecial3) | 0x04, Op: INS, Fields: []Field{rt, rs, sa, reg(FieldInsSize, 11), rt}},
	{Mask: 0xffe007ff, Value: opc(opSpecial3) | 0x10<<6 | 0x20, Op: SEB, Fields: []Field{rd, rt}},
	{Mask: 0xffe007ff, Value: opc(opSpecial3) | 0x18<<6 | 0x20, Op: SEH, Fields: []Field{rd, rt}},
	{Mask: 0xffe007ff, Value: opc(opSpecial3) | 0x02<<6 | 0x20, Op: WSBH, Fields: []Field{rd, rt}},
	{Mask: 0xffe007ff, Value: opc(opSpecial3) | 0x3b, Op: RDHWR, Fields: []Field{rt, reg(FieldHWRegs, 11)}},
	{Mask: maskRType, Value: opc(opSpecial3) | 0x00<<6 | 0x10, Op: ADDU_QB, Requires: FeatureDSP,
		Fields: []Field{reg(FieldDSPR, 11), reg(FieldDSPR, 21), reg(FieldDSPR, 16)}},
	{Mask: maskRType, Value: opc(opSpecial3) | 0x01<<6 | 0x10, Op: SUBU_QB, Requires: FeatureDSP,
		Fields: []Field{reg(FieldDSPR, 11), reg(FieldDSPR, 21), reg(FieldDSPR, 16)}},

	// COP1
	cop1Move(MFC1, 0x00, FieldGPR32, FieldFGR32),
	cop1Move(CFC1, 0x02, FieldGPR32, FieldCCR),
	cop1Move(MFHC1, 0x03, FieldGPR32, FieldFGRH32),
	cop1Move(MTC1, 0x04, FieldGPR32, FieldFGR32),
	cop1Move(CTC1, 0x06, FieldGPR32, FieldCCR),
	cop1Move(MTHC1, 0x07, FieldGPR32, FieldFGRH32),
	{Mask: 0xffe30000, Value: cop1(0x08, 0) | 0<<16, Op: BC1F, Fields: []Field{bits(FieldFCC, 18, 3), branch}},
	{Mask: 0xffe30000, Value: cop1(0x08, 0) | 1<<16, Op: BC1T, Fields: []Field{bits(FieldFCC, 18, 3), branch}},
	fpArith(ADD_S, 0x10, 0x00, FieldFGR32),
	fpArith(SUB_S, 0x10, 0x01, FieldFGR32),
	fpArith(MUL_S, 0x10, 0x02, FieldFGR32),
	fpArith(DIV_S, 0x10, 0x03, FieldFGR32),
	fpMove(MOV_S, 0x10, FieldFGR32, 0),
	{Mask: 0xffe000ff, Value: cop1(0x10, 0x32), Op: C_EQ_S,
		Fields: []Field{bits(FieldFCC, 8, 3), reg(FieldFGR32, 11), reg(FieldFGR32, 16)}},
	{Mask: 0xffe000ff, Value: cop1(0x10, 0x3c), Op: C_LT_S,
		Fields: []Field{bits(FieldFCC, 8, 3), reg(FieldFGR32, 11), reg(FieldFGR32, 16)}},

	// Double precision operands are full 64-bit registers in FR=1 mode and
	// even/odd pairs otherwise.
	withRequires(fpArith(ADD_D64, 0x11, 0x00, FieldFGR64), FeatureFP64),
	withRequires(fpArith(SUB_D64, 0x11, 0x01, FieldFGR64), FeatureFP64),
	withRequires(fpArith(MUL_D64, 0x11, 0x02, FieldFGR64), FeatureFP64),
	withRequires(fpArith(DIV_D64, 0x11, 0x03, FieldFGR64), FeatureFP64),
	fpMove(MOV_D64, 0x11, FieldFGR64, FeatureFP64),
	fpArith(ADD_D32, 0x11, 0x00, FieldAFGR64),
	fpArith(SUB_D32, 0x11, 0x01, FieldAFGR64),
	fpArith(MUL_D32, 0x11, 0x02, FieldAFGR64),
	fpArith(DIV_D32, 0x11, 0x03, FieldAFGR64),
	fpMove(MOV_D32, 0x11, FieldAFGR64, 0),

	// MSA
	msaMem(LD_B, 0x20),
	msaMem(LD_H, 0x21),
	msaMem(LD_W, 0x22),
	msaMem(LD_D, 0x23),
	msaMem(ST_B, 0x24),
	msaMem(ST_H, 0x25),
	msaMem(ST_W, 0x26),
	msaMem(ST_D, 0x27),
	insveEncoding(INSVE_B, insveFormats[0]),
	insveEncoding(INSVE_H, insveFormats[1]),
	insveEncoding(INSVE_W, insveFormats[2]),
	insveEncoding(INSVE_D, insveFormats[3]),
	msa3R(ADDV_B, 0, 0, 0x0e, FieldMSA128B),
	msa3R(ADDV_H, 0, 1, 0x0e, FieldMSA128H),
	msa3R(ADDV_W, 0, 2, 0x0e, FieldMSA128W),
	msa3R(ADDV_D, 0, 3, 0x0e, FieldMSA128D),
	{Mask: 0xffff003f, Value: opc(opMSA) | 0x03e<<16 | 0x19, Op: CTCMSA, Requires: FeatureMSA,
		Fields: []Field{reg(FieldMSACtrl, 6), reg(FieldGPR32, 11)}},
	{Mask: 0xffff003f, Value: opc(opMSA) | 0x07e<<16 | 0x19, Op: CFCMSA, Requires: FeatureMSA,
		Fields: []Field{reg(FieldGPR32, 6), reg(FieldMSACtrl, 11)}},
}

func withRequires(e Encoding, f Features) Encoding {
	e.Requires |= f
	return e
}

// mips64Table holds the encodings that only exist, or decode differently, on
// 64-bit cores. Everything else falls back to mips32Table.
var mips64Table = []Encoding{
	{Mask: maskOpcode, Value: opc(0x18), Op: DADDI, Fields: []Field{rt64, rs64, simm16}},
	{Mask: maskOpcode, Value: opc(0x19), Op: DADDIU, Fields: []Field{rt64, rs64, simm16}},
	{Mask: maskRType, Value: 0x2d, Op: DADDU, Fields: []Field{rd64, rs64, rt64}},
	{Mask: maskRType, Value: 0x2f, Op: DSUBU, Fields: []Field{rd64, rs64, rt64}},
	{Mask: maskShift, Value: 0x38, Op: DSLL, Fields: []Field{rd64, rt64, sa}},
	{Mask: maskShift, Value: 0x3a, Op: DSRL, Fields: []Field{rd64, rt64, sa}},
	{Mask: maskShift, Value: 0x3b, Op: DSRA, Fields: []Field{rd64, rt64, sa}},
	{Mask: maskShift, Value: 0x3c, Op: DSLL32, Fields: []Field{rd64, rt64, sa}},
	{Mask: maskShift, Value: 0x3e, Op: DSRL32, Fields: []Field{rd64, rt64, sa}},
	{Mask: maskTwoReg, Value: 0x1c, Op: DMULT, Fields: []Field{rs64, rt64}},
	{Mask: maskTwoReg, Value: 0x1d, Op: DMULTU, Fields: []Field{rs64, rt64}},
	{Mask: maskTwoReg, Value: 0x1e, Op: DDIV, Fields: []Field{rs64, rt64}},
	{Mask: maskTwoReg, Value: 0x1f, Op: DDIVU, Fields: []Field{rs64, rt64}},
	{Mask: maskOpcode, Value: opc(0x37), Op: LD, Fields: []Field{rt64, reg(FieldPtr, 21), simm16}},
	{Mask: maskOpcode, Value: opc(0x3f), Op: SD, Fields: []Field{rt64, reg(FieldPtr, 21), simm16}},
	{Mask: maskOpcode, Value: opc(0x27), Op: LWU, Fields: []Field{rt64, reg(FieldPtr, 21), simm16}},
	cop1Move(DMFC1, 0x01, FieldGPR64, FieldFGR64),
	cop1Move(DMTC1, 0x05, FieldGPR64, FieldFGR64),
}

// microMIPS fields: rt sits above rs.
var (
	mmRT = reg(FieldGPR32, 21)
	mmRS = reg(FieldGPR32, 16)
	mmRD = reg(FieldGPR32, 11)
)

func mmPool32A(op Opcode, minor uint32) Encoding {
	return Encoding{Mask: 0xfc0007ff, Value: minor, Op: op, Fields: []Field{mmRD, mmRS, mmRT}}
}

func mmImm(op Opcode, code uint32, imm Field) Encoding {
	return Encoding{Mask: maskOpcode, Value: opc(code), Op: op, Fields: []Field{mmRT, mmRS, imm}}
}

func mmMem16(op Opcode, code uint32) Encoding {
	return Encoding{Mask: maskOpcode, Value: opc(code), Op: op, Fields: []Field{whole(FieldMemMMImm16)}}
}

func mmMem12(op Opcode, fn uint32) Encoding {
	return Encoding{Mask: 0xfc00f000, Value: opc(0x18) | fn<<12, Op: op, Fields: []Field{whole(FieldMemMMImm12)}}
}

var microMips32Table = []Encoding{
	{Mask: 0xffffffff, Value: 0, Op: NOP_MM},
	{Mask: 0xffe0ffff, Value: 0x00000f3c, Op: JR_MM, Fields: []Field{mmRS}},
	{Mask: 0xfc0003ff, Value: 0x000, Op: SLL_MM, Fields: []Field{mmRT, mmRS, reg(FieldImm, 11)}},
	mmPool32A(ADDU_MM, 0x150),
	mmPool32A(SUBU_MM, 0x1d0),
	mmPool32A(AND_MM, 0x250),
	mmPool32A(OR_MM, 0x290),
	mmPool32A(XOR_MM, 0x310),
	mmPool32A(SLT_MM, 0x350),
	mmPool32A(SLTU_MM, 0x390),

	mmImm(ADDIU_MM, 0x0c, simm16),
	mmImm(ORI_MM, 0x14, uimm16),
	mmImm(ANDI_MM, 0x34, uimm16),
	mmImm(XORI_MM, 0x1c, uimm16),
	mmImm(SLTI_MM, 0x24, simm16),
	mmImm(SLTIU_MM, 0x2c, simm16),
	{Mask: 0xffe00000, Value: opc(0x10) | 0x0d<<21, Op: LUI_MM, Fields: []Field{mmRS, uimm16}},

	mmMem16(LB_MM, 0x07),
	mmMem16(LBU_MM, 0x05),
	mmMem16(LH_MM, 0x0f),
	mmMem16(LHU_MM, 0x0d),
	mmMem16(LW_MM, 0x3f),
	mmMem16(SB_MM, 0x06),
	mmMem16(SH_MM, 0x0e),
	mmMem16(SW_MM, 0x3e),
	mmMem12(LWL_MM, 0x0),
	mmMem12(LWR_MM, 0x1),
	mmMem12(LL_MM, 0x3),
	mmMem12(SC_MM, 0xb),

	{Mask: maskOpcode, Value: opc(0x25), Op: BEQ_MM, Fields: []Field{mmRS, mmRT, bits(FieldBranchTargetMM, 0, 16)}},
	{Mask: maskOpcode, Value: opc(0x2d), Op: BNE_MM, Fields: []Field{mmRS, mmRT, bits(FieldBranchTargetMM, 0, 16)}},
	{Mask: maskOpcode, Value: opc(0x35), Op: J_MM, Fields: []Field{whole(FieldJumpTargetMM)}},
	{Mask: maskOpcode, Value: opc(0x3d), Op: JAL_MM, Fields: []Field{whole(FieldJumpTargetMM)}},
}
