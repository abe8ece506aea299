package mips

// insveFormat is one element-width variant of insve.df. The df/n field at
// bits 21:16 carries both the element width (as a prefix code in bits 21:17)
// and the element index n in the remaining low bits.
type insveFormat struct {
	mask, value uint32
	nSize       uint
	class       RegClass
}

// insveFormats is exactly one entry per element width; the patterns are
// disjoint.
var insveFormats = [4]insveFormat{
	{mask: 0x18, value: 0x00, nSize: 4, class: ClassMSA128B},
	{mask: 0x1c, value: 0x10, nSize: 3, class: ClassMSA128H},
	{mask: 0x1e, value: 0x18, nSize: 2, class: ClassMSA128W},
	{mask: 0x1f, value: 0x1c, nSize: 1, class: ClassMSA128D},
}

func classifyINSVE(tag uint32) (insveFormat, bool) {
	for _, f := range insveFormats {
		if tag&f.mask == f.value {
			return f, true
		}
	}
	return insveFormat{}, false
}

// decodeINSVE decodes insve.df wd[n], ws[0]. The encoding implies a tied
// wd input and a second index that is always zero; both are materialised
// so the operand list is {wd, wd, n, ws, 0}.
func decodeINSVE(inst *Inst, word uint32, _ uint64, ctx *Context) error {
	f, ok := classifyINSVE(fieldFromInstruction(word, 17, 5))
	if !ok {
		return &ContractError{Op: inst.Op, Field: FieldINSVE, Reason: "invalid element format"}
	}

	wd := fieldFromInstruction(word, 6, 5)
	if err := decodeReg(inst, f.class, wd, ctx); err != nil {
		return err
	}
	if err := decodeReg(inst, f.class, wd, ctx); err != nil {
		return err
	}
	inst.addImm(int64(fieldFromInstruction(word, 16, f.nSize)))
	if err := decodeReg(inst, f.class, fieldFromInstruction(word, 11, 5), ctx); err != nil {
		return err
	}
	inst.addImm(0)
	return nil
}
