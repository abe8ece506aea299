package detectors

import (
	"fmt"

	"mipsdis/internal/analysis"
	"mipsdis/internal/disasm"
	"mipsdis/internal/mips"
)

// StringRefs resolves lui/addiu address pairs and base+offset memory
// operands, reporting string literals in read-only data and named objects.
type StringRefs struct{}

// NewStringRefs creates a string reference detector.
func NewStringRefs() *StringRefs {
	return &StringRefs{}
}

func (d *StringRefs) Detect(scope *analysis.Scope, findings []analysis.Finding) []analysis.Finding {
	s := scope.Stream
	for i, in := range s {
		va, ok := d.address(s, i)
		if !ok {
			continue
		}
		if f, ok := d.describe(scope, in, va); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// address returns the constant formed or dereferenced by s[i].
func (d *StringRefs) address(s disasm.Stream, i int) (uint64, bool) {
	mi := s[i].Mips
	if mi == nil || len(mi.Args) == 0 {
		return 0, false
	}
	if mi.Op.IsMemory() {
		return analysis.ResolveMemoryOperand(s, i)
	}
	// Only the instruction completing a pair is annotated.
	if len(mi.Args) != 3 || mi.Args[0].Kind != mips.OperandReg || mi.Args[2].Kind != mips.OperandImm {
		return 0, false
	}
	switch mi.Op {
	case mips.ADDIU, mips.DADDIU, mips.ORI, mips.ADDIU_MM, mips.ORI_MM:
		return analysis.ResolveRegister(s, i+1, mi.Args[0].Reg)
	}
	return 0, false
}

func (d *StringRefs) describe(scope *analysis.Scope, in disasm.Inst, va uint64) (analysis.Finding, bool) {
	f := analysis.Finding{VA: in.VA, TargetVA: va}
	if scope.Mem != nil && scope.Mem.InRodata(va) {
		if str, ok := analysis.ReadCString(scope.Mem, va, analysis.MaxStringLength); ok && analysis.IsPrintableString(str) {
			f.Kind = analysis.KindStringRef
			f.Target = str.Value
			f.Comment = `"` + str.Value + `"`
			return f, true
		}
	}
	if name, ok := scope.Symbols.Symbolize(va); ok {
		f.Kind = analysis.KindAddressRef
		f.Target = name
		f.Comment = fmt.Sprintf("&%s", name)
		return f, true
	}
	return f, false
}
