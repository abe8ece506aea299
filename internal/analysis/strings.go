package analysis

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"mipsdis/internal/disasm"
	"mipsdis/internal/mips"
)

// StringResult represents a recovered string with metadata
type StringResult struct {
	Value string // Escaped string content
	Len   int    // Original byte length
}

// EscapeUnprintable returns a string where printable Unicode runes are preserved.
// Control and unprintable runes are escaped as \uXXXX. Invalid UTF-8 is escaped as \xXX.
func EscapeUnprintable(b []byte) string {
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, "\\x%02X", b[0])
		} else if unicode.IsPrint(r) {
			sb.WriteRune(r)
		} else {
			fmt.Fprintf(&sb, "\\u%04X", r)
		}
		b = b[size:]
	}
	return sb.String()
}

// ReadCString reads a NUL terminated string of at most maxLen bytes at va.
// Reads near the end of a mapping shrink until they fit. ok is false when
// nothing is mapped at va or no terminator is found.
func ReadCString(mem Memory, va uint64, maxLen int) (StringResult, bool) {
	for n := maxLen; n > 0; n /= 2 {
		raw, ok := mem.ReadBytesVA(va, n)
		if !ok {
			continue
		}
		for i, b := range raw {
			if b == 0 {
				return StringResult{Value: EscapeUnprintable(raw[:i]), Len: i}, true
			}
		}
		return StringResult{}, false
	}
	return StringResult{}, false
}

// IsPrintableString reports whether s looks like text rather than binary data.
func IsPrintableString(s StringResult) bool {
	if s.Len < 2 {
		return false
	}
	return !strings.Contains(s.Value, "\\x") && strings.Count(s.Value, "\\u")*4 < s.Len
}

// ResolveRegister walks back from idx, exclusive, and computes the constant
// held in reg when it was built by lui followed by addiu, daddiu or ori.
// Register copies (move, i.e. or/addu with $zero) are followed.
func ResolveRegister(code disasm.Stream, idx int, reg mips.Reg) (uint64, bool) {
	n, ok := mips.GPRIndex(reg)
	if !ok {
		return 0, false
	}
	v, ok := resolveGPR(code, idx, n, 0)
	return uint64(v), ok
}

// ResolveMemoryOperand computes the effective address of the load or store
// at idx when its base register holds a known constant.
func ResolveMemoryOperand(code disasm.Stream, idx int) (uint64, bool) {
	mi := code[idx].Mips
	if mi == nil || !mi.Op.IsMemory() || len(mi.Args) < 2 {
		return 0, false
	}
	base := mi.Args[len(mi.Args)-2]
	off := mi.Args[len(mi.Args)-1]
	if base.Kind != mips.OperandReg || off.Kind != mips.OperandImm {
		return 0, false
	}
	n, ok := mips.GPRIndex(base.Reg)
	if !ok {
		return 0, false
	}
	v, ok := resolveGPR(code, idx, n, 0)
	if !ok {
		return 0, false
	}
	return uint64(v + off.Imm), true
}

// resolveGPR returns the value of GPR n just before code[idx] executes.
func resolveGPR(code disasm.Stream, idx, n, depth int) (int64, bool) {
	if n == 0 {
		return 0, true
	}
	if depth > 5 {
		return 0, false
	}
	for i := idx - 1; i >= 0 && idx-i <= SearchWindowSmall; i-- {
		mi := code[i].Mips
		if mi == nil || len(mi.Args) == 0 {
			continue
		}
		if code[i].Flow != disasm.FlowNone {
			// The branch owning idx's delay slot is transparent; any
			// earlier control transfer ends the search.
			if i != idx-1 {
				return 0, false
			}
			continue
		}
		dst, ok := argGPR(mi, 0)
		if !ok || dst != n || !mi.Op.WritesFirst() {
			continue
		}
		switch mi.Op {
		case mips.LUI, mips.LUI_MM:
			if imm, ok := argImm(mi, 1); ok {
				return int64(int32(uint32(imm) << 16)), true
			}
		case mips.ADDIU, mips.DADDIU, mips.ADDIU_MM:
			src, ok1 := argGPR(mi, 1)
			imm, ok2 := argImm(mi, 2)
			if ok1 && ok2 {
				if v, ok := resolveGPR(code, i, src, depth+1); ok {
					return v + imm, true
				}
			}
		case mips.ORI, mips.ORI_MM:
			src, ok1 := argGPR(mi, 1)
			imm, ok2 := argImm(mi, 2)
			if ok1 && ok2 {
				if v, ok := resolveGPR(code, i, src, depth+1); ok {
					return v | imm, true
				}
			}
		case mips.OR, mips.ADDU, mips.DADDU, mips.OR_MM, mips.ADDU_MM:
			a, ok1 := argGPR(mi, 1)
			b, ok2 := argGPR(mi, 2)
			if ok1 && ok2 && (a == 0 || b == 0) {
				return resolveGPR(code, i, a|b, depth+1)
			}
		}
		// Any other write clobbers the register.
		return 0, false
	}
	return 0, false
}

func argGPR(mi *mips.Inst, i int) (int, bool) {
	if i >= len(mi.Args) || mi.Args[i].Kind != mips.OperandReg {
		return 0, false
	}
	return mips.GPRIndex(mi.Args[i].Reg)
}

func argImm(mi *mips.Inst, i int) (int64, bool) {
	if i >= len(mi.Args) || mi.Args[i].Kind != mips.OperandImm {
		return 0, false
	}
	return mi.Args[i].Imm, true
}
