// Package detectors finds control flow, data and string references in
// decoded MIPS and ARM64 listings.
package detectors

import (
	"fmt"

	"mipsdis/internal/analysis"
	"mipsdis/internal/disasm"
)

// CallTargets names the destination of every direct call and jump, and
// flags branches that leave the decoded range.
type CallTargets struct{}

// NewCallTargets creates a call target detector.
func NewCallTargets() *CallTargets {
	return &CallTargets{}
}

func (d *CallTargets) Detect(scope *analysis.Scope, findings []analysis.Finding) []analysis.Finding {
	s := scope.Stream
	if len(s) == 0 {
		return findings
	}
	lo, hi := s[0].VA, s[len(s)-1].VA
	for _, in := range s {
		if !in.HasTarget {
			continue
		}
		switch in.Flow {
		case disasm.FlowCall:
			findings = append(findings, d.named(scope, in, analysis.KindCall))
		case disasm.FlowJump:
			if in.Target < lo || in.Target > hi {
				findings = append(findings, d.named(scope, in, analysis.KindJump))
			}
		case disasm.FlowBranch:
			if in.Target < lo || in.Target > hi {
				f := d.named(scope, in, analysis.KindBranchOut)
				f.Comment = "leaves range: " + f.Comment
				findings = append(findings, f)
			}
		}
	}
	return findings
}

func (d *CallTargets) named(scope *analysis.Scope, in disasm.Inst, kind analysis.FindingKind) analysis.Finding {
	f := analysis.Finding{Kind: kind, VA: in.VA, TargetVA: in.Target}
	if sym, ok := scope.Symbols.At(in.Target); ok {
		f.Symbol = sym.Name
	}
	if name, ok := scope.Symbols.Symbolize(in.Target); ok {
		f.Target = name
		f.Comment = name
	} else {
		f.Target = fmt.Sprintf("sub_%x", in.Target)
		f.Comment = fmt.Sprintf("0x%x", in.Target)
	}
	if scope.Mem != nil && !scope.Mem.InText(in.Target) {
		f.Comment += " (outside text)"
	}
	return f
}
