package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"mipsdis/internal/disasm"
)

// AnnotatedInst represents a disassembled instruction with annotations
type AnnotatedInst struct {
	VA          uint64
	Bytes       [4]byte
	Inst        *disasm.Inst // nil for labels and comment lines
	Mnemonic    string
	Operands    string
	Annotations []string // Comments to display
}

// String formats the instruction with fixed columns for annotations.
// This returns plain text; colorization is done after formatting.
func (a AnnotatedInst) String() string {
	if a.Mnemonic == "" && a.Operands == "" && len(a.Annotations) > 0 {
		return fmt.Sprintf("           %-6s %-30s ; %s", "", "", strings.Join(a.Annotations, ", "))
	}

	if strings.HasSuffix(a.Mnemonic, ":") {
		return fmt.Sprintf("%x  %s", a.VA, a.Mnemonic)
	}

	// No 0x prefix, the colorizer matches bare hex addresses.
	addr := fmt.Sprintf("%x", a.VA)
	base := fmt.Sprintf("%-10s %-8s %-30s", addr, a.Mnemonic, a.Operands)

	if len(a.Annotations) > 0 {
		return fmt.Sprintf("%s ; %s", base, strings.Join(a.Annotations, ", "))
	}
	return strings.TrimRight(base, " ")
}

// IsLabel reports whether a is a label line.
func (a AnnotatedInst) IsLabel() bool { return a.Inst == nil && strings.HasSuffix(a.Mnemonic, ":") }

// AnnotatorResult contains both annotated listing and semantic findings
type AnnotatorResult struct {
	Listing  []AnnotatedInst
	Findings []Finding
	Stream   disasm.Stream
	Stats    disasm.SweepStats
}

// TraceOptions bound and enrich a trace.
type TraceOptions struct {
	MaxInsns int
	// StopAtReturn ends the trace after the first return and its delay slot.
	StopAtReturn bool
	Symbols      *SymbolTable
	Mem          Memory
	Chain        *DetectorChain
}

// TraceDisasm decodes code starting at startVA, runs the detector chain and
// builds the annotated listing.
func TraceDisasm(ctx context.Context, b disasm.Backend, src disasm.Source, startVA uint64, opts TraceOptions) (*AnnotatorResult, error) {
	maxInsns := opts.MaxInsns
	if maxInsns <= 0 {
		maxInsns = MaxTraceInstructions
	}
	stream, stats, err := disasm.Sweep(ctx, b, src, startVA, startVA+uint64(maxInsns)*4)
	if err != nil {
		return nil, err
	}
	if len(stream) == 0 {
		return nil, fmt.Errorf("failed to read code at %x", startVA)
	}
	if opts.StopAtReturn {
		stream = truncateAtReturn(stream)
	}

	scope := &Scope{Stream: stream, Symbols: opts.Symbols, Mem: opts.Mem}
	findings := opts.Chain.Detect(scope, nil)
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].VA < findings[j].VA })

	return &AnnotatorResult{
		Listing:  Annotate(scope, findings),
		Findings: findings,
		Stream:   stream,
		Stats:    stats,
	}, nil
}

// truncateAtReturn keeps everything up to the first return. MIPS returns
// keep their delay slot.
func truncateAtReturn(s disasm.Stream) disasm.Stream {
	for i, in := range s {
		if in.Flow != disasm.FlowReturn {
			continue
		}
		end := i + 1
		if in.Mips != nil && end < len(s) {
			end++
		}
		return s[:end]
	}
	return s
}

// Annotate renders a stream into listing lines. Symbol starts and local
// branch targets get label lines; findings become trailing comments.
func Annotate(scope *Scope, findings []Finding) []AnnotatedInst {
	stream := scope.Stream
	targets := stream.Targets()

	byVA := make(map[uint64][]string)
	for _, f := range findings {
		if f.Comment != "" {
			byVA[f.VA] = append(byVA[f.VA], f.Comment)
		}
	}

	out := make([]AnnotatedInst, 0, len(stream)+len(targets))
	for i := range stream {
		in := &stream[i]
		if sym, ok := scope.Symbols.At(in.VA); ok {
			out = append(out, AnnotatedInst{VA: in.VA, Mnemonic: CachedDemangle(sym.Name) + ":"})
		} else if _, ok := targets[in.VA]; ok {
			out = append(out, AnnotatedInst{VA: in.VA, Mnemonic: fmt.Sprintf("loc_%x:", in.VA)})
		}
		out = append(out, AnnotatedInst{
			VA:          in.VA,
			Bytes:       in.Raw,
			Inst:        in,
			Mnemonic:    in.Op,
			Operands:    in.Operands(),
			Annotations: byVA[in.VA],
		})
	}
	return out
}
