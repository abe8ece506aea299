package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	pathpkg "path/filepath"
	"strings"
	"unicode/utf8"

	"mipsdis/internal/analysis"
	"mipsdis/internal/disasm"
	"mipsdis/internal/ui/colorize"
)

// JSONOutput represents the JSON output structure for regression testing
type JSONOutput struct {
	File      string         `json:"file"`
	Digest    string         `json:"digest"`
	Arch      string         `json:"arch"`
	Backend   string         `json:"backend"`
	Functions []JSONFunction `json:"functions"`
}

// JSONFunction is one disassembled range.
type JSONFunction struct {
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	Decoded      int                `json:"decoded"`
	Invalid      int                `json:"invalid"`
	Instructions []JSONInst         `json:"instructions"`
	Findings     []analysis.Finding `json:"findings,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// JSONInst is one decoded instruction.
type JSONInst struct {
	Address string `json:"address"`
	Bytes   string `json:"bytes"`
	Text    string `json:"text"`
	Flow    string `json:"flow,omitempty"`
	Target  string `json:"target,omitempty"`
}

// sanitizeForJSON cleans a string to be valid UTF-8 and safe for JSON encoding
func sanitizeForJSON(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

func jsonInst(in disasm.Inst) JSONInst {
	j := JSONInst{
		Address: fmt.Sprintf("0x%x", in.VA),
		Bytes:   fmt.Sprintf("%x", in.Raw[:in.Size]),
		Text:    in.Text,
	}
	if in.Flow != disasm.FlowNone {
		j.Flow = in.Flow.String()
	}
	if in.HasTarget {
		j.Target = fmt.Sprintf("0x%x", in.Target)
	}
	return j
}

func runJSON(ctx context.Context, w io.Writer, s *session, targets []target) error {
	digest, err := s.digest()
	if err != nil {
		return fmt.Errorf("failed to calculate digest: %w", err)
	}
	out := JSONOutput{
		File:      pathpkg.Base(s.path),
		Digest:    digest,
		Arch:      s.img.Arch().String(),
		Backend:   s.backend.Name(),
		Functions: make([]JSONFunction, 0, len(targets)),
	}
	for _, t := range targets {
		fn := JSONFunction{
			Name:         sanitizeForJSON(t.Name),
			Address:      fmt.Sprintf("0x%x", t.VA),
			Instructions: []JSONInst{},
		}
		res, err := s.trace(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn.Error = err.Error()
			out.Functions = append(out.Functions, fn)
			continue
		}
		fn.Decoded, fn.Invalid = res.Stats.Decoded, res.Stats.Invalid
		for _, in := range res.Stream {
			fn.Instructions = append(fn.Instructions, jsonInst(in))
		}
		for _, f := range res.Findings {
			f.Target = sanitizeForJSON(f.Target)
			f.Comment = sanitizeForJSON(f.Comment)
			fn.Findings = append(fn.Findings, f)
		}
		out.Functions = append(out.Functions, fn)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// formatAssemblyLine colorizes one listing line.
func formatAssemblyLine(inst analysis.AnnotatedInst) string {
	return " " + colorize.ColorizeInstructionLine(inst.String())
}

// writeHeader prints the summary block shown above every listing.
func writeHeader(w io.Writer, s *session) {
	fmt.Fprintln(w, "# mipsdis")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "; %s\n", s.path)
	fmt.Fprintf(w, "; %s (%s)\n", pathpkg.Base(s.path), s.kind())
	if digest, err := s.digest(); err == nil {
		fmt.Fprintf(w, "; %s\n", digest)
	}
	fmt.Fprintf(w, "; %s\n", s.img.Arch().Describe())
	fmt.Fprintf(w, "; decoder %s\n", s.backend.Name())
}

func runNoTUI(ctx context.Context, w io.Writer, s *session, targets []target) error {
	writeHeader(w, s)

	var decoded, invalid int
	for _, t := range targets {
		fmt.Fprintln(w)
		res, err := s.trace(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Failed to disassemble", "symbol", t.Name, "va", fmt.Sprintf("0x%x", t.VA), "error", err)
			fmt.Fprintf(w, "; %s: %v\n", t.Name, err)
			continue
		}
		decoded += res.Stats.Decoded
		invalid += res.Stats.Invalid
		for _, line := range res.Listing {
			fmt.Fprintln(w, formatAssemblyLine(line))
		}
	}
	fmt.Fprintf(w, "\n; %d ranges, %d instructions, %d invalid words\n", len(targets), decoded, invalid)
	return nil
}
