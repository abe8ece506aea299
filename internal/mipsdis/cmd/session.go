package cmd

import (
	"context"
	"crypto/sha256"
	"debug/elf"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"mipsdis/internal/analysis"
	"mipsdis/internal/detectors"
	"mipsdis/internal/disasm"
	"mipsdis/internal/elfx"
	"mipsdis/internal/mips"
	"mipsdis/internal/mipsdis/config"
)

// session is an opened image together with everything needed to list it.
type session struct {
	path     string
	img      *elfx.Image
	backend  disasm.Backend
	micro    disasm.Backend // for microMIPS functions in a standard MIPS image
	symbols  *analysis.SymbolTable
	chain    *analysis.DetectorChain
	maxInsns int
}

// target is one range to disassemble.
type target struct {
	Name  string
	VA    uint64
	Count int  // instruction budget
	Sized bool // Count comes from the symbol size
	Micro bool
}

func openSession(path string, cfg *config.Config) (*session, error) {
	img, err := elfx.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	s := &session{
		path:     path,
		img:      img,
		symbols:  analysis.SymbolsOf(img),
		maxInsns: cfg.MaxInsns,
		chain: analysis.NewDetectorChain(
			detectors.NewCallTargets(),
			detectors.NewStringRefs(),
			detectors.NewDataInText(),
		),
	}
	if err := s.selectBackend(cfg); err != nil {
		img.Close()
		return nil, err
	}
	slog.Debug("Opened image", "path", path, "arch", img.Arch().String(), "backend", s.backend.Name(),
		"symbols", s.symbols.Len())
	return s, nil
}

func (s *session) selectBackend(cfg *config.Config) error {
	arch := s.img.Arch()
	if !arch.IsMIPS() {
		b, err := disasm.New(arch, disasm.Options{})
		if err != nil {
			return err
		}
		s.backend = b
		return nil
	}
	mc, err := cfg.Override(disasm.MIPSConfig(arch, disasm.Options{}))
	if err != nil {
		return err
	}
	s.backend = disasm.NewMIPS(mc)
	if mc.Features&mips.FeatureMicroMips == 0 && mc.Arch == mips.ArchMips32 {
		mc.Features |= mips.FeatureMicroMips
		s.micro = disasm.NewMIPS(mc)
	}
	return nil
}

func (s *session) Close() error {
	return s.img.Close()
}

// digest returns the hex SHA-256 of the image file.
func (s *session) digest() (string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// kind describes the ELF file type.
func (s *session) kind() string {
	if s.img.File != nil {
		switch s.img.File.Type {
		case elf.ET_DYN:
			return "library"
		case elf.ET_REL:
			return "object"
		}
	}
	return "executable"
}

// functionTarget turns a function symbol into a target.
func (s *session) functionTarget(sym elfx.Symbol) target {
	t := target{Name: analysis.CachedDemangle(sym.Name), VA: sym.Addr, Count: s.maxInsns, Micro: sym.MicroMips}
	if sym.Size >= 4 {
		t.Count = int(sym.Size / 4)
		t.Sized = true
	}
	return t
}

// targets resolves what to disassemble. Named symbols win over an explicit
// start address; with neither, every function is listed, or the whole text
// section of a stripped image.
func (s *session) targets(names []string, start string, count int) ([]target, error) {
	var out []target
	for _, name := range names {
		sym, ok := s.symbols.Lookup(name)
		if !ok {
			if sym, ok = s.img.FindFunctionByName(name); !ok {
				return nil, fmt.Errorf("symbol not found: %s", name)
			}
		}
		out = append(out, s.functionTarget(sym))
	}
	if len(out) > 0 {
		return out, nil
	}

	if start != "" {
		va, err := parseHex(start)
		if err != nil {
			return nil, fmt.Errorf("invalid start address %q: %w", start, err)
		}
		if count <= 0 {
			count = s.maxInsns
		}
		name := fmt.Sprintf("loc_%x", va)
		if n, ok := s.symbols.Symbolize(va); ok {
			name = n
		}
		return []target{{Name: name, VA: va, Count: count, Sized: true}}, nil
	}

	for _, sym := range s.img.Functions() {
		if !s.img.InText(sym.Addr) && s.img.Text.Size != 0 {
			continue
		}
		out = append(out, s.functionTarget(sym))
	}
	if len(out) == 0 && s.img.Text.Size >= 4 {
		out = append(out, target{
			Name:  s.img.Text.Name,
			VA:    s.img.Text.VA,
			Count: int(s.img.Text.Size / 4),
			Sized: true,
		})
	}
	return out, nil
}

// trace disassembles one target.
func (s *session) trace(ctx context.Context, t target) (*analysis.AnnotatorResult, error) {
	b := s.backend
	if t.Micro && s.micro != nil {
		b = s.micro
	}
	return analysis.TraceDisasm(ctx, b, s.img, t.VA, analysis.TraceOptions{
		MaxInsns:     t.Count,
		StopAtReturn: !t.Sized,
		Symbols:      s.symbols,
		Mem:          s.img,
		Chain:        s.chain,
	})
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	return strconv.ParseUint(s, 16, 64)
}
