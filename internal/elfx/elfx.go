// Package elfx provides helpers for opening ELF binaries, locating sections, and mapping virtual addresses to file offsets.
package elfx

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

type Image struct {
	Path    string
	File    *elf.File
	All     []byte
	Loads   []Seg
	Text    Section
	Rodata  Section
	Data    Section
	Stubs   Section
	Dynsyms []Symbol
	Syms    []Symbol
	arch    Arch
	f       *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Contains reports whether va lies inside the section.
func (s Section) Contains(va uint64) bool {
	return s.Size != 0 && va >= s.VA && va < s.VA+s.Size
}

type Symbol struct {
	Name string
	Addr uint64
	Size uint64
	Func bool
	// MicroMips is set for functions compiled to the microMIPS ISA.
	MicroMips bool
}

// stoMipsMicroMips marks a microMIPS symbol in st_other.
const stoMipsMicroMips = 0x80

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := unix.Mmap(int(of.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of, arch: archOf(&f.FileHeader, all)}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		switch s.Name {
		case ".text":
			im.Text = Section{s.Name, s.Addr, s.Offset, s.Size}
		case ".rodata", ".rodata.str1.1", ".rodata.str1.4":
			if im.Rodata.Size == 0 {
				im.Rodata = Section{s.Name, s.Addr, s.Offset, s.Size}
			}
		case ".data":
			im.Data = Section{s.Name, s.Addr, s.Offset, s.Size}
		case ".MIPS.stubs", ".plt":
			im.Stubs = Section{s.Name, s.Addr, s.Offset, s.Size}
		}
	}

	im.loadDynamicSymbols()
	im.loadStaticSymbols()

	// Fallbacks if stripped.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	if im.Rodata.Size == 0 {
		for _, l := range im.Loads {
			if (l.Flags&elf.PF_R != 0) && (l.Flags&elf.PF_W == 0) && (l.Flags&elf.PF_X == 0) && l.Filesz > 0 {
				im.Rodata = Section{"LOAD(ro)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	return im, nil
}

// Arch returns the target description decoded from the ELF header.
func (im *Image) Arch() Arch { return im.arch }

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = unix.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns a subslice of the mapped file corresponding to the virtual address range [va, va+size).
// It returns (nil, false) if the VA is unmapped or the range is out of bounds.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// ReadBytesVA reads exactly size bytes from a virtual address.
// Returns false if VA is unmapped or size extends beyond file bounds.
func (im *Image) ReadBytesVA(va uint64, size int) ([]byte, bool) {
	if size <= 0 {
		return []byte{}, true
	}
	return im.SliceVA(va, uint64(size))
}

// InRodata reports whether the VA lies within the chosen
// read-only data region.
func (im *Image) InRodata(va uint64) bool { return im.Rodata.Contains(va) }

// InData reports whether VA lies in .data
func (im *Image) InData(va uint64) bool { return im.Data.Contains(va) }

// InText reports whether VA lies in the executable region.
func (im *Image) InText(va uint64) bool { return im.Text.Contains(va) }

// IsStub reports whether VA lies in the lazy-binding stub section.
func (im *Image) IsStub(va uint64) bool { return im.Stubs.Contains(va) }

func (im *Image) loadDynamicSymbols() {
	if im.File == nil || im.File.Section(".dynsym") == nil {
		return
	}
	dynsyms, err := im.File.DynamicSymbols()
	if err != nil {
		return
	}
	im.Dynsyms = convertSymbols(dynsyms)
}

// loadStaticSymbols loads .symtab, absent from stripped binaries.
func (im *Image) loadStaticSymbols() {
	if im.File == nil {
		return
	}
	syms, err := im.File.Symbols()
	if err != nil {
		return
	}
	im.Syms = convertSymbols(syms)
}

func convertSymbols(in []elf.Symbol) []Symbol {
	out := make([]Symbol, 0, len(in))
	for _, sym := range in {
		// Skip undefined symbols
		if sym.Value == 0 || sym.Name == "" {
			continue
		}
		typ := elf.ST_TYPE(sym.Info)
		if typ == elf.STT_SECTION || typ == elf.STT_FILE {
			continue
		}
		micro := sym.Other&stoMipsMicroMips != 0
		addr := sym.Value
		if micro {
			// the low bit is the ISA mode, not part of the address
			addr &^= 1
		}
		out = append(out, Symbol{
			Name:      sym.Name,
			Addr:      addr,
			Size:      sym.Size,
			Func:      typ == elf.STT_FUNC,
			MicroMips: micro,
		})
	}
	return out
}

// Functions returns the function symbols of both tables, deduplicated by
// address and sorted.
func (im *Image) Functions() []Symbol {
	seen := make(map[uint64]bool)
	var out []Symbol
	for _, tab := range [][]Symbol{im.Syms, im.Dynsyms} {
		for _, s := range tab {
			if !s.Func || seen[s.Addr] {
				continue
			}
			seen[s.Addr] = true
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// FindFunctionByName searches for a function by name in the symbol tables.
func (im *Image) FindFunctionByName(name string) (Symbol, bool) {
	for _, tab := range [][]Symbol{im.Syms, im.Dynsyms} {
		for _, sym := range tab {
			if sym.Name == name && sym.Func {
				return sym, true
			}
		}
	}
	// Versioned dynamic names such as memcpy@GLIBC_2.0
	for _, sym := range im.Dynsyms {
		if sym.Func && strings.SplitN(sym.Name, "@", 2)[0] == name {
			return sym, true
		}
	}
	return Symbol{}, false
}
