package elfx

import (
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

const (
	testVA   = 0x00400054
	codeOff  = 84
	mips32r2 = efMipsArch32R2
)

// writeELF32 builds an executable with one PT_LOAD segment covering code
// and no section headers, like a fully stripped binary.
func writeELF32(t *testing.T, order binary.ByteOrder, flags uint32, code []byte) string {
	t.Helper()
	buf := make([]byte, codeOff+len(code))
	copy(buf, []byte{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS32), 0, byte(elf.EV_CURRENT)})
	if order == binary.BigEndian {
		buf[5] = byte(elf.ELFDATA2MSB)
	} else {
		buf[5] = byte(elf.ELFDATA2LSB)
	}
	order.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	order.PutUint16(buf[18:], uint16(elf.EM_MIPS))
	order.PutUint32(buf[20:], uint32(elf.EV_CURRENT))
	order.PutUint32(buf[24:], testVA)
	order.PutUint32(buf[28:], 52)
	order.PutUint32(buf[32:], 0)
	order.PutUint32(buf[36:], flags)
	order.PutUint16(buf[40:], 52)
	order.PutUint16(buf[42:], 32)
	order.PutUint16(buf[44:], 1)
	order.PutUint16(buf[46:], 40)

	ph := buf[52:]
	order.PutUint32(ph[0:], uint32(elf.PT_LOAD))
	order.PutUint32(ph[4:], codeOff)
	order.PutUint32(ph[8:], testVA)
	order.PutUint32(ph[12:], testVA)
	order.PutUint32(ph[16:], uint32(len(code)))
	order.PutUint32(ph[20:], uint32(len(code)))
	order.PutUint32(ph[24:], uint32(elf.PF_R|elf.PF_X))
	order.PutUint32(ph[28:], 4)

	copy(buf[codeOff:], code)
	path := filepath.Join(t.TempDir(), "a.out")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenStripped(t *testing.T) {
	code := []byte{
		0x27, 0xbd, 0xff, 0xe0, // addiu sp, sp, -32
		0x03, 0xe0, 0x00, 0x08, // jr ra
		0x00, 0x00, 0x00, 0x00, // nop
	}
	path := writeELF32(t, binary.BigEndian, mips32r2, code)

	im, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer im.Close()

	a := im.Arch()
	if !a.IsMIPS() || !a.BigEndian || a.Is64() || a.N64() || a.MicroMips() {
		t.Errorf("unexpected arch %+v", a)
	}
	if got := a.String(); got != "mips32r2" {
		t.Errorf("Arch.String() = %q, want mips32r2", got)
	}

	if im.Text.Name != "LOAD(exec)" || im.Text.VA != testVA || im.Text.Size != uint64(len(code)) {
		t.Errorf("text fallback = %+v", im.Text)
	}
	if !im.InText(testVA+8) || im.InText(testVA+uint64(len(code))) {
		t.Error("InText bounds wrong")
	}

	off, ok := im.VA2Off(testVA + 4)
	if !ok || off != codeOff+4 {
		t.Errorf("VA2Off = %d, %v", off, ok)
	}
	if _, ok := im.VA2Off(0x1000); ok {
		t.Error("VA2Off accepted an unmapped address")
	}

	b, ok := im.ReadBytesVA(testVA+4, 4)
	if !ok || binary.BigEndian.Uint32(b) != 0x03e00008 {
		t.Errorf("ReadBytesVA = % x, %v", b, ok)
	}
	if _, ok := im.ReadBytesVA(testVA+8, 8); ok {
		t.Error("ReadBytesVA read past the mapping")
	}

	if fns := im.Functions(); len(fns) != 0 {
		t.Errorf("stripped image has functions %v", fns)
	}
	if _, ok := im.FindFunctionByName("main"); ok {
		t.Error("found main in a stripped image")
	}

	if err := im.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := im.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestOpenNotELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	if err := os.WriteFile(path, []byte("not an elf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open accepted a non-ELF file")
	}
}

func TestArchFlags(t *testing.T) {
	tests := []struct {
		name  string
		arch  Arch
		want  string
		is64  bool
		micro bool
		fp64  bool
	}{
		{
			name: "little endian micromips",
			arch: Arch{Machine: elf.EM_MIPS, Class: elf.ELFCLASS32, Flags: efMipsArch32R2 | efMipsASEMicroMips},
			want: "mips32r2el+micromips", micro: true,
		},
		{
			name: "n64",
			arch: Arch{Machine: elf.EM_MIPS, Class: elf.ELFCLASS64, BigEndian: true, Flags: efMipsArch64R2},
			want: "mips64r2", is64: true,
		},
		{
			name: "n32",
			arch: Arch{Machine: elf.EM_MIPS, Class: elf.ELFCLASS32, BigEndian: true, Flags: efMipsArch64 | efMipsABI2},
			want: "mips64 (n32)", is64: true,
		},
		{
			name: "fp64 o32",
			arch: Arch{Machine: elf.EM_MIPS, Class: elf.ELFCLASS32, BigEndian: true, Flags: efMipsArch32R2 | efMipsFP64},
			want: "mips32r2", fp64: true,
		},
		{
			name: "arm64",
			arch: Arch{Machine: elf.EM_AARCH64, Class: elf.ELFCLASS64, Flags: efMipsASEMicroMips},
			want: "EM_AARCH64", is64: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.arch.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.arch.Is64(); got != tt.is64 {
				t.Errorf("Is64() = %v, want %v", got, tt.is64)
			}
			if got := tt.arch.MicroMips(); got != tt.micro {
				t.Errorf("MicroMips() = %v, want %v", got, tt.micro)
			}
			if got := tt.arch.FP64(); got != tt.fp64 {
				t.Errorf("FP64() = %v, want %v", got, tt.fp64)
			}
		})
	}
}

func TestHeaderFlags(t *testing.T) {
	raw := make([]byte, 52)
	binary.LittleEndian.PutUint32(raw[36:], 0x72001000)
	h := &elf.FileHeader{Class: elf.ELFCLASS32, ByteOrder: binary.LittleEndian}
	if got := headerFlags(h, raw); got != 0x72001000 {
		t.Errorf("headerFlags = %#x", got)
	}
	if got := headerFlags(h, raw[:20]); got != 0 {
		t.Errorf("short header gave %#x", got)
	}
}

func TestConvertSymbols(t *testing.T) {
	in := []elf.Symbol{
		{Name: "undef", Value: 0},
		{Name: ".text", Value: 0x400000, Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_SECTION)},
		{Name: "main", Value: 0x400100, Size: 64, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)},
		{Name: "mm_fn", Value: 0x400201, Size: 16, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Other: stoMipsMicroMips},
		{Name: "table", Value: 0x410000, Size: 8, Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT)},
	}
	out := convertSymbols(in)
	if len(out) != 3 {
		t.Fatalf("got %d symbols, want 3: %+v", len(out), out)
	}
	if out[1].Addr != 0x400200 || !out[1].MicroMips {
		t.Errorf("microMIPS symbol = %+v", out[1])
	}

	im := &Image{Syms: out, Dynsyms: []Symbol{
		{Name: "memcpy@GLIBC_2.0", Addr: 0x400300, Func: true},
		{Name: "main", Addr: 0x400100, Func: true},
	}}
	fns := im.Functions()
	if len(fns) != 3 || fns[0].Name != "main" || fns[2].Name != "memcpy@GLIBC_2.0" {
		t.Errorf("Functions() = %+v", fns)
	}
	if s, ok := im.FindFunctionByName("memcpy"); !ok || s.Addr != 0x400300 {
		t.Errorf("versioned lookup = %+v, %v", s, ok)
	}
	if _, ok := im.FindFunctionByName("table"); ok {
		t.Error("object symbol returned as a function")
	}
}
