package mips

// ByteSource provides instruction bytes by virtual address. It reports false
// when fewer than size bytes are available at va.
type ByteSource interface {
	ReadBytesVA(va uint64, size int) ([]byte, bool)
}

// Region is an in-memory ByteSource whose first byte lives at Base.
type Region struct {
	Base uint64
	Data []byte
}

// ReadBytesVA implements ByteSource.
func (r Region) ReadBytesVA(va uint64, size int) ([]byte, bool) {
	if size < 0 || va < r.Base {
		return nil, false
	}
	off := va - r.Base
	if off > uint64(len(r.Data)) || uint64(len(r.Data))-off < uint64(size) {
		return nil, false
	}
	return r.Data[off : off+uint64(size)], true
}

// ReadWord reads the 4-byte instruction word at addr using the byte order
// selected by ctx. It returns 0 consumed bytes and ErrShortRead when the
// source cannot supply 4 bytes.
func ReadWord(src ByteSource, addr uint64, ctx *Context) (uint32, int, error) {
	b, ok := src.ReadBytesVA(addr, 4)
	if !ok || len(b) < 4 {
		return 0, 0, ErrShortRead
	}
	return assemble(b, ctx.BigEndian, ctx.MicroMips), 4, nil
}

func assemble(b []byte, bigEndian, microMips bool) uint32 {
	if bigEndian {
		return uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24
	}
	// microMIPS stores two little-endian halfwords, most significant first.
	if microMips {
		return uint32(b[2]) | uint32(b[3])<<8 | uint32(b[0])<<16 | uint32(b[1])<<24
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
