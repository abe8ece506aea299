// Package mips decodes MIPS32, MIPS64 and microMIPS instruction words into
// an opcode and an ordered operand list.
//
// A Decoder is built once per architecture variant and byte order and can be
// shared between goroutines: decoding never mutates the decoder, its register
// tables or the byte source.
package mips

import (
	"errors"
	"fmt"
)

// Arch selects the decoder variant.
type Arch uint8

const (
	ArchMips32 Arch = iota
	ArchMips64
)

func (a Arch) String() string {
	switch a {
	case ArchMips32:
		return "mips32"
	case ArchMips64:
		return "mips64"
	}
	return fmt.Sprintf("Arch(%d)", uint8(a))
}

// Context is the immutable per-decoder state handed to field decoders.
type Context struct {
	Regs      *RegisterInfo
	BigEndian bool
	// N64 resolves pointer-sized register fields through GPR64.
	N64 bool
	// MicroMips selects microMIPS byte order and target scaling.
	MicroMips bool
}

// Config describes a decoder variant.
type Config struct {
	Arch      Arch
	BigEndian bool
	Features  Features
}

// Option customises a Decoder.
type Option func(*Decoder)

// WithMatcher replaces the built-in encoding tables.
func WithMatcher(m Matcher) Option {
	return func(d *Decoder) { d.matcher = m }
}

// WithRegisterInfo replaces the register tables.
func WithRegisterInfo(ri *RegisterInfo) Option {
	return func(d *Decoder) { d.ctx.Regs = ri }
}

// Decoder decodes one instruction per call.
type Decoder struct {
	cfg     Config
	ctx     Context
	matcher Matcher
}

// NewDecoder creates a decoder for cfg.
func NewDecoder(cfg Config, opts ...Option) *Decoder {
	d := &Decoder{
		cfg: cfg,
		ctx: Context{
			Regs:      NewRegisterInfo(),
			BigEndian: cfg.BigEndian,
			N64:       cfg.Features&FeatureN64 != 0,
			// microMIPS is only decoded by the 32-bit variant.
			MicroMips: cfg.Arch == ArchMips32 && cfg.Features&FeatureMicroMips != 0,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.matcher == nil {
		d.matcher = DefaultMatcher()
	}
	return d
}

// Config returns the configuration d was built with.
func (d *Decoder) Config() Config { return d.cfg }

// Context returns a copy of the decode context.
func (d *Decoder) Context() Context { return d.ctx }

// Decode reads and decodes the instruction at addr. On success it returns
// the instruction and 4; on failure it returns 0 consumed bytes and an error.
// When the word was read but not decoded, the returned Inst carries only the
// raw encoding.
func (d *Decoder) Decode(src ByteSource, addr uint64) (Inst, int, error) {
	word, _, err := ReadWord(src, addr, &d.ctx)
	if err != nil {
		return Inst{}, 0, err
	}
	inst, err := d.DecodeWord(word, addr)
	if err != nil {
		return inst, 0, err
	}
	return inst, 4, nil
}

// DecodeWord decodes an already assembled instruction word.
func (d *Decoder) DecodeWord(word uint32, addr uint64) (Inst, error) {
	switch d.cfg.Arch {
	case ArchMips64:
		inst, err := d.match(TableMips64, word, addr)
		if err == nil || errors.Is(err, ErrContract) {
			return inst, err
		}
		// Words outside the 64-bit table may still be MIPS32 encodings.
		return d.match(TableMips32, word, addr)
	default:
		if d.ctx.MicroMips {
			return d.match(TableMicroMips32, word, addr)
		}
		return d.match(TableMips32, word, addr)
	}
}

func (d *Decoder) match(table TableID, word uint32, addr uint64) (Inst, error) {
	inst := Inst{Enc: word}
	if err := d.matcher.Match(table, word, addr, &d.ctx, d.cfg.Features, &inst); err != nil {
		inst.reset(word)
		return inst, err
	}
	return inst, nil
}
