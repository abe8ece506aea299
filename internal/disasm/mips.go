package disasm

import (
	"encoding/binary"
	"errors"

	"mipsdis/internal/mips"
)

// MIPS adapts a mips.Decoder to the Backend interface.
type MIPS struct {
	dec *mips.Decoder
}

// NewMIPS creates a MIPS backend.
func NewMIPS(cfg mips.Config, opts ...mips.Option) *MIPS {
	return &MIPS{dec: mips.NewDecoder(cfg, opts...)}
}

// Decoder exposes the underlying decoder.
func (m *MIPS) Decoder() *mips.Decoder { return m.dec }

func (m *MIPS) Name() string {
	cfg := m.dec.Config()
	name := cfg.Arch.String()
	if !cfg.BigEndian {
		name += "el"
	}
	if f := cfg.Features; f != 0 {
		name += " [" + f.String() + "]"
	}
	return name
}

func (m *MIPS) Decode(src Source, va uint64) (Inst, error) {
	b, ok := src.ReadBytesVA(va, 4)
	if !ok {
		return Inst{VA: va}, ErrShortRead
	}
	mi, _, err := m.dec.Decode(mips.Region{Base: va, Data: b}, va)
	if errors.Is(err, ErrShortRead) {
		return Inst{VA: va}, err
	}
	return m.wrap(mi, rawBytes(b), va, err)
}

// DecodeWord decodes an assembled instruction word as if it were stored at
// va. Raw holds the word laid out in the decoder's memory order.
func (m *MIPS) DecodeWord(word uint32, va uint64) (Inst, error) {
	mi, err := m.dec.DecodeWord(word, va)
	return m.wrap(mi, m.layout(word), va, err)
}

func (m *MIPS) wrap(mi mips.Inst, raw [4]byte, va uint64, err error) (Inst, error) {
	out := Inst{VA: va, Size: 4, Raw: raw, Word: mi.Enc}
	if err != nil {
		out.Text = wordDirective(mi.Enc)
		out.Op = ".word"
		return out, err
	}
	out.Valid = true
	out.Mips = &mi
	out.Op = mi.Op.String()
	out.Text = mi.String()
	out.Flow = mipsFlow(mi)
	out.Target, out.HasTarget = mi.Target(va)
	return out, nil
}

func (m *MIPS) layout(word uint32) (raw [4]byte) {
	ctx := m.dec.Context()
	switch {
	case ctx.BigEndian:
		binary.BigEndian.PutUint32(raw[:], word)
	case ctx.MicroMips:
		binary.LittleEndian.PutUint16(raw[0:], uint16(word>>16))
		binary.LittleEndian.PutUint16(raw[2:], uint16(word))
	default:
		binary.LittleEndian.PutUint32(raw[:], word)
	}
	return raw
}

func mipsFlow(mi mips.Inst) Flow {
	switch mi.Op.Flow() {
	case mips.FlowBranch:
		return FlowBranch
	case mips.FlowJump:
		return FlowJump
	case mips.FlowBranchLink, mips.FlowCall:
		return FlowCall
	case mips.FlowIndirect:
		// jr $ra
		if len(mi.Args) == 1 && mi.Args[0].Kind == mips.OperandReg && mi.Args[0].Reg == mips.RA {
			return FlowReturn
		}
		if mi.Op == mips.JALR {
			return FlowCall
		}
		return FlowIndirect
	}
	return FlowNone
}
