package disasm

import (
	"context"
	"errors"
)

// SweepStats counts what a sweep produced.
type SweepStats struct {
	Decoded int
	Invalid int
}

// Sweep linearly decodes [start, end). Unrecognised words become .word
// entries and decoding resumes at the next word. The sweep stops early at
// the first address with fewer than 4 readable bytes, or when ctx is done.
func Sweep(ctx context.Context, b Backend, src Source, start, end uint64) (Stream, SweepStats, error) {
	var (
		out   Stream
		stats SweepStats
	)
	if end > start {
		out = make(Stream, 0, (end-start)/4)
	}
	for va := start; va < end && end-va >= 4; va += 4 {
		if va&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return out, stats, err
			}
		}
		inst, err := b.Decode(src, va)
		switch {
		case errors.Is(err, ErrShortRead):
			return out, stats, nil
		case err != nil:
			stats.Invalid++
		default:
			stats.Decoded++
		}
		out = append(out, inst)
	}
	return out, stats, nil
}

// Targets collects the direct branch and call destinations inside s.
func (s Stream) Targets() map[uint64]Flow {
	out := make(map[uint64]Flow)
	if len(s) == 0 {
		return out
	}
	lo, hi := s[0].VA, s[len(s)-1].VA
	for _, in := range s {
		if !in.HasTarget || in.Target < lo || in.Target > hi {
			continue
		}
		if prev, ok := out[in.Target]; ok && prev == FlowCall {
			continue
		}
		out[in.Target] = in.Flow
	}
	return out
}
