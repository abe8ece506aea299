package mips

import (
	"fmt"
	"strings"
)

// Features is a bitset of optional ISA features an encoding may require.
type Features uint32

const (
	FeatureMicroMips Features = 1 << iota
	FeatureN64
	FeatureDSP
	FeatureMSA
	FeatureFP64
)

var featureNames = []struct {
	f    Features
	name string
}{
	{FeatureMicroMips, "micromips"},
	{FeatureN64, "n64"},
	{FeatureDSP, "dsp"},
	{FeatureMSA, "msa"},
	{FeatureFP64, "fp64"},
}

func (f Features) String() string {
	var names []string
	for _, fn := range featureNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseFeatures parses a comma separated feature list such as "dsp,msa".
func ParseFeatures(s string) (Features, error) {
	var f Features
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" || part == "none" {
			continue
		}
		found := false
		for _, fn := range featureNames {
			if fn.name == part {
				f |= fn.f
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown feature %q", part)
		}
	}
	return f, nil
}

// TableID selects one of the encoding tables.
type TableID uint8

const (
	TableMips32 TableID = iota
	TableMips64
	TableMicroMips32
	TableMicroMips64
	numTables
)

func (t TableID) String() string {
	switch t {
	case TableMips32:
		return "Mips32"
	case TableMips64:
		return "Mips64"
	case TableMicroMips32:
		return "MicroMips32"
	case TableMicroMips64:
		return "MicroMips64"
	}
	return fmt.Sprintf("TableID(%d)", uint8(t))
}

// Matcher identifies the encoding of word in table and runs its field
// decoders against inst. It returns ErrNoMatch when nothing matches, or the
// first field decoder error.
type Matcher interface {
	Match(table TableID, word uint32, addr uint64, ctx *Context, features Features, inst *Inst) error
}

// Field describes one operand field of an encoding. Width 0 passes the whole
// instruction word to the decoder.
type Field struct {
	Kind  FieldKind
	Start uint8
	Width uint8
}

// Encoding is one table entry: word&Mask == Value selects Op, whose operands
// are produced by running Fields in order.
type Encoding struct {
	Mask, Value uint32
	Op          Opcode
	Requires    Features
	Fields      []Field
}

// TableMatcher is a linear mask/value matcher over fixed encoding tables.
// The first matching entry wins.
type TableMatcher struct {
	tables [numTables][]Encoding
}

// NewTableMatcher returns a matcher over the given tables.
func NewTableMatcher(tables map[TableID][]Encoding) *TableMatcher {
	m := &TableMatcher{}
	for id, encs := range tables {
		if id < numTables {
			m.tables[id] = encs
		}
	}
	return m
}

// DefaultMatcher returns a matcher over the built-in encoding tables.
func DefaultMatcher() *TableMatcher {
	return NewTableMatcher(map[TableID][]Encoding{
		TableMips32:      mips32Table,
		TableMips64:      mips64Table,
		TableMicroMips32: microMips32Table,
		TableMicroMips64: nil,
	})
}

// Encodings returns the entries of table.
func (m *TableMatcher) Encodings(table TableID) []Encoding {
	if table >= numTables {
		return nil
	}
	return m.tables[table]
}

// Match implements Matcher.
func (m *TableMatcher) Match(table TableID, word uint32, addr uint64, ctx *Context, features Features, inst *Inst) error {
	for _, e := range m.Encodings(table) {
		if word&e.Mask != e.Value || e.Requires&^features != 0 {
			continue
		}
		inst.Op = e.Op
		for _, f := range e.Fields {
			raw := word
			if f.Width != 0 {
				raw = fieldFromInstruction(word, uint(f.Start), uint(f.Width))
			}
			if err := DecodeField(f.Kind, inst, raw, addr, ctx); err != nil {
				return fmt.Errorf("%s: %w", e.Op, err)
			}
		}
		return nil
	}
	return ErrNoMatch
}
