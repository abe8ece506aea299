package analysis

import "mipsdis/internal/disasm"

// Memory is the image view detectors read from. *elfx.Image implements it.
type Memory interface {
	ReadBytesVA(va uint64, size int) ([]byte, bool)
	InRodata(va uint64) bool
	InText(va uint64) bool
}

// Scope is what a detector sees: one decoded range and its surroundings.
type Scope struct {
	Stream  disasm.Stream
	Symbols *SymbolTable
	Mem     Memory // may be nil for raw byte input
}

// Detector interface for pattern detection on a decoded range
type Detector interface {
	// Detect analyzes the scope and returns findings, extending or
	// rewriting the ones produced by earlier detectors
	Detect(scope *Scope, findings []Finding) []Finding
}

// DetectorChain runs multiple detectors in sequence
type DetectorChain struct {
	detectors []Detector
}

// NewDetectorChain creates a new detector chain
func NewDetectorChain(detectors ...Detector) *DetectorChain {
	return &DetectorChain{
		detectors: detectors,
	}
}

// Detect runs all detectors in sequence
func (dc *DetectorChain) Detect(scope *Scope, findings []Finding) []Finding {
	if dc == nil {
		return findings
	}
	result := findings
	for _, detector := range dc.detectors {
		result = detector.Detect(scope, result)
	}
	return result
}
