package analysis

import "fmt"

// FindingKind classifies a detector finding.
type FindingKind int

const (
	KindCall FindingKind = iota
	KindJump
	KindBranchOut
	KindStringRef
	KindAddressRef
	KindData
)

func (k FindingKind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindJump:
		return "jump"
	case KindBranchOut:
		return "branch-out"
	case KindStringRef:
		return "string"
	case KindAddressRef:
		return "address"
	case KindData:
		return "data"
	}
	return fmt.Sprintf("FindingKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON output.
func (k FindingKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Finding is a semantic event detected in a listing
type Finding struct {
	Kind     FindingKind    `json:"kind"`
	VA       uint64         `json:"va"`               // instruction the finding is attached to
	TargetVA uint64         `json:"target,omitempty"` // referenced address, if any
	Target   string         `json:"name,omitempty"`   // demangled symbol or string literal
	Symbol   string         `json:"symbol,omitempty"` // raw symbol name
	Comment  string         `json:"comment"`          // listing annotation
	Count    int            `json:"count,omitempty"`  // instructions covered, for data runs
	Metadata map[string]any `json:"metadata,omitempty"`
}
