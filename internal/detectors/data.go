package detectors

import (
	"fmt"

	"mipsdis/internal/analysis"
)

// DataInText reports runs of undecodable words, which are usually literal
// pools, jump tables or padding rather than code.
type DataInText struct {
	MinRun int
}

// NewDataInText creates a detector reporting runs of at least
// analysis.MinDataRun words.
func NewDataInText() *DataInText {
	return &DataInText{MinRun: analysis.MinDataRun}
}

func (d *DataInText) Detect(scope *analysis.Scope, findings []analysis.Finding) []analysis.Finding {
	minRun := d.MinRun
	if minRun <= 0 {
		minRun = 1
	}
	s := scope.Stream
	for i := 0; i < len(s); {
		if s[i].Valid {
			i++
			continue
		}
		j := i
		for j < len(s) && !s[j].Valid {
			j++
		}
		if n := j - i; n >= minRun {
			findings = append(findings, analysis.Finding{
				Kind:    analysis.KindData,
				VA:      s[i].VA,
				Count:   n,
				Comment: fmt.Sprintf("data: %d words", n),
			})
		}
		i = j
	}
	return findings
}
