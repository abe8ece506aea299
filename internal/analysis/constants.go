// Package analysis turns decoded instruction streams into annotated
// listings: symbol resolution, string references and detector findings.
package analysis

// Constants for analysis operations
const (
	// MaxStringLength is the maximum length for string extraction
	MaxStringLength = 256

	// SearchWindowSmall bounds the backwards search for lui/addiu pairs
	SearchWindowSmall = 32

	// MaxTraceInstructions is the maximum number of instructions to trace
	MaxTraceInstructions = 1000

	// MinDataRun is the number of consecutive undecodable words reported
	// as embedded data
	MinDataRun = 4
)
