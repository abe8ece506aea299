package mips

const (
	NumFieldKinds = numFieldKinds
	NumRegClasses = numRegClasses
	NumTables     = numTables
	NumOpcodes    = numOpcodes
)
