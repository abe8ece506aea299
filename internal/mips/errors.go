package mips

import (
	"errors"
	"fmt"
)

var (
	// ErrShortRead is returned when fewer than 4 bytes are available.
	ErrShortRead = errors.New("truncated instruction")
	// ErrNoMatch is returned when no table entry matches the word.
	ErrNoMatch = errors.New("unknown instruction")
	// ErrRegisterRange is returned for an encoded register index outside its class.
	ErrRegisterRange = errors.New("register index out of range")
	// ErrUnsupportedClass is returned for register classes that are never decoded.
	ErrUnsupportedClass = errors.New("unsupported register class")
	// ErrContract matches every *ContractError.
	ErrContract = errors.New("decoder table inconsistency")
)

// ContractError reports a field decoder invoked in a way its encoding table
// entry should have made impossible. It indicates a defect in the tables, not
// bad input.
type ContractError struct {
	Op     Opcode
	Field  FieldKind
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s in %s: %s", ErrContract, e.Field, e.Op, e.Reason)
}

func (e *ContractError) Is(target error) bool {
	return target == ErrContract
}
