package vm

import (
	"errors"
	"fmt"
)

var (
	ErrMemoryFull           = errors.New("memory is full")
	ErrStackOverflow        = errors.New("stack overflow")
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrUnknownOpcode        = errors.New("unknown opcode")
	ErrUndefinedHexadecimal = errors.New("undefined hexadecimal digit")
	ErrWrongKey             = errors.New("key is not valid")
	ErrAddressOutOfRange    = errors.New("address out of range")

	// ErrHalted is returned by the host loop when the program jumps to itself
	// and can make no further progress.
	ErrHalted = errors.New("program looped")
)

// StepError is returned by Step. It records where the failing instruction
// was fetched from.
type StepError struct {
	PC     uint16
	Opcode Opcode
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("pc 0x%04x, opcode %s: %v", e.PC, e.Opcode, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
