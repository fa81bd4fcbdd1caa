package vm

import "fmt"

// Opcode is a raw 16-bit big-endian instruction word.
type Opcode uint16

// Nibbles splits the opcode into its four 4-bit fields, most significant first.
func (op Opcode) Nibbles() [4]uint8 {
	return [4]uint8{
		uint8(op>>12) & 0x0F,
		uint8(op>>8) & 0x0F,
		uint8(op>>4) & 0x0F,
		uint8(op) & 0x0F,
	}
}

// NNN is the low 12 bits, an address.
func (op Opcode) NNN() uint16 { return uint16(op) & 0x0FFF }

// NN is the low byte, an immediate.
func (op Opcode) NN() uint8 { return uint8(op & 0x00FF) }

// N is the low nibble.
func (op Opcode) N() uint8 { return uint8(op & 0x000F) }

// X is the second nibble, a register index.
func (op Opcode) X() uint8 { return uint8(op>>8) & 0x0F }

// Y is the third nibble, a register index.
func (op Opcode) Y() uint8 { return uint8(op>>4) & 0x0F }

func (op Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(op))
}
