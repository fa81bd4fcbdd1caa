package vm

import "fmt"

// Kind identifies one of the instruction forms understood by the interpreter.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCls          // 00E0
	KindRts          // 00EE
	KindSys          // 0NNN
	KindJmp          // 1NNN
	KindJsr          // 2NNN
	KindSkeqImm      // 3XNN
	KindSkneImm      // 4XNN
	KindSkeqReg      // 5XY0
	KindMovImm       // 6XNN
	KindAddImm       // 7XNN
	KindMovReg       // 8XY0
	KindOr           // 8XY1
	KindAnd          // 8XY2
	KindXor          // 8XY3
	KindAddReg       // 8XY4
	KindSub          // 8XY5
	KindShr          // 8XY6
	KindRsb          // 8XY7
	KindShl          // 8XYE
	KindSkneReg      // 9XY0
	KindMvi          // ANNN
	KindJmi          // BNNN
	KindRand         // CXNN
	KindSprite       // DXYN
	KindSkpr         // EX9E
	KindSkup         // EXA1
	KindGdelay       // FX07
	KindKey          // FX0A
	KindSdelay       // FX15
	KindSsound       // FX18
	KindAdi          // FX1E
	KindFont         // FX29
	KindBcd          // FX33
	KindStr          // FX55
	KindLdr          // FX65

	kindCount
)

// Instruction is a decoded opcode with its operands already extracted.
type Instruction struct {
	Kind   Kind
	Opcode Opcode

	X   uint8
	Y   uint8
	N   uint8
	NN  uint8
	NNN uint16
}

// Decode maps a raw word to an instruction. It never fails: words that match
// no documented form decode to KindUnknown.
func Decode(op Opcode) Instruction {
	return Instruction{
		Kind:   decodeKind(op),
		Opcode: op,
		X:      op.X(),
		Y:      op.Y(),
		N:      op.N(),
		NN:     op.NN(),
		NNN:    op.NNN(),
	}
}

func decodeKind(op Opcode) Kind {
	switch op & 0xF000 {
	case 0x0000:
		switch op {
		case 0x00E0:
			// 00E0 - Clear screen
			return KindCls

		case 0x00EE:
			// 00EE - Return from subroutine
			return KindRts
		}

		// 0NNN - Call machine code routine, ignored
		return KindSys

	case 0x1000:
		// 1NNN - Jumps to address NNN
		return KindJmp

	case 0x2000:
		// 2NNN - Calls subroutine at NNN
		return KindJsr

	case 0x3000:
		// 3XNN - Skips the next instruction if VX equals NN
		return KindSkeqImm

	case 0x4000:
		// 4XNN - Skips the next instruction if VX does not equal NN
		return KindSkneImm

	case 0x5000:
		if op.N() == 0 {
			// 5XY0 - Skips the next instruction if VX equals VY
			return KindSkeqReg
		}

	case 0x6000:
		// 6XNN - Sets VX to NN
		return KindMovImm

	case 0x7000:
		// 7XNN - Adds NN to VX, no carry
		return KindAddImm

	case 0x8000:
		switch op.N() {
		case 0x0:
			// 8XY0 - Sets VX to the value of VY
			return KindMovReg

		case 0x1:
			// 8XY1 - Sets VX to (VX OR VY)
			return KindOr

		case 0x2:
			// 8XY2 - Sets VX to (VX AND VY)
			return KindAnd

		case 0x3:
			// 8XY3 - Sets VX to (VX XOR VY)
			return KindXor

		case 0x4:
			// 8XY4 - Adds VY to VX. VF is set to 1 when there's a carry
			return KindAddReg

		case 0x5:
			// 8XY5 - VY is subtracted from VX. VF is set to 0 when there's a borrow
			return KindSub

		case 0x6:
			// 8XY6 - Shifts VX right by one, VF gets the bit shifted out
			return KindShr

		case 0x7:
			// 8XY7 - Sets VX to VY minus VX. VF is set to 0 when there's a borrow
			return KindRsb

		case 0xE:
			// 8XYE - Shifts VX left by one, VF gets the bit shifted out
			return KindShl
		}

	case 0x9000:
		if op.N() == 0 {
			// 9XY0 - Skips the next instruction if VX doesn't equal VY
			return KindSkneReg
		}

	case 0xA000:
		// ANNN - Sets I to the address NNN
		return KindMvi

	case 0xB000:
		// BNNN - Jumps to the address NNN plus V0
		return KindJmi

	case 0xC000:
		// CXNN - Sets VX to a random byte masked by NN
		return KindRand

	case 0xD000:
		// DXYN - Draws an 8xN sprite from [I, I+N) at (VX, VY)
		return KindSprite

	case 0xE000:
		switch op.NN() {
		case 0x9E:
			// EX9E - Skips the next instruction if the key stored in VX is pressed
			return KindSkpr

		case 0xA1:
			// EXA1 - Skips the next instruction if the key stored in VX isn't pressed
			return KindSkup
		}

	case 0xF000:
		switch op.NN() {
		case 0x07:
			// FX07 - Sets VX to the value of the delay timer
			return KindGdelay

		case 0x0A:
			// FX0A - A key press is awaited, and then stored in VX
			return KindKey

		case 0x15:
			// FX15 - Sets the delay timer to VX
			return KindSdelay

		case 0x18:
			// FX18 - Sets the sound timer to VX
			return KindSsound

		case 0x1E:
			// FX1E - Adds VX to I
			return KindAdi

		case 0x29:
			// FX29 - Sets I to the font glyph for the hex digit in VX
			return KindFont

		case 0x33:
			// FX33 - Stores the BCD representation of VX at I, I+1, I+2
			return KindBcd

		case 0x55:
			// FX55 - Stores V0 to VX in memory starting at address I
			return KindStr

		case 0x65:
			// FX65 - Reads memory starting at address I into V0...VX
			return KindLdr
		}
	}

	return KindUnknown
}

var mnemonics = [kindCount]string{
	KindUnknown: "unknown",
	KindCls:     "cls",
	KindRts:     "rts",
	KindSys:     "sys",
	KindJmp:     "jmp",
	KindJsr:     "jsr",
	KindSkeqImm: "skeq",
	KindSkneImm: "skne",
	KindSkeqReg: "skeq",
	KindMovImm:  "mov",
	KindAddImm:  "add",
	KindMovReg:  "mov",
	KindOr:      "or",
	KindAnd:     "and",
	KindXor:     "xor",
	KindAddReg:  "add",
	KindSub:     "sub",
	KindShr:     "shr",
	KindRsb:     "rsb",
	KindShl:     "shl",
	KindSkneReg: "skne",
	KindMvi:     "mvi",
	KindJmi:     "jmi",
	KindRand:    "rand",
	KindSprite:  "sprite",
	KindSkpr:    "skpr",
	KindSkup:    "skup",
	KindGdelay:  "gdelay",
	KindKey:     "key",
	KindSdelay:  "sdelay",
	KindSsound:  "ssound",
	KindAdi:     "adi",
	KindFont:    "font",
	KindBcd:     "bcd",
	KindStr:     "str",
	KindLdr:     "ldr",
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return mnemonics[k]
}

// String renders the instruction in assembler syntax, e.g. "add v3, 16".
func (ins Instruction) String() string {
	name := ins.Kind.String()

	switch ins.Kind {
	case KindCls, KindRts:
		return name

	case KindSys, KindJmp, KindJsr, KindMvi, KindJmi:
		return fmt.Sprintf("%s 0x%04x", name, ins.NNN)

	case KindSkeqImm, KindSkneImm, KindMovImm, KindAddImm:
		return fmt.Sprintf("%s v%x, %d", name, ins.X, ins.NN)

	case KindRand:
		return fmt.Sprintf("%s v%x, 0x%02x", name, ins.X, ins.NN)

	case KindSkeqReg, KindSkneReg, KindMovReg, KindOr, KindAnd, KindXor, KindAddReg, KindSub, KindRsb:
		return fmt.Sprintf("%s v%x, v%x", name, ins.X, ins.Y)

	case KindShr, KindShl, KindSkpr, KindSkup, KindGdelay, KindKey, KindSdelay, KindSsound,
		KindAdi, KindFont, KindBcd:
		return fmt.Sprintf("%s v%x", name, ins.X)

	case KindSprite:
		return fmt.Sprintf("%s v%x, v%x, %d", name, ins.X, ins.Y, ins.N)

	case KindStr, KindLdr:
		return fmt.Sprintf("%s v0-v%x", name, ins.X)
	}

	return fmt.Sprintf("%s %s", name, ins.Opcode)
}
