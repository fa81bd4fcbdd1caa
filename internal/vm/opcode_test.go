package vm

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestOpcode_Fields(t *testing.T) {
	op := Opcode(0xD1A5)

	assert.Equal(t, [4]uint8{0xD, 0x1, 0xA, 0x5}, op.Nibbles())
	assert.Equal(t, uint16(0x01A5), op.NNN())
	assert.Equal(t, uint8(0xA5), op.NN())
	assert.Equal(t, uint8(0x5), op.N())
	assert.Equal(t, uint8(0x1), op.X())
	assert.Equal(t, uint8(0xA), op.Y())
	assert.Equal(t, "0xD1A5", op.String())
}

func TestOpcode_FieldsInRange(t *testing.T) {
	for w := 0; w <= 0xFFFF; w += 0x0111 {
		op := Opcode(w)
		for _, n := range op.Nibbles() {
			assert.True(t, n < 16)
		}
		assert.True(t, op.X() < RegisterCount)
		assert.True(t, op.Y() < RegisterCount)
		assert.True(t, op.NNN() < MemorySize)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		opcode Opcode
		kind   Kind
		text   string
	}{
		{0x00E0, KindCls, "cls"},
		{0x00EE, KindRts, "rts"},
		{0x0123, KindSys, "sys 0x0123"},
		{0x1234, KindJmp, "jmp 0x0234"},
		{0x2345, KindJsr, "jsr 0x0345"},
		{0x3A10, KindSkeqImm, "skeq va, 16"},
		{0x4B20, KindSkneImm, "skne vb, 32"},
		{0x5120, KindSkeqReg, "skeq v1, v2"},
		{0x6C7F, KindMovImm, "mov vc, 127"},
		{0x7101, KindAddImm, "add v1, 1"},
		{0x8120, KindMovReg, "mov v1, v2"},
		{0x8121, KindOr, "or v1, v2"},
		{0x8122, KindAnd, "and v1, v2"},
		{0x8123, KindXor, "xor v1, v2"},
		{0x8124, KindAddReg, "add v1, v2"},
		{0x8125, KindSub, "sub v1, v2"},
		{0x8126, KindShr, "shr v1"},
		{0x8127, KindRsb, "rsb v1, v2"},
		{0x812E, KindShl, "shl v1"},
		{0x9120, KindSkneReg, "skne v1, v2"},
		{0xA456, KindMvi, "mvi 0x0456"},
		{0xB456, KindJmi, "jmi 0x0456"},
		{0xC30F, KindRand, "rand v3, 0x0f"},
		{0xD125, KindSprite, "sprite v1, v2, 5"},
		{0xE39E, KindSkpr, "skpr v3"},
		{0xE3A1, KindSkup, "skup v3"},
		{0xF407, KindGdelay, "gdelay v4"},
		{0xF40A, KindKey, "key v4"},
		{0xF415, KindSdelay, "sdelay v4"},
		{0xF418, KindSsound, "ssound v4"},
		{0xF41E, KindAdi, "adi v4"},
		{0xF429, KindFont, "font v4"},
		{0xF433, KindBcd, "bcd v4"},
		{0xF455, KindStr, "str v0-v4"},
		{0xF465, KindLdr, "ldr v0-v4"},

		{0x5121, KindUnknown, "unknown 0x5121"},
		{0x8128, KindUnknown, "unknown 0x8128"},
		{0x912F, KindUnknown, "unknown 0x912F"},
		{0xE300, KindUnknown, "unknown 0xE300"},
		{0xF4FF, KindUnknown, "unknown 0xF4FF"},
	}

	for _, tt := range tests {
		t.Run(tt.opcode.String(), func(t *testing.T) {
			ins := Decode(tt.opcode)

			assert.Equal(t, tt.kind, ins.Kind)
			assert.Equal(t, tt.opcode, ins.Opcode)
			assert.Equal(t, tt.text, ins.String())
		})
	}
}

func TestDecode_EveryKindHasMnemonicAndHandler(t *testing.T) {
	for k := KindUnknown; k < kindCount; k++ {
		assert.True(t, mnemonics[k] != "")
		assert.True(t, instructions[k] != nil)
	}
}
