package vm

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func rom(words ...uint16) []byte {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return b
}

func newTestVM(t *testing.T, opts []Option, words ...uint16) *VM {
	t.Helper()

	vm := New(opts...)
	assert.NoError(t, vm.Load(rom(words...)))
	return vm
}

func steps(t *testing.T, vm *VM, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		assert.NoError(t, vm.Step())
	}
}

func TestMovImm_OnlyTargetChanges(t *testing.T) {
	for x := uint16(0); x < RegisterCount; x++ {
		kk := 0xA0 | x
		vm := newTestVM(t, nil, 0x6000|x<<8|kk)
		steps(t, vm, 1)

		for i := 0; i < RegisterCount; i++ {
			if i == int(x) {
				assert.Equal(t, uint8(kk), vm.Register(i))
			} else {
				assert.Equal(t, uint8(0), vm.Register(i))
			}
		}
		assert.Equal(t, ProgramStart+2, vm.PC())
	}
}

func TestAddImm_WrapsWithoutCarry(t *testing.T) {
	vm := newTestVM(t, nil,
		0x60FF, // mov v0, 0xff
		0x7001, // add v0, 1
	)
	steps(t, vm, 2)

	assert.Equal(t, uint8(0x00), vm.Register(0))
	assert.Equal(t, uint8(0), vm.Register(0xF))
}

func TestALU(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy uint16
		op     uint16
		result uint8
		flag   uint8
	}{
		{"or", 0xF0, 0x0F, 0x8011, 0xFF, 0xAA},
		{"and", 0xF0, 0x3C, 0x8012, 0x30, 0xAA},
		{"xor", 0xFF, 0x0F, 0x8013, 0xF0, 0xAA},
		{"add with carry", 0xFF, 0x01, 0x8014, 0x00, 1},
		{"add without carry", 0x10, 0x20, 0x8014, 0x30, 0},
		{"sub no borrow", 0x05, 0x03, 0x8015, 0x02, 1},
		{"sub equal", 0x05, 0x05, 0x8015, 0x00, 0},
		{"sub borrow", 0x03, 0x05, 0x8015, 0xFE, 0},
		{"shr odd", 0x05, 0x00, 0x8016, 0x02, 1},
		{"shr even", 0x04, 0x00, 0x8016, 0x02, 0},
		{"rsb no borrow", 0x03, 0x05, 0x8017, 0x02, 1},
		{"rsb borrow", 0x05, 0x03, 0x8017, 0xFE, 0},
		{"rsb equal", 0x05, 0x05, 0x8017, 0x00, 0},
		{"shl high bit", 0x81, 0x00, 0x801E, 0x02, 1},
		{"shl low bits", 0x41, 0x00, 0x801E, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil,
				0x6000|tt.vx,
				0x6100|tt.vy,
				0x6FAA, // logic ops leave the flag alone
				tt.op,
			)
			steps(t, vm, 4)

			assert.Equal(t, tt.result, vm.Register(0))
			assert.Equal(t, tt.flag, vm.Register(0xF))
		})
	}
}

func TestALU_ResultWinsOverFlagInVF(t *testing.T) {
	tests := []struct {
		name string
		vf   uint16
		v1   uint16
		op   uint16
		want uint8
	}{
		{"add", 0xFF, 0x01, 0x8F14, 0x00},
		{"sub", 0x05, 0x03, 0x8F15, 0x02},
		{"shr", 0x05, 0x00, 0x8F16, 0x02},
		{"rsb", 0x03, 0x05, 0x8F17, 0x02},
		{"shl", 0x81, 0x00, 0x8F1E, 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil,
				0x6F00|tt.vf,
				0x6100|tt.v1,
				tt.op,
			)
			steps(t, vm, 3)

			assert.Equal(t, tt.want, vm.Register(0xF))
		})
	}
}

func TestMovReg(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6142, // mov v1, 0x42
		0x8510, // mov v5, v1
	)
	steps(t, vm, 2)

	assert.Equal(t, uint8(0x42), vm.Register(5))
	assert.Equal(t, uint8(0x42), vm.Register(1))
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		skip bool
	}{
		{"skeq imm taken", 0x3007, true},
		{"skeq imm not taken", 0x3008, false},
		{"skne imm taken", 0x4008, true},
		{"skne imm not taken", 0x4007, false},
		{"skeq reg taken", 0x5010, true},
		{"skeq reg not taken", 0x5020, false},
		{"skne reg taken", 0x9020, true},
		{"skne reg not taken", 0x9010, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil,
				0x6007, // mov v0, 7
				0x6107, // mov v1, 7
				0x6209, // mov v2, 9
				tt.op,
			)
			steps(t, vm, 4)

			want := ProgramStart + 4*InstructionSize
			if tt.skip {
				want += InstructionSize
			}
			assert.Equal(t, want, vm.PC())
		})
	}
}

func TestJumps(t *testing.T) {
	vm := newTestVM(t, nil, 0x1300)
	steps(t, vm, 1)
	assert.Equal(t, uint16(0x300), vm.PC())

	vm = newTestVM(t, nil,
		0x6004, // mov v0, 4
		0xB300, // jmi 0x300
	)
	steps(t, vm, 2)
	assert.Equal(t, uint16(0x304), vm.PC())
}

func TestCallReturn(t *testing.T) {
	vm := newTestVM(t, nil,
		0x2206, // 0x200 jsr 0x206
		0x0000, // 0x202
		0x0000, // 0x204
		0x00EE, // 0x206 rts
	)

	steps(t, vm, 1)
	assert.Equal(t, uint16(0x206), vm.PC())
	assert.Equal(t, 1, vm.StackDepth())

	steps(t, vm, 1)
	assert.Equal(t, uint16(0x202), vm.PC())
	assert.Equal(t, 0, vm.StackDepth())
}

func TestStackUnderflow(t *testing.T) {
	vm := newTestVM(t, nil, 0x00EE)

	err := vm.Step()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	var stepErr *StepError
	assert.True(t, errors.As(err, &stepErr))
	assert.Equal(t, ProgramStart, stepErr.PC)
	assert.Equal(t, Opcode(0x00EE), stepErr.Opcode)
}

func TestStackOverflow(t *testing.T) {
	vm := newTestVM(t, nil, 0x2200) // jsr 0x200, forever

	steps(t, vm, StackDepth)
	assert.Equal(t, StackDepth, vm.StackDepth())

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackDepth, vm.StackDepth())
}

func TestDeepCallChain(t *testing.T) {
	vm := newTestVM(t, nil, 0x2200) // jsr 0x200, forever

	steps(t, vm, 17)
	assert.Equal(t, 17, vm.StackDepth())
	assert.Equal(t, ProgramStart, vm.PC())
}

func TestUnknownOpcode(t *testing.T) {
	vm := newTestVM(t, nil, 0x6001, 0x5121)
	steps(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrUnknownOpcode))

	var stepErr *StepError
	assert.True(t, errors.As(err, &stepErr))
	assert.Equal(t, uint16(0x202), stepErr.PC)
	assert.Equal(t, Opcode(0x5121), stepErr.Opcode)
	assert.Equal(t, "pc 0x0202, opcode 0x5121: unknown opcode", err.Error())
}

func TestSysIsIgnored(t *testing.T) {
	vm := newTestVM(t, nil, 0x0123)
	steps(t, vm, 1)

	assert.Equal(t, ProgramStart+InstructionSize, vm.PC())
}

func TestDelayTimer_CountsDownToZero(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6005, // mov v0, 5
		0xF015, // sdelay v0
		0x1204, // jmp 0x204
	)
	steps(t, vm, 2)
	assert.Equal(t, uint8(5), vm.DelayTimer())

	for want := 4; want >= 0; want-- {
		steps(t, vm, 1)
		assert.Equal(t, uint8(want), vm.DelayTimer())
	}

	steps(t, vm, 1)
	assert.Equal(t, uint8(0), vm.DelayTimer())
}

func TestSoundTimer_CountsDownToZero(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6002, // mov v0, 2
		0xF018, // ssound v0
		0x1204, // jmp 0x204
	)
	steps(t, vm, 2)
	assert.Equal(t, uint8(2), vm.SoundTimer())

	steps(t, vm, 3)
	assert.Equal(t, uint8(0), vm.SoundTimer())
}

func TestGetDelay(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6009, // mov v0, 9
		0xF015, // sdelay v0
		0xF107, // gdelay v1
	)
	steps(t, vm, 3)

	// the timer ticks once before gdelay reads it
	assert.Equal(t, uint8(8), vm.Register(1))
}

func TestFont(t *testing.T) {
	vm := newTestVM(t, nil,
		0x600A, // mov v0, 10
		0xF029, // font v0
	)
	steps(t, vm, 2)

	assert.Equal(t, uint16(FontOffset+5*0xA), vm.Index())
	assert.Equal(t, chip8Font[50:55], vm.Memory()[vm.Index():vm.Index()+5])
}

func TestFont_UndefinedHexadecimal(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6010, // mov v0, 16
		0xF029, // font v0
	)
	steps(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrUndefinedHexadecimal))
}

func TestBCD(t *testing.T) {
	vm := newTestVM(t, nil,
		0x60FE, // mov v0, 254
		0xA300, // mvi 0x300
		0xF033, // bcd v0
	)
	steps(t, vm, 3)

	assert.Equal(t, []uint8{2, 5, 4}, vm.Memory()[0x300:0x303])
	assert.Equal(t, uint16(0x300), vm.Index())
}

func TestBCD_OutOfRange(t *testing.T) {
	vm := newTestVM(t, nil,
		0xAFFE, // mvi 0xffe
		0xF033, // bcd v0
	)
	steps(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	vm := newTestVM(t, nil,
		0x6011, 0x6122, 0x6233, 0x6344, // v0..v3
		0xA300, // mvi 0x300
		0xF355, // str v0-v3
		0x6000, 0x6100, 0x6200, 0x6300,
		0xF365, // ldr v0-v3
	)
	steps(t, vm, 11)

	assert.Equal(t, uint8(0x11), vm.Register(0))
	assert.Equal(t, uint8(0x22), vm.Register(1))
	assert.Equal(t, uint8(0x33), vm.Register(2))
	assert.Equal(t, uint8(0x44), vm.Register(3))
	assert.Equal(t, uint8(0x00), vm.Register(4))
	assert.Equal(t, []uint8{0x11, 0x22, 0x33, 0x44, 0x00}, vm.Memory()[0x300:0x305])
	assert.Equal(t, uint16(0x300), vm.Index())
}

func TestStore_IncrementsIndexQuirk(t *testing.T) {
	vm := newTestVM(t, []Option{WithLoadStoreIncrementsIndex()},
		0xA300, // mvi 0x300
		0xF355, // str v0-v3
		0xF165, // ldr v0-v1
	)
	steps(t, vm, 2)
	assert.Equal(t, uint16(0x304), vm.Index())

	steps(t, vm, 1)
	assert.Equal(t, uint16(0x306), vm.Index())
}

func TestAddIndex(t *testing.T) {
	vm := newTestVM(t, nil,
		0xA100, // mvi 0x100
		0x6020, // mov v0, 0x20
		0xF01E, // adi v0
	)
	steps(t, vm, 3)

	assert.Equal(t, uint16(0x120), vm.Index())
	assert.Equal(t, uint8(0), vm.Register(0xF))
}

func TestRand_UsesInjectedSource(t *testing.T) {
	src := RandomFunc(func() uint8 { return 0xAB })
	vm := newTestVM(t, []Option{WithRandomSource(src)}, 0xC00F)
	steps(t, vm, 1)

	assert.Equal(t, uint8(0x0B), vm.Register(0))
}

func TestRand_SeedIsDeterministic(t *testing.T) {
	program := []uint16{0xC0FF, 0xC1FF, 0xC2FF, 0xC3FF}
	a := newTestVM(t, []Option{WithSeed(42)}, program...)
	b := newTestVM(t, []Option{WithSeed(42)}, program...)
	steps(t, a, 4)
	steps(t, b, 4)

	for i := 0; i < 4; i++ {
		assert.Equal(t, a.Register(i), b.Register(i))
	}
}

func TestKeySkips(t *testing.T) {
	tests := []struct {
		name    string
		op      uint16
		pressed bool
		skip    bool
	}{
		{"skpr pressed", 0xE09E, true, true},
		{"skpr released", 0xE09E, false, false},
		{"skup pressed", 0xE0A1, true, false},
		{"skup released", 0xE0A1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, nil, 0x6005, tt.op)
			vm.SetKey(Key5, tt.pressed)
			steps(t, vm, 2)

			want := ProgramStart + 2*InstructionSize
			if tt.skip {
				want += InstructionSize
			}
			assert.Equal(t, want, vm.PC())
		})
	}
}

func TestKeySkips_WrongKey(t *testing.T) {
	for _, op := range []uint16{0xE09E, 0xE0A1} {
		vm := newTestVM(t, nil, 0x6010, op)
		steps(t, vm, 1)

		err := vm.Step()
		assert.True(t, errors.Is(err, ErrWrongKey))
	}
}

func TestWaitForKey(t *testing.T) {
	vm := newTestVM(t, nil, 0xF30A) // key v3

	steps(t, vm, 3)
	assert.Equal(t, ProgramStart, vm.PC())

	vm.SetKey(KeyB, true)
	vm.SetKey(KeyE, true)
	steps(t, vm, 1)

	assert.Equal(t, uint8(0xB), vm.Register(3))
	assert.Equal(t, ProgramStart+InstructionSize, vm.PC())
}

func TestFetch_OutOfRange(t *testing.T) {
	vm := newTestVM(t, nil, 0x1FFF) // jmp 0xfff
	steps(t, vm, 1)

	err := vm.Step()
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))

	_, err = vm.Peek()
	assert.True(t, errors.Is(err, ErrAddressOutOfRange))
}
