package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

const (
	MemorySize    = 4096
	StackDepth    = 48
	RegisterCount = 16
	KeyCount      = 16

	ProgramStart    = uint16(0x200)
	ProgramEnd      = uint16(0xEA0)
	InstructionSize = 2

	// MaxROMSize is the largest ROM that fits the program area.
	MaxROMSize = int(ProgramEnd - ProgramStart)

	defaultCyclesPerFrame = 1
)

type VM struct {
	memory    [MemorySize]uint8    // Memory (4k), display at DisplayOffset
	registers [RegisterCount]uint8 // V registers (V0-VF)

	stack []uint16 // Return addresses

	pc    uint16 // Program counter
	index uint16 // Index register

	delayTimer uint8 // Delay timer
	soundTimer uint8 // Sound timer

	keypad   [KeyCount]bool // Keypad
	drawFlag bool           // Indicates a draw has occurred

	random         RandomSource
	cyclesPerFrame int
	quirkIndex     bool
}

// Option configures a VM.
type Option func(*VM)

// WithRandomSource replaces the source used by CXNN.
func WithRandomSource(r RandomSource) Option {
	return func(vm *VM) {
		vm.random = r
	}
}

// WithSeed makes CXNN deterministic.
func WithSeed(seed uint64) Option {
	return WithRandomSource(NewRandomSource(seed))
}

// WithCyclesPerFrame sets how many instructions RunFrame executes.
func WithCyclesPerFrame(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.cyclesPerFrame = n
		}
	}
}

// WithLoadStoreIncrementsIndex makes FX55 and FX65 leave I pointing past
// the last register transferred, as the COSMAC VIP interpreter did.
func WithLoadStoreIncrementsIndex() Option {
	return func(vm *VM) {
		vm.quirkIndex = true
	}
}

func New(opts ...Option) *VM {
	vm := &VM{
		stack:          make([]uint16, 0, StackDepth),
		pc:             ProgramStart,
		random:         globalSource{},
		cyclesPerFrame: defaultCyclesPerFrame,
	}

	for _, opt := range opts {
		opt(vm)
	}

	return vm
}

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

// Load copies the program to ProgramStart, installs the font and blanks the
// display. It must be called once, before the first Step.
func (vm *VM) Load(program []byte) error {
	if len(program) > MaxROMSize {
		return fmt.Errorf("%w: program is %d bytes, at most %d fit", ErrMemoryFull, len(program), MaxROMSize)
	}

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontOffset), "n", len(chip8Font))
	copy(vm.memory[FontOffset:], chip8Font[:])

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(program))
	copy(vm.memory[ProgramStart:], program)

	vm.clearScreen()
	return nil
}

// Framebuffer returns the packed monochrome display, ScreenStride bytes per
// row, most significant bit leftmost. The slice aliases VM memory and must
// not be modified.
func (vm *VM) Framebuffer() []uint8 {
	return vm.framebuffer()
}

// Redraw reports whether the framebuffer changed since the previous call.
func (vm *VM) Redraw() bool {
	redraw := vm.drawFlag
	vm.drawFlag = false
	return redraw
}

func (vm *VM) SetKey(key Key, pressed bool) {
	if int(key) >= KeyCount {
		slog.Warn("ignore invalid key", "key", int(key))
		return
	}
	vm.keypad[key] = pressed
}

func (vm *VM) ResetKeyboard() {
	vm.keypad = [KeyCount]bool{}
}

func (vm *VM) keyDown(key Key) {
	vm.SetKey(key, true)
}

func (vm *VM) keyUp(key Key) {
	vm.SetKey(key, false)
}

func (vm *VM) PC() uint16 { return vm.pc }

func (vm *VM) Index() uint16 { return vm.index }

// Register returns Vi. It panics if i is not in 0..15.
func (vm *VM) Register(i int) uint8 { return vm.registers[i] }

func (vm *VM) DelayTimer() uint8 { return vm.delayTimer }

func (vm *VM) SoundTimer() uint8 { return vm.soundTimer }

func (vm *VM) StackDepth() int { return len(vm.stack) }

// Memory returns the whole address space. It must not be modified.
func (vm *VM) Memory() []uint8 { return vm.memory[:] }

// Peek decodes the instruction at PC without executing it.
func (vm *VM) Peek() (Instruction, error) {
	op, err := vm.fetchOpcode()
	if err != nil {
		return Instruction{}, err
	}
	return Decode(op), nil
}

// Step executes exactly one instruction and ticks both timers.
func (vm *VM) Step() error {
	pc := vm.pc

	op, err := vm.fetchOpcode()
	if err != nil {
		return &StepError{PC: pc, Err: err}
	}

	ins := Decode(op)

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", pc),
			"opcode", op.String(),
			"instr", ins.String(),
		)
	}

	vm.pc += InstructionSize

	if vm.delayTimer > 0 {
		vm.delayTimer--
	}

	if vm.soundTimer > 0 {
		vm.soundTimer--
	}

	if err := vm.execute(ins); err != nil {
		return &StepError{PC: pc, Opcode: op, Err: err}
	}

	return nil
}

func (vm *VM) fetchOpcode() (Opcode, error) {
	if int(vm.pc)+1 >= MemorySize {
		return 0, fmt.Errorf("%w: fetch at 0x%04x", ErrAddressOutOfRange, vm.pc)
	}

	hi := vm.memory[vm.pc]
	lo := vm.memory[vm.pc+1]

	return Opcode(uint16(hi)<<8 | uint16(lo)), nil // Op code is two bytes
}

// DumpMemory writes the address space as hex, 16 bytes per line.
func (vm *VM) DumpMemory(w io.Writer) error {
	for i := 0; i < MemorySize; i += 16 {
		if _, err := fmt.Fprintf(w, "0x%04X:", i); err != nil {
			return err
		}

		for _, b := range vm.memory[i : i+16] {
			if _, err := fmt.Fprintf(w, " %02x", b); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
