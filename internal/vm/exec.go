package vm

import (
	"fmt"
	"log/slog"
)

// PC has already been advanced past the instruction when these run, so
// jumps assign it and skips add one more InstructionSize.
type executeFunc func(vm *VM, ins Instruction) error

var instructions = [kindCount]executeFunc{
	KindUnknown: execUnknown,
	KindCls:     execCls,
	KindRts:     execRts,
	KindSys:     execSys,
	KindJmp:     execJmp,
	KindJsr:     execJsr,
	KindSkeqImm: execSkeqImm,
	KindSkneImm: execSkneImm,
	KindSkeqReg: execSkeqReg,
	KindMovImm:  execMovImm,
	KindAddImm:  execAddImm,
	KindMovReg:  execMovReg,
	KindOr:      execOr,
	KindAnd:     execAnd,
	KindXor:     execXor,
	KindAddReg:  execAddReg,
	KindSub:     execSub,
	KindShr:     execShr,
	KindRsb:     execRsb,
	KindShl:     execShl,
	KindSkneReg: execSkneReg,
	KindMvi:     execMvi,
	KindJmi:     execJmi,
	KindRand:    execRand,
	KindSprite:  execSprite,
	KindSkpr:    execSkpr,
	KindSkup:    execSkup,
	KindGdelay:  execGdelay,
	KindKey:     execKey,
	KindSdelay:  execSdelay,
	KindSsound:  execSsound,
	KindAdi:     execAdi,
	KindFont:    execFont,
	KindBcd:     execBcd,
	KindStr:     execStr,
	KindLdr:     execLdr,
}

func (vm *VM) execute(ins Instruction) error {
	if ins.Kind >= kindCount || instructions[ins.Kind] == nil {
		return execUnknown(vm, ins)
	}
	return instructions[ins.Kind](vm, ins)
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.pc += InstructionSize
	}
}

// setFlag writes VF. ALU handlers call it before storing the result, so
// the result wins when X is F.
func (vm *VM) setFlag(set bool) {
	vm.registers[0xF] = 0
	if set {
		vm.registers[0xF] = 1
	}
}

// checkRange verifies that [start, start+n) lies inside memory.
func checkRange(start uint16, n int) error {
	if int(start)+n > MemorySize {
		return fmt.Errorf("%w: 0x%04x+%d", ErrAddressOutOfRange, start, n)
	}
	return nil
}

func execUnknown(_ *VM, _ Instruction) error {
	return ErrUnknownOpcode
}

// 00E0	cls	Clear the screen
func execCls(vm *VM, _ Instruction) error {
	vm.clearScreen()
	return nil
}

// 00EE	rts	return from subroutine call
func execRts(vm *VM, _ Instruction) error {
	if len(vm.stack) == 0 {
		return ErrStackUnderflow
	}

	top := len(vm.stack) - 1
	vm.pc = vm.stack[top]
	vm.stack = vm.stack[:top]
	return nil
}

// 0nnn	sys xxx	machine code routine, ignored by modern interpreters
func execSys(_ *VM, ins Instruction) error {
	slog.Debug("ignore sys call", "addr", fmt.Sprintf("0x%04x", ins.NNN))
	return nil
}

// 1xxx	jmp xxx	jump to address xxx
func execJmp(vm *VM, ins Instruction) error {
	vm.pc = ins.NNN
	return nil
}

// 2xxx	jsr xxx	jump to subroutine at address xxx
func execJsr(vm *VM, ins Instruction) error {
	if len(vm.stack) >= StackDepth {
		return ErrStackOverflow
	}

	vm.stack = append(vm.stack, vm.pc)
	vm.pc = ins.NNN
	return nil
}

// 3rxx	skeq vr,xx	skip if register r = constant
func execSkeqImm(vm *VM, ins Instruction) error {
	vm.skipIf(vm.registers[ins.X] == ins.NN)
	return nil
}

// 4rxx	skne vr,xx	skip if register r <> constant
func execSkneImm(vm *VM, ins Instruction) error {
	vm.skipIf(vm.registers[ins.X] != ins.NN)
	return nil
}

// 5ry0	skeq vr,vy	skip if register r = register y
func execSkeqReg(vm *VM, ins Instruction) error {
	vm.skipIf(vm.registers[ins.X] == vm.registers[ins.Y])
	return nil
}

// 6rxx	mov vr,xx	move constant to register r
func execMovImm(vm *VM, ins Instruction) error {
	vm.registers[ins.X] = ins.NN
	return nil
}

// 7rxx	add vr,xx	add constant to register r	No carry generated
func execAddImm(vm *VM, ins Instruction) error {
	sum := uint16(vm.registers[ins.X]) + uint16(ins.NN)
	vm.registers[ins.X] = uint8(sum)
	return nil
}

// 8ry0	mov vr,vy	move register vy into vr
func execMovReg(vm *VM, ins Instruction) error {
	vm.registers[ins.X] = vm.registers[ins.Y]
	return nil
}

// 8ry1	or rx,ry	or register vy into register vx
func execOr(vm *VM, ins Instruction) error {
	vm.registers[ins.X] |= vm.registers[ins.Y]
	return nil
}

// 8ry2	and rx,ry	and register vy into register vx
func execAnd(vm *VM, ins Instruction) error {
	vm.registers[ins.X] &= vm.registers[ins.Y]
	return nil
}

// 8ry3	xor rx,ry	exclusive or register ry into register rx
func execXor(vm *VM, ins Instruction) error {
	vm.registers[ins.X] ^= vm.registers[ins.Y]
	return nil
}

// 8ry4	add vr,vy	add register vy to vr,carry in vf
func execAddReg(vm *VM, ins Instruction) error {
	sum := uint16(vm.registers[ins.X]) + uint16(vm.registers[ins.Y])

	vm.setFlag(sum > 0xFF)
	vm.registers[ins.X] = uint8(sum)
	return nil
}

// 8ry5	sub vr,vy	subtract register vy from vr	vf set to 1 if vr > vy
func execSub(vm *VM, ins Instruction) error {
	x, y := vm.registers[ins.X], vm.registers[ins.Y]

	vm.setFlag(x > y)
	vm.registers[ins.X] = uint8(int16(x) - int16(y))
	return nil
}

// 8r06	shr vr	shift register vr right, bit 0 goes into register vf
func execShr(vm *VM, ins Instruction) error {
	x := vm.registers[ins.X]

	vm.setFlag(x&0x01 != 0)
	vm.registers[ins.X] = x >> 1
	return nil
}

// 8ry7	rsb vr,vy	subtract register vr from register vy, result in vr	vf set to 1 if vy > vr
func execRsb(vm *VM, ins Instruction) error {
	x, y := vm.registers[ins.X], vm.registers[ins.Y]

	vm.setFlag(y > x)
	vm.registers[ins.X] = uint8(int16(y) - int16(x))
	return nil
}

// 8r0e	shl vr	shift register vr left, bit 7 goes into register vf
func execShl(vm *VM, ins Instruction) error {
	x := vm.registers[ins.X]

	vm.setFlag(x&0x80 != 0)
	vm.registers[ins.X] = uint8(uint16(x) << 1)
	return nil
}

// 9ry0	skne vr,vy	skip if register r <> register y
func execSkneReg(vm *VM, ins Instruction) error {
	vm.skipIf(vm.registers[ins.X] != vm.registers[ins.Y])
	return nil
}

// axxx	mvi xxx	Load index register with constant xxx
func execMvi(vm *VM, ins Instruction) error {
	vm.index = ins.NNN
	return nil
}

// bxxx	jmi xxx	Jump to address xxx+register v0
func execJmi(vm *VM, ins Instruction) error {
	vm.pc = ins.NNN + uint16(vm.registers[0])
	return nil
}

// crxx	rand vr,xx	vr = random byte AND xx
func execRand(vm *VM, ins Instruction) error {
	vm.registers[ins.X] = vm.random.Byte() & ins.NN
	return nil
}

// drys	sprite rx,ry,s	Draw sprite at screen location rx,ry height s
// Sprites stored in memory at location in index register, 8 bits wide.
// If when drawn, clears a pixel, vf is set to 1 otherwise it is zero.
// All drawing is xor drawing (e.g. it toggles the screen pixels)
func execSprite(vm *VM, ins Instruction) error {
	return vm.drawSprite(ins.X, ins.Y, ins.N)
}

// ek9e	skpr k	skip if key (register rk) pressed
func execSkpr(vm *VM, ins Instruction) error {
	key := vm.registers[ins.X]
	if int(key) >= KeyCount {
		return fmt.Errorf("%w: %d", ErrWrongKey, key)
	}

	vm.skipIf(vm.keypad[key])
	return nil
}

// eka1	skup k	skip if key (register rk) not pressed
func execSkup(vm *VM, ins Instruction) error {
	key := vm.registers[ins.X]
	if int(key) >= KeyCount {
		return fmt.Errorf("%w: %d", ErrWrongKey, key)
	}

	vm.skipIf(!vm.keypad[key])
	return nil
}

// fr07	gdelay vr	get delay timer into vr
func execGdelay(vm *VM, ins Instruction) error {
	vm.registers[ins.X] = vm.delayTimer
	return nil
}

// fr0a	key vr	wait for keypress, put key in register vr
func execKey(vm *VM, ins Instruction) error {
	for i, pressed := range vm.keypad {
		if pressed {
			vm.registers[ins.X] = uint8(i)
			return nil
		}
	}

	// Nothing pressed: run this instruction again on the next step.
	vm.pc -= InstructionSize
	return nil
}

// fr15	sdelay vr	set the delay timer to vr
func execSdelay(vm *VM, ins Instruction) error {
	vm.delayTimer = vm.registers[ins.X]
	return nil
}

// fr18	ssound vr	set the sound timer to vr
func execSsound(vm *VM, ins Instruction) error {
	vm.soundTimer = vm.registers[ins.X]
	return nil
}

// fr1e	adi vr	add register vr to the index register
func execAdi(vm *VM, ins Instruction) error {
	vm.index += uint16(vm.registers[ins.X])
	return nil
}

// fr29	font vr	point I to the sprite for hexadecimal character in vr	Sprite is 5 bytes high
func execFont(vm *VM, ins Instruction) error {
	digit := vm.registers[ins.X]
	if digit >= FontGlyphCount {
		return fmt.Errorf("%w: expected a value under 16, got %d", ErrUndefinedHexadecimal, digit)
	}

	vm.index = FontOffset + FontGlyphHeight*uint16(digit)
	return nil
}

// fr33	bcd vr	store the bcd representation of register vr at location I,I+1,I+2	Doesn't change I
func execBcd(vm *VM, ins Instruction) error {
	if err := checkRange(vm.index, 3); err != nil {
		return err
	}

	x := vm.registers[ins.X]
	vm.memory[vm.index] = x / 100
	vm.memory[vm.index+1] = (x / 10) % 10
	vm.memory[vm.index+2] = x % 10
	return nil
}

// fr55	str v0-vr	store registers v0-vr at location I onwards
func execStr(vm *VM, ins Instruction) error {
	n := uint16(ins.X)
	if err := checkRange(vm.index, int(n)+1); err != nil {
		return err
	}

	for i := uint16(0); i <= n; i++ {
		vm.memory[vm.index+i] = vm.registers[i]
	}

	// COSMAC VIP behavior: I = I + X + 1.
	if vm.quirkIndex {
		vm.index += n + 1
	}
	return nil
}

// fx65	ldr v0-vr	load registers v0-vr from location I onwards
func execLdr(vm *VM, ins Instruction) error {
	n := uint16(ins.X)
	if err := checkRange(vm.index, int(n)+1); err != nil {
		return err
	}

	for i := uint16(0); i <= n; i++ {
		vm.registers[i] = vm.memory[vm.index+i]
	}

	if vm.quirkIndex {
		vm.index += n + 1
	}
	return nil
}
