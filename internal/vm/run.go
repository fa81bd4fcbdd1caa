package vm

import (
	"errors"
	"log/slog"
)

// Frontend renders the display and reports keyboard changes.
type Frontend interface {
	ReadInput(keyDown func(Key), keyUp func(Key)) error
	Draw(gfx []byte) error
}

// HAL is a Frontend that also owns the frame pacing.
type HAL interface {
	Frontend
	WaitForNextFrame() error
}

// Run drives the VM until the HAL or the program fails. A program that
// jumps to itself is left idle, still polling input, so the HAL can report
// a quit or reboot.
func (vm *VM) Run(hal HAL) error {
	for {
		err := vm.runStep(hal)
		if err != nil {
			if errors.Is(err, ErrHalted) {
				slog.Info("program looped")
				return vm.waitForReboot(hal)
			}

			return err
		}
	}
}

func (vm *VM) waitForReboot(hal HAL) error {
	for {
		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}

		if err := hal.ReadInput(func(_ Key) {}, func(_ Key) {}); err != nil {
			return err
		}
	}
}

func (vm *VM) runStep(hal HAL) error {
	if err := vm.RunFrame(hal); err != nil {
		return err
	}

	return hal.WaitForNextFrame()
}

// RunFrame reads input, executes the configured number of instructions and
// redraws if the display changed. It returns ErrHalted once the program
// jumps to its own address.
func (vm *VM) RunFrame(f Frontend) error {
	if err := f.ReadInput(vm.keyDown, vm.keyUp); err != nil {
		return err
	}

	var stepErr error
	for i := 0; i < vm.cyclesPerFrame; i++ {
		if stepErr = vm.stepOrHalt(); stepErr != nil {
			break
		}
	}

	if vm.Redraw() {
		if err := f.Draw(vm.Framebuffer()); err != nil {
			return err
		}
	}

	return stepErr
}

func (vm *VM) stepOrHalt() error {
	ins, err := vm.Peek()
	if err == nil && ins.Kind == KindJmp && ins.NNN == vm.pc {
		return ErrHalted
	}

	return vm.Step()
}
