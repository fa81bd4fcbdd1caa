package vm

const (
	ScreenWidth  = 64
	ScreenHeight = 32

	// ScreenStride is the number of framebuffer bytes per row.
	ScreenStride = ScreenWidth / 8

	DisplayOffset = 0xF00
	DisplaySize   = ScreenWidth * ScreenHeight / 8
)

// blit XORs an 8-pixel-wide sprite into the packed framebuffer fb at (vx, vy)
// and reports whether any pixel went from set to unset.
//
// Rows below the bottom edge and bytes past the right edge are dropped;
// nothing wraps around.
func blit(fb []uint8, sprite []uint8, vx, vy int) bool {
	work := make([]uint8, len(fb))
	copy(work, fb)

	col := vx / 8
	offset := vx % 8

	for row, pixels := range sprite {
		y := vy + row
		if y >= ScreenHeight {
			break
		}

		base := y * ScreenStride
		if offset == 0 {
			if col < ScreenStride {
				work[base+col] ^= pixels
			}
			continue
		}

		if col < ScreenStride {
			work[base+col] ^= pixels >> offset
		}
		if col+1 < ScreenStride {
			work[base+col+1] ^= pixels << (8 - offset)
		}
	}

	collision := false
	for i := range fb {
		if fb[i]&^work[i] != 0 {
			collision = true
			break
		}
	}

	copy(fb, work)
	return collision
}

// clearScreen zeroes the framebuffer region.
func (vm *VM) clearScreen() {
	clear(vm.framebuffer())
	vm.drawFlag = true
}

// drawSprite draws n rows from [I, I+n) at (VX, VY) and sets VF to the
// collision flag.
func (vm *VM) drawSprite(x, y, n uint8) error {
	start := int(vm.index)
	end := start + int(n)
	if end > MemorySize {
		return ErrAddressOutOfRange
	}

	sprite := make([]uint8, n)
	copy(sprite, vm.memory[start:end])

	vx, vy := int(vm.registers[x]), int(vm.registers[y])
	collision := blit(vm.framebuffer(), sprite, vx, vy)

	vm.setFlag(collision)
	vm.drawFlag = true
	return nil
}

func (vm *VM) framebuffer() []uint8 {
	return vm.memory[DisplayOffset : DisplayOffset+DisplaySize]
}
