package hal

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kapitanov/chip8emu/internal/vm"
)

const (
	bgColor = uint32(0x000000)
	fgColor = uint32(0xbea700)
)

// forEachPixel walks the packed framebuffer row by row, leftmost pixel first.
func forEachPixel(gfx []byte, fn func(i int, on bool)) {
	for i := 0; i < vm.ScreenWidth*vm.ScreenHeight; i++ {
		b := gfx[i/8]
		fn(i, b&(0x80>>(i%8)) != 0)
	}
}

// expandARGB converts the packed framebuffer into one ARGB8888 word per pixel.
func expandARGB(gfx []byte, dst []uint32) {
	forEachPixel(gfx, func(i int, on bool) {
		dst[i] = bgColor
		if on {
			dst[i] = fgColor
		}
	})
}

// expandRGBA converts the packed framebuffer into 4 bytes per pixel, as
// expected by image.RGBA and ebiten.
func expandRGBA(gfx []byte, dst []byte) {
	forEachPixel(gfx, func(i int, on bool) {
		c := bgColor
		if on {
			c = fgColor
		}
		dst[4*i] = uint8(c >> 16)
		dst[4*i+1] = uint8(c >> 8)
		dst[4*i+2] = uint8(c)
		dst[4*i+3] = 0xFF
	})
}

func frameImage(gfx []byte, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, vm.ScreenWidth*scale, vm.ScreenHeight*scale))
	bg, fg := rgba(bgColor), rgba(fgColor)

	forEachPixel(gfx, func(i int, on bool) {
		c := bg
		if on {
			c = fg
		}

		x, y := (i%vm.ScreenWidth)*scale, (i/vm.ScreenWidth)*scale
		for dy := 0; dy < scale; dy++ {
			for dx := 0; dx < scale; dx++ {
				img.SetRGBA(x+dx, y+dy, c)
			}
		}
	})

	return img
}

func rgba(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
}

// saveScreenshot writes the framebuffer as a PNG into dir and returns the
// file name.
func saveScreenshot(dir string, gfx []byte, scale int) (string, error) {
	name := filepath.Join(dir, fmt.Sprintf("chip8_%s.png", time.Now().Format("20060102_150405")))

	f, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, frameImage(gfx, scale)); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}

	slog.Info("hal: screenshot saved", "path", name)
	return name, nil
}
