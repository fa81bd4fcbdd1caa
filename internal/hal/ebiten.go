package hal

import (
	"errors"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/kapitanov/chip8emu/internal/vm"
)

// BootFunc creates a freshly loaded machine. It is called on start and on
// every reboot.
type BootFunc func() (*vm.VM, error)

var ebitenKeys = []struct {
	key ebiten.Key
	vm  vm.Key
}{
	{ebiten.KeyX, vm.Key0},
	{ebiten.KeyDigit1, vm.Key1},
	{ebiten.KeyDigit2, vm.Key2},
	{ebiten.KeyDigit3, vm.Key3},
	{ebiten.KeyQ, vm.Key4},
	{ebiten.KeyW, vm.Key5},
	{ebiten.KeyE, vm.Key6},
	{ebiten.KeyA, vm.Key7},
	{ebiten.KeyS, vm.Key8},
	{ebiten.KeyD, vm.Key9},
	{ebiten.KeyZ, vm.KeyA},
	{ebiten.KeyC, vm.KeyB},
	{ebiten.KeyDigit4, vm.KeyC},
	{ebiten.KeyR, vm.KeyD},
	{ebiten.KeyF, vm.KeyE},
	{ebiten.KeyV, vm.KeyF},
}

// Game runs a machine inside the ebiten game loop. Each Update is one
// vm.RunFrame, at ebiten's fixed tick rate.
type Game struct {
	cfg     Config
	boot    BootFunc
	machine *vm.VM
	halted  bool

	tex    *ebiten.Image
	pixels []byte
	frame  []byte
}

func NewGame(cfg Config, boot BootFunc) (*Game, error) {
	g := &Game{
		cfg:    cfg.withDefaults(),
		boot:   boot,
		pixels: make([]byte, 4*vm.ScreenWidth*vm.ScreenHeight),
		frame:  make([]byte, vm.DisplaySize),
	}

	if err := g.reboot(); err != nil {
		return nil, err
	}

	return g, nil
}

// RunEbiten opens the window and blocks until it is closed.
func RunEbiten(cfg Config, boot BootFunc) error {
	g, err := NewGame(cfg, boot)
	if err != nil {
		return err
	}

	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(vm.ScreenWidth*g.cfg.Scale, vm.ScreenHeight*g.cfg.Scale)

	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *Game) reboot() error {
	machine, err := g.boot()
	if err != nil {
		return err
	}

	g.machine = machine
	g.halted = false
	return nil
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		slog.Debug("hal: exit requested")
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		slog.Info("hal: reboot")
		if err := g.reboot(); err != nil {
			return err
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if _, err := saveScreenshot(g.cfg.ScreenshotDir, g.frame, g.cfg.Scale); err != nil {
			slog.Error("hal: screenshot failed", "err", err)
		}
	}

	if g.halted {
		return nil
	}

	err := g.machine.RunFrame(ebitenFrontend{g})
	if errors.Is(err, vm.ErrHalted) {
		slog.Info("program looped")
		g.halted = true
		return nil
	}

	return err
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.tex == nil {
		g.tex = ebiten.NewImage(vm.ScreenWidth, vm.ScreenHeight)
	}
	g.tex.WritePixels(g.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(g.cfg.Scale), float64(g.cfg.Scale))
	screen.DrawImage(g.tex, op)

	if g.halted {
		ebitenutil.DebugPrintAt(screen, "halted - backspace to reboot", 4, 4)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return vm.ScreenWidth * g.cfg.Scale, vm.ScreenHeight * g.cfg.Scale
}

// ebitenFrontend feeds ebiten's keyboard state to the machine and keeps the
// last frame for Draw.
type ebitenFrontend struct {
	g *Game
}

func (f ebitenFrontend) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for _, k := range ebitenKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			keyDown(k.vm)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			keyUp(k.vm)
		}
	}
	return nil
}

func (f ebitenFrontend) Draw(gfx []byte) error {
	copy(f.g.frame, gfx)
	expandRGBA(gfx, f.g.pixels)
	return nil
}
