package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kapitanov/chip8emu/internal/hal"
	"github.com/kapitanov/chip8emu/internal/statsview"
	"github.com/kapitanov/chip8emu/internal/vm"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCommand()

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "CHIP-8 emulator",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	verbose := cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	cmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		setupLogger(*verbose)
	}

	cmd.AddCommand(newRunCommand(), newDisasmCommand(), newDumpCommand())
	return cmd
}

func setupLogger(verbose bool) {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
}

func readROM(path string) ([]byte, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load file %q: %w", path, err)
	}
	return bs, nil
}

type runOptions struct {
	frontend   string
	scale      int
	cycles     int
	frameDelay time.Duration
	seed       uint64
	quirkIndex bool
	statsview  bool
	statsAddr  string
}

// defaultCycles per frame at 60 Hz is 600 instructions per second.
const defaultCycles = 10

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run PATH_TO_ROM_FILE",
		Short: "Run a ROM",
		Args:  cobra.ExactArgs(1),
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.frontend, "frontend", "sdl", "display frontend: sdl or ebiten")
	flags.IntVar(&opts.scale, "scale", 16, "window pixels per CHIP-8 pixel")
	flags.IntVar(&opts.cycles, "cycles", defaultCycles, "instructions executed per frame")
	flags.DurationVar(&opts.frameDelay, "frame-delay", time.Second/60, "delay between frames (sdl frontend)")
	flags.Uint64Var(&opts.seed, "seed", 0, "seed for the random number generator")
	flags.BoolVar(&opts.quirkIndex, "quirk-index", false, "FX55/FX65 advance I past the last register")
	flags.BoolVar(&opts.statsview, "statsview", false, "serve runtime statistics over http")
	flags.StringVar(&opts.statsAddr, "statsview-addr", statsview.DefaultAddr, "listen address of the statistics server")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bs, err := readROM(args[0])
		if err != nil {
			return err
		}

		if opts.statsview {
			slog.Info("stats server available", "url", statsview.Serve(opts.statsAddr))
		}

		vmOpts := []vm.Option{vm.WithCyclesPerFrame(opts.cycles)}
		if cmd.Flags().Changed("seed") {
			vmOpts = append(vmOpts, vm.WithSeed(opts.seed))
		}
		if opts.quirkIndex {
			vmOpts = append(vmOpts, vm.WithLoadStoreIncrementsIndex())
		}

		boot := func() (*vm.VM, error) {
			machine := vm.New(vmOpts...)
			if err := machine.Load(bs); err != nil {
				return nil, fmt.Errorf("unable to load rom: %w", err)
			}
			return machine, nil
		}

		cfg := hal.Config{
			Title:      fmt.Sprintf("CHIP-8 - %s", filepath.Base(args[0])),
			Scale:      opts.scale,
			FrameDelay: opts.frameDelay,
		}

		switch opts.frontend {
		case "sdl":
			return runSDL(cfg, boot)
		case "ebiten":
			return hal.RunEbiten(cfg, boot)
		default:
			return fmt.Errorf("unknown frontend %q", opts.frontend)
		}
	}

	return cmd
}

func runSDL(cfg hal.Config, boot hal.BootFunc) error {
	h, err := hal.New(cfg)
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	for {
		machine, err := boot()
		if err != nil {
			return err
		}

		err = machine.Run(h)

		if errors.Is(err, hal.ErrQuit) {
			return nil
		}

		if errors.Is(err, hal.ErrReboot) {
			slog.Info("hal: reboot")
			continue
		}

		return err
	}
}

func newDisasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm PATH_TO_ROM_FILE",
		Short: "Print the instructions of a ROM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := readROM(args[0])
			if err != nil {
				return err
			}
			return disassemble(cmd.OutOrStdout(), bs)
		},
	}
}

// disassemble prints one line per 16-bit word, addressed as if the ROM were
// loaded at vm.ProgramStart. A trailing odd byte is printed as data.
func disassemble(w io.Writer, rom []byte) error {
	addr := int(vm.ProgramStart)
	for i := 0; i < len(rom); i += vm.InstructionSize {
		var err error
		if i+1 >= len(rom) {
			_, err = fmt.Fprintf(w, "0x%04X  %02X    db 0x%02x\n", addr+i, rom[i], rom[i])
		} else {
			op := vm.Opcode(uint16(rom[i])<<8 | uint16(rom[i+1]))
			_, err = fmt.Fprintf(w, "0x%04X  %04X  %s\n", addr+i, uint16(op), vm.Decode(op))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump PATH_TO_ROM_FILE",
		Short: "Load a ROM and print the memory image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := readROM(args[0])
			if err != nil {
				return err
			}

			machine := vm.New()
			if err := machine.Load(bs); err != nil {
				return fmt.Errorf("unable to load rom: %w", err)
			}
			return machine.DumpMemory(cmd.OutOrStdout())
		},
	}
}
