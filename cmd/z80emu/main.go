package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
	"github.com/oisee/z80emu/pkg/machine"
	"github.com/oisee/z80emu/pkg/memory"
	"github.com/oisee/z80emu/pkg/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "z80emu",
		Short: "Instruction-accurate Z80/8080 emulator core",
	}

	var modelFlag string
	var mhz float64
	var base uint16
	var romPath string
	var maxSteps uint64
	var verbose bool
	var roRanges []string

	runCmd := &cobra.Command{
		Use:   "run [rom]",
		Short: "Load a ROM/memory image and run it continuously",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				romPath = args[0]
			}
			m, err := newMachine(modelFlag, mhz)
			if err != nil {
				return err
			}
			if romPath != "" {
				if err := loadROM(m, romPath, base); err != nil {
					return err
				}
			}
			if err := applyROProtection(m, roRanges); err != nil {
				return err
			}

			fmt.Printf("z80emu: model=%s mhz=%g base=0x%04X\n", m.Model, mhz, base)

			start := time.Now()
			stop := make(chan struct{})
			errKind := m.Run(stop)
			elapsed := time.Since(start)

			fmt.Printf("stopped: %s (%d T-states, %s)\n", errKind, m.TStates(), elapsed.Round(time.Millisecond))
			if errKind.Fatal() {
				return fmt.Errorf("z80emu: %s", errKind)
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&modelFlag, "model", "z80", "CPU model: z80 or i8080")
	runCmd.Flags().Float64Var(&mhz, "mhz", 0, "Target clock speed in MHz (0 = unthrottled)")
	runCmd.Flags().Uint16Var(&base, "base", 0, "Load address for the ROM image")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Accepted but ignored: run prints no per-instruction trace")
	runCmd.Flags().StringSliceVar(&roRanges, "rom", nil, "Mark a hi:lo page range read-only, e.g. --rom 0x1F:0x00")

	stepCmd := &cobra.Command{
		Use:   "step [rom]",
		Short: "Load a ROM/memory image and single-step it, printing state after each instruction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				romPath = args[0]
			}
			m, err := newMachine(modelFlag, 0)
			if err != nil {
				return err
			}
			if romPath != "" {
				if err := loadROM(m, romPath, base); err != nil {
					return err
				}
			}

			for i := uint64(0); maxSteps == 0 || i < maxSteps; i++ {
				pc := m.Regs.PC
				t, errKind := m.Step()
				fmt.Printf("PC=%04X  A=%02X F=%02X BC=%04X DE=%04X HL=%04X SP=%04X  +%dT\n",
					pc, m.Regs.A, m.Regs.F, m.Regs.BC(), m.Regs.DE(), m.Regs.HL(), m.Regs.SP, t)
				if errKind.Fatal() {
					return fmt.Errorf("z80emu: %s", errKind)
				}
			}
			return nil
		},
	}
	stepCmd.Flags().StringVar(&modelFlag, "model", "z80", "CPU model: z80 or i8080")
	stepCmd.Flags().Uint16Var(&base, "base", 0, "Load address for the ROM image")
	stepCmd.Flags().Uint64Var(&maxSteps, "steps", 1, "Number of instructions to execute (0 = until a fatal CPU error, e.g. HALT with interrupts disabled)")

	rootCmd.AddCommand(runCmd, stepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMachine(modelFlag string, mhz float64) (*machine.Scheduler, error) {
	var model core.Model
	switch modelFlag {
	case "z80", "":
		model = core.ModelZ80
	case "i8080", "8080":
		model = core.ModelI8080
	default:
		return nil, fmt.Errorf("z80emu: unknown model %q (want z80 or i8080)", modelFlag)
	}

	bus := memory.New(0x10000)
	portBus := ports.New()
	irq := interrupt.New()

	m := machine.New(bus, portBus, irq, model)
	m.MHz = mhz
	return m, nil
}

func loadROM(m *machine.Scheduler, path string, base uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("z80emu: read ROM: %w", err)
	}
	bus, ok := m.Bus.(interface {
		LoadForce(data []byte, base uint16, maxLen int) (int, error)
	})
	if !ok {
		return fmt.Errorf("z80emu: memory bus does not support loading images")
	}
	n, err := bus.LoadForce(data, base, len(data))
	if err != nil {
		return fmt.Errorf("z80emu: load ROM: %w", err)
	}
	fmt.Printf("loaded %d bytes at 0x%04X\n", n, base)
	return nil
}

// applyROProtection marks the given "hi:lo" 256-byte page ranges read-only,
// the way a real machine's ROM address decoding would (§3's page-attribute
// table).
func applyROProtection(m *machine.Scheduler, ranges []string) error {
	for _, r := range ranges {
		parts := strings.SplitN(r, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("z80emu: --rom %q: want hi:lo page numbers", r)
		}
		hi, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 0, 8)
		if err != nil {
			return fmt.Errorf("z80emu: --rom %q: bad hi page: %w", r, err)
		}
		lo, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 0, 8)
		if err != nil {
			return fmt.Errorf("z80emu: --rom %q: bad lo page: %w", r, err)
		}
		if lo > hi {
			return fmt.Errorf("z80emu: --rom %q: lo page greater than hi page", r)
		}
		for page := lo; page <= hi; page++ {
			m.Bus.SetPageAttribute(uint8(page), core.PageRO)
		}
		fmt.Printf("marked pages 0x%02X:0x%02X read-only\n", lo, hi)
	}
	return nil
}
