package machine

import (
	"os"
	"testing"

	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
	"github.com/oisee/z80emu/pkg/memory"
	"github.com/oisee/z80emu/pkg/ports"
)

func newTestMachine(model core.Model) *Scheduler {
	bus := memory.New(0)
	pb := ports.New()
	irq := interrupt.New()
	return New(bus, pb, irq, model)
}

// TestStepAccountsTStates verifies Step drives the active decoder and
// accumulates its T-state cost.
func TestStepAccountsTStates(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	m.Bus.Write(0x0000, 0x00) // NOP

	tstates, err := m.Step()
	if err != core.ErrNone {
		t.Fatalf("Step: unexpected error %s", err)
	}
	if tstates != 4 {
		t.Errorf("NOP: %d T-states, want 4", tstates)
	}
	if m.TStates() != 4 {
		t.Errorf("TStates() = %d, want 4", m.TStates())
	}
}

// TestSwitchModelPreservesSharedState verifies §3's model-switch rule:
// shared registers survive the switch and the newly active decoder picks
// up from exactly where the old one left off.
func TestSwitchModelPreservesSharedState(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	m.Regs.A = 0x42
	m.Regs.SetBC(0x1234)
	m.Regs.PC = 0x5000

	m.SwitchModel(core.ModelI8080)

	if m.Model != core.ModelI8080 {
		t.Fatalf("Model = %s, want 8080", m.Model)
	}
	if m.Regs.A != 0x42 || m.Regs.BC() != 0x1234 || m.Regs.PC != 0x5000 {
		t.Fatalf("shared registers not preserved across model switch: A=%#02x BC=%#04x PC=%#04x",
			m.Regs.A, m.Regs.BC(), m.Regs.PC)
	}
	if m.State() != core.StateStopped {
		t.Errorf("model switch should land in Stopped, got %s", m.State())
	}

	// The newly active decoder (i8080) must now service Step.
	m.Bus.Write(0x5000, 0x00) // NOP in both instruction sets
	if _, err := m.Step(); err != core.ErrNone {
		t.Fatalf("Step after switch: unexpected error %s", err)
	}
	if m.Regs.PC != 0x5001 {
		t.Errorf("PC after switch+step = %#04x, want 0x5001", m.Regs.PC)
	}
}

// TestSwitchModelForcesFlagsForI8080 verifies the documented flag-pinning
// rule: switching to the 8080 forces N=1, Y=0, X=0 immediately.
func TestSwitchModelForcesFlagsForI8080(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	m.Regs.F = core.FlagY | core.FlagX

	m.SwitchModel(core.ModelI8080)

	if m.Regs.F&core.FlagN == 0 {
		t.Errorf("switch to 8080 should force N=1")
	}
	if m.Regs.F&(core.FlagY|core.FlagX) != 0 {
		t.Errorf("switch to 8080 should clear Y/X")
	}
}

// TestResetZeroesTStatesAndError verifies Reset clears the running counters
// and returns to Stopped.
func TestResetZeroesTStatesAndError(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	m.Bus.Write(0x0000, 0x76) // HALT
	m.Step()
	if m.TStates() == 0 {
		t.Fatalf("expected nonzero T-states before reset")
	}

	m.Reset()

	if m.TStates() != 0 {
		t.Errorf("TStates() after Reset = %d, want 0", m.TStates())
	}
	if m.LastError() != core.ErrNone {
		t.Errorf("LastError() after Reset = %s, want none", m.LastError())
	}
	if m.State() != core.StateStopped {
		t.Errorf("State() after Reset = %s, want Stopped", m.State())
	}
	if m.Regs.PC != 0 {
		t.Errorf("PC after Reset = %#04x, want 0", m.Regs.PC)
	}
}

// TestSnapshotRoundTrip verifies Save/Load preserve registers, T-states and
// memory contents across a gob round trip.
func TestSnapshotRoundTrip(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	m.Regs.A = 0x77
	m.Regs.SetHL(0xBEEF)
	m.Regs.PC = 0x1234
	m.Bus.Write(0x8000, 0xAB)
	m.Bus.Write(0x0000, 0x00) // NOP
	m.Step()

	f, err := os.CreateTemp(t.TempDir(), "snapshot-*.gob")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	path := f.Name()
	f.Close()

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored := newTestMachine(core.ModelZ80)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if restored.Regs.A != 0x77 {
		t.Errorf("restored A = %#02x, want 0x77", restored.Regs.A)
	}
	if restored.Regs.HL() != 0xBEEF {
		t.Errorf("restored HL = %#04x, want 0xBEEF", restored.Regs.HL())
	}
	if restored.Regs.PC != m.Regs.PC {
		t.Errorf("restored PC = %#04x, want %#04x", restored.Regs.PC, m.Regs.PC)
	}
	if restored.TStates() != m.TStates() {
		t.Errorf("restored TStates = %d, want %d", restored.TStates(), m.TStates())
	}
	if got := restored.Bus.Read(0x8000); got != 0xAB {
		t.Errorf("restored mem[0x8000] = %#02x, want 0xAB", got)
	}
}

// TestRunStopsOnSignal verifies Run returns as soon as stop is closed,
// rather than running forever, and leaves the scheduler Stopped.
func TestRunStopsOnSignal(t *testing.T) {
	m := newTestMachine(core.ModelZ80)
	for addr := uint16(0); addr < 0x100; addr++ {
		m.Bus.Write(addr, 0x00) // NOP sled, loops forever without a stop signal
	}

	stop := make(chan struct{})
	close(stop)

	err := m.Run(stop)

	if err != core.ErrNone {
		t.Fatalf("Run: err = %s, want none", err)
	}
	if m.State() != core.StateStopped {
		t.Errorf("State() after signaled Run = %s, want Stopped", m.State())
	}
}
