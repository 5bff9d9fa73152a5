package machine

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/oisee/z80emu/pkg/core"
)

// Snapshot captures everything needed to resume a machine later: model
// identity, the full register file, the T-state counter and a flat dump
// of the 64 KiB address space (§6: front-panel save/restore), encoded
// with encoding/gob the way the teacher's pkg/result/checkpoint.go
// persists search state.
type Snapshot struct {
	Model   core.Model
	Regs    core.Registers
	TStates uint64
	Memory  [65536]byte
}

// Save writes a full snapshot of the scheduler's state to path.
func (m *Scheduler) Save(path string) error {
	snap := Snapshot{
		Model:   m.Model,
		Regs:    m.Regs,
		TStates: m.tstates.Load(),
	}
	for addr := 0; addr < 65536; addr++ {
		snap.Memory[addr] = m.Bus.Read(uint16(addr))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("machine: create snapshot: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		return fmt.Errorf("machine: encode snapshot: %w", err)
	}
	return nil
}

// Load restores the scheduler's state from a snapshot written by Save.
// The caller must have constructed the Scheduler with a MemoryBus of at
// least 64 KiB. When the bus has a LoadForce method, Load overwrites memory
// through it, so page-protection attributes from before the snapshot don't
// reject the restore; otherwise it falls back to Write, which honours them.
func (m *Scheduler) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("machine: open snapshot: %w", err)
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("machine: decode snapshot: %w", err)
	}

	m.mu.Lock()
	m.Model = snap.Model
	m.Regs = snap.Regs
	m.state = core.StateStopped
	m.mu.Unlock()

	m.tstates.Store(snap.TStates)
	if forcer, ok := m.Bus.(interface {
		LoadForce(data []byte, base uint16, maxLen int) (int, error)
	}); ok {
		if _, err := forcer.LoadForce(snap.Memory[:], 0, len(snap.Memory)); err != nil {
			return fmt.Errorf("machine: restore memory: %w", err)
		}
		return nil
	}
	for addr, v := range snap.Memory {
		m.Bus.Write(uint16(addr), v)
	}
	return nil
}
