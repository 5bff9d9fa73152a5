// Package ports implements the 256-slot I/O bus of §4.3: IN/OUT dispatch
// to device callbacks, with a per-port busy-loop counter ticked by
// InputBusy and read with BusyCount. The decoders call Input, not
// InputBusy, and the scheduler does not read the counter.
package ports

import (
	"sync"
	"sync/atomic"

	"github.com/oisee/z80emu/pkg/core"
)

// InFunc reads a byte from an input port. OutFunc writes a byte to an
// output port. These are the device callback contract of §6.
type InFunc func(port uint8) uint8
type OutFunc func(port uint8, v uint8)

// Bus is the 256 input- and 256 output-slot dispatcher. The zero value is
// not usable; use New.
type Bus struct {
	mu  sync.RWMutex
	in  [256]InFunc
	out [256]OutFunc

	busy [256]atomic.Uint64
}

// New creates a port bus where every slot defaults to "return 0xFF" for
// input and "discard" for output, per §3.
func New() *Bus {
	return &Bus{}
}

// SetInput installs the callback for a port's IN side.
func (b *Bus) SetInput(port uint8, fn InFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.in[port] = fn
}

// SetOutput installs the callback for a port's OUT side.
func (b *Bus) SetOutput(port uint8, fn OutFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out[port] = fn
}

// Input reads a port, returning 0xFF if no device is attached.
func (b *Bus) Input(port uint8) uint8 {
	b.mu.RLock()
	fn := b.in[port]
	b.mu.RUnlock()
	if fn == nil {
		return 0xFF
	}
	return fn(port)
}

// Output writes a port, discarding the byte if no device is attached.
func (b *Bus) Output(port uint8, v uint8) {
	b.mu.RLock()
	fn := b.out[port]
	b.mu.RUnlock()
	if fn == nil {
		return
	}
	fn(port, v)
}

// InputBusy behaves like Input but additionally ticks a per-port counter
// that BusyCount reports, so a caller can recognize a tight CP/M
// status-port poll. Nothing in the emulator core yields on it.
func (b *Bus) InputBusy(port uint8) uint8 {
	b.busy[port].Add(1)
	return b.Input(port)
}

// BusyCount returns how many times InputBusy has been called for a port
// since the last ResetBusyCount.
func (b *Bus) BusyCount(port uint8) uint64 { return b.busy[port].Load() }

// ResetBusyCount clears a port's busy-loop counter.
func (b *Bus) ResetBusyCount(port uint8) { b.busy[port].Store(0) }

var _ core.PortBus = (*Bus)(nil)
