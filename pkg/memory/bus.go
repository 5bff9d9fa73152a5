// Package memory implements the 64 KiB memory bus of §3/§4.2: a flat
// address space with per-page access attributes, reached only through
// read/write/fetch primitives — no decoder path may touch a raw buffer.
package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/oisee/z80emu/pkg/core"
)

const (
	addressSpace = 1 << 16
	pageSize     = 256
	pageCount    = addressSpace / pageSize
)

// BankHook remaps a logical address to a physical offset in the backing
// store before it is read or written, implementing the "optional banking
// hook" of §3/§4.2. The default (nil) is the identity mapping.
type BankHook func(logical uint16) uint32

// Bus is the 64 KiB address space. The zero value is not usable; use New.
type Bus struct {
	mu   sync.RWMutex
	mem  []uint8
	attr [pageCount]core.PageAttr

	violation atomic.Bool
	bank      atomic.Pointer[BankHook]
}

// New creates a bus with every page writable RAM, backed by a 64 KiB
// store. physicalSize may be larger than 64 KiB to host bank-switched
// pages behind a BankHook; it defaults to 64 KiB when zero.
func New(physicalSize int) *Bus {
	if physicalSize < addressSpace {
		physicalSize = addressSpace
	}
	return &Bus{mem: make([]uint8, physicalSize)}
}

// SetBankHook installs (or clears, with nil) the banking hook.
func (b *Bus) SetBankHook(hook BankHook) {
	if hook == nil {
		b.bank.Store(nil)
		return
	}
	b.bank.Store(&hook)
}

func (b *Bus) physical(addr uint16) uint32 {
	if h := b.bank.Load(); h != nil {
		return (*h)(addr)
	}
	return uint32(addr)
}

// Fetch reads a byte as the decoder's M1 opcode fetch does. It is
// identical to Read; the distinction that matters (incrementing R) is a
// register-file concern owned by the decoder, not the bus.
func (b *Bus) Fetch(addr uint16) uint8 { return b.Read(addr) }

// Read is an unconstrained read. Addresses outside the backing store
// (can only happen behind a banking hook that maps out of range) return
// 0xFF, mirroring an unmapped page.
func (b *Bus) Read(addr uint16) uint8 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	phys := b.physical(addr)
	if int(phys) >= len(b.mem) {
		return 0xFF
	}
	return b.mem[phys]
}

// Write checks the logical page's attribute before committing. Writes to
// RO pages are silently dropped; writes to ProtectedRW pages are dropped
// and raise the write-protect violation flag the front panel observes.
// The page-attribute table is read under the same b.mu a DMA callback's
// SetPageAttribute takes to mutate it, so a DMA master reprotecting a page
// concurrently with the CPU's own writes can never race with this check.
func (b *Bus) Write(addr uint16, v uint8) {
	page := addr / pageSize

	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.attr[page] {
	case core.PageRO:
		return
	case core.PageProtectedRW:
		b.violation.Store(true)
		return
	}

	phys := b.physical(addr)
	if int(phys) < len(b.mem) {
		b.mem[phys] = v
	}
}

// PageAttribute returns the access attribute of the given 256-byte page.
func (b *Bus) PageAttribute(page uint8) core.PageAttr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attr[page]
}

// SetPageAttribute sets the access attribute of the given page. Safe to
// call from a DMA callback while the CPU holds the bus (§3).
func (b *Bus) SetPageAttribute(page uint8, a core.PageAttr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attr[page] = a
}

// WriteViolation reports whether a write to a protected page has occurred
// since the flag was last cleared.
func (b *Bus) WriteViolation() bool { return b.violation.Load() }

// ClearWriteViolation clears the write-protect violation flag.
func (b *Bus) ClearWriteViolation() { b.violation.Store(false) }

// Load places raw bytes starting at base, respecting page attributes
// (RO/ProtectedRW pages silently refuse individual bytes exactly as Write
// would). Returns the number of bytes actually written.
func (b *Bus) Load(data []uint8, base uint16, maxLen int) (int, error) {
	if maxLen <= 0 || maxLen > len(data) {
		maxLen = len(data)
	}
	n := 0
	addr := uint32(base)
	for i := 0; i < maxLen; i++ {
		if addr >= addressSpace {
			return n, fmt.Errorf("memory: load overruns 64 KiB address space at offset %d", i)
		}
		b.Write(uint16(addr), data[i])
		addr++
		n++
	}
	return n, nil
}

// LoadForce places raw bytes ignoring page attributes, for ROM flashing
// callers that would otherwise have to flip a page's attribute to RW,
// load, then flip it back to RO.
func (b *Bus) LoadForce(data []uint8, base uint16, maxLen int) (int, error) {
	if maxLen <= 0 || maxLen > len(data) {
		maxLen = len(data)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	addr := uint32(base)
	for i := 0; i < maxLen; i++ {
		if addr >= addressSpace {
			return n, fmt.Errorf("memory: load overruns 64 KiB address space at offset %d", i)
		}
		phys := b.physical(uint16(addr))
		if int(phys) < len(b.mem) {
			b.mem[phys] = data[i]
		}
		addr++
		n++
	}
	return n, nil
}

var _ core.MemoryBus = (*Bus)(nil)
