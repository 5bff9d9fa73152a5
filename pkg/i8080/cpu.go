// Package i8080 implements the documented Intel 8080 instruction set of
// §4.7 on the same shared register file the Z80 decoder uses (§3: "Model
// switch preserves shared state"). It deliberately reuses none of the
// Z80 undocumented surface: no IX/IY, no alternate bank, no WZ leakage,
// and N/Y/X are pinned the way real 8080 silicon (and the Z80 running in
// 8080-compatible mode) pins them.
package i8080

import (
	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
)

// CPU is one 8080 instruction-execution engine, sharing its Regs, Bus,
// Ports and IRQ wiring with a sibling z80.CPU the way pkg/machine's
// Scheduler composes the two (§3, §4.8): the register file is a pointer
// so both decoders observe the same A,F,B,C,D,E,H,L,SP,PC across a
// model switch.
type CPU struct {
	Regs *core.Registers

	Bus   core.MemoryBus
	Ports core.PortBus
	IRQ   *interrupt.Fabric

	Halted bool
	Status core.BusStatus
	Error  core.ErrorKind

	// WaitStep is the front-panel single-step hook of §4.8.
	WaitStep func(c *CPU)
}

// New creates an 8080 CPU over a register file owned by the caller (the
// scheduler), so it can be swapped in and out alongside a z80.CPU
// without losing shared state.
func New(regs *core.Registers, bus core.MemoryBus, ports core.PortBus, irq *interrupt.Fabric) *CPU {
	return &CPU{Regs: regs, Bus: bus, Ports: ports, IRQ: irq}
}

// Reset implements the 8080 reset pulse (§3 Lifecycle): PC=0, interrupts
// disabled. I and R have no 8080 equivalent and are left untouched.
func (c *CPU) Reset() {
	c.Regs.PC = 0
	c.Regs.IFF1 = false
	c.Regs.IFF2 = false
	c.Regs.IntProtection = false
	c.Halted = false
	c.Error = core.ErrNone
}

func (c *CPU) fetchByte() uint8 {
	c.Status |= core.StatusM1 | core.StatusMEMR
	b := c.Bus.Fetch(c.Regs.PC)
	c.Regs.PC++
	c.Status &^= core.StatusM1 | core.StatusMEMR
	return b
}

func (c *CPU) fetchImm() uint8 {
	c.Status |= core.StatusMEMR
	b := c.Bus.Read(c.Regs.PC)
	c.Regs.PC++
	c.Status &^= core.StatusMEMR
	return b
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchImm()
	hi := c.fetchImm()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) readMem(addr uint16) uint8 {
	c.Status |= core.StatusMEMR
	v := c.Bus.Read(addr)
	c.Status &^= core.StatusMEMR
	return v
}

func (c *CPU) writeMem(addr uint16, v uint8) {
	c.Status |= core.StatusMEMW | core.StatusWO
	c.Bus.Write(addr, v)
	c.Status &^= core.StatusMEMW | core.StatusWO
}

func (c *CPU) push16(v uint16) {
	c.Regs.SP--
	c.writeMem(c.Regs.SP, uint8(v>>8))
	c.Regs.SP--
	c.writeMem(c.Regs.SP, uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.readMem(c.Regs.SP)
	c.Regs.SP++
	hi := c.readMem(c.Regs.SP)
	c.Regs.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// forceFlags pins N=1, Y=0, X=0 on every flag-producing operation, per
// §3's "the 8080 decoder never reads or writes Y, X; N reads as 1,
// always" rule — implemented here as a post-processing step rather than
// by special-casing every ALU call, since every 8080 opcode that touches
// F goes through one of this package's exec* helpers or rotate cases.
func (c *CPU) forceFlags() {
	c.Regs.F = (c.Regs.F &^ (core.FlagY | core.FlagX)) | core.FlagN
}
