// Package z80 implements the full Z80 decoder/executor of §4.6: the base
// opcode table plus the CB, ED, DD, FD, DDCB and FDCB prefix planes,
// undocumented opcodes and flags, WZ updates, and the block/repeat
// instructions.
//
// The ALU flag computation (alu.go) keeps the teacher's pkg/cpu/exec.go
// technique (precomputed S/Z/P/Y/X tables from pkg/core/tables combined
// with explicit H/N/C/V arithmetic) almost verbatim, generalized from a
// fixed-size State to the full Registers type. The opcode *dispatch*,
// though, is not copied from the teacher: the teacher only ever had to
// support 406 register/immediate-only opcodes for its superoptimizer and
// enumerated each by hand. The full instruction set's ~1500 opcode/prefix
// combinations are decoded with the standard x/y/z/p/q bitfield
// decomposition (the field layout documented at z80.info/decoding.htm and
// used by other_examples/*retroenv-retrogolib__arch-cpu-z80-step.go.go for
// its own prefix-plane tables) instead of one switch arm per opcode --
// exactly what design note §9 asks for: "a single result-to-flags helper
// parameterized by (model, instruction-class) rather than duplicating flag
// code per opcode", generalized here to the whole decode stage.
package z80

import (
	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
)

// indexMode tracks which 16-bit register currently stands in for HL,
// selected by an accepted DD or FD prefix for the rest of the instruction.
type indexMode uint8

const (
	indexHL indexMode = iota
	indexIX
	indexIY
)

// CPU is one Z80 instruction-execution engine. Devices interact with it
// only through Bus, Ports and IRQ; the scheduler (pkg/machine) drives Step.
type CPU struct {
	// Regs is a pointer so a sibling i8080.CPU can share the exact same
	// register file across a model switch (§3: "switching models preserves
	// shared state") without the scheduler copying fields by hand.
	Regs *core.Registers

	Bus   core.MemoryBus
	Ports core.PortBus
	IRQ   *interrupt.Fabric

	// Undocumented is a configuration field per design note §9 ("Express
	// these as configuration fields of the context"). Defaults to true.
	// Only the DDCB/FDCB register write-back forms consult it; the other
	// undocumented opcodes and the Y/X flags are emulated either way.
	Undocumented bool

	Halted bool
	Status core.BusStatus
	Error  core.ErrorKind

	// WaitStep and WaitIntStep are the optional front-panel single-step
	// hooks of §4.8. When non-nil, WaitStep is invoked once after each
	// executed instruction and WaitIntStep once per serviced interrupt;
	// neither fires between the machine cycles of an instruction.
	WaitStep    func(c *CPU)
	WaitIntStep func(c *CPU)

	curIndex indexMode
	curDisp  int8
	dispSet  bool
}

// New creates a Z80 CPU over a register file owned by the caller (the
// scheduler), wired to the given bus, port bus and interrupt fabric, with
// undocumented behavior enabled by default.
func New(regs *core.Registers, bus core.MemoryBus, ports core.PortBus, irq *interrupt.Fabric) *CPU {
	return &CPU{
		Regs:         regs,
		Bus:          bus,
		Ports:        ports,
		IRQ:          irq,
		Undocumented: true,
	}
}

// Reset implements the Z80 reset pulse (§3 Lifecycle).
func (c *CPU) Reset() {
	c.Regs.Reset(core.ModelZ80)
	c.Halted = false
	c.Error = core.ErrNone
}

// --- fetch helpers -------------------------------------------------------

// fetchOpcode fetches a byte as an M1 cycle would: through the bus and
// incrementing R. Used for the first opcode byte of an instruction and
// for each CB/ED/DD/FD prefix byte accepted (§3: "incremented ... by one
// per prefix byte accepted").
func (c *CPU) fetchOpcode() uint8 {
	c.Status |= core.StatusM1 | core.StatusMEMR
	b := c.Bus.Fetch(c.Regs.PC)
	c.Regs.PC++
	c.Regs.IncR()
	c.Status &^= core.StatusM1 | core.StatusMEMR
	return b
}

// fetchByte reads an immediate or displacement byte: unconstrained read,
// no R increment.
func (c *CPU) fetchByte() uint8 {
	c.Status |= core.StatusMEMR
	b := c.Bus.Read(c.Regs.PC)
	c.Regs.PC++
	c.Status &^= core.StatusMEMR
	return b
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
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
	c.Status &^= (core.StatusMEMW | core.StatusWO)
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

// --- index-register aware HL access -------------------------------------

// hl returns the value of whichever 16-bit register currently stands in
// for HL (HL itself, or IX/IY under an accepted DD/FD prefix).
func (c *CPU) hl() uint16 {
	switch c.curIndex {
	case indexIX:
		return c.Regs.IX
	case indexIY:
		return c.Regs.IY
	default:
		return c.Regs.HL()
	}
}

func (c *CPU) setHL(v uint16) {
	switch c.curIndex {
	case indexIX:
		c.Regs.IX = v
	case indexIY:
		c.Regs.IY = v
	default:
		c.Regs.SetHL(v)
	}
}

// hlAddr resolves the effective address for an (HL)-style memory operand:
// HL directly, or (IX+d)/(IY+d) with the displacement byte fetched and
// cached the first time it's needed for this instruction (it must be read
// before any immediate byte that follows it, e.g. LD (IX+d),n).
func (c *CPU) hlAddr() uint16 {
	if c.curIndex == indexHL {
		return c.Regs.HL()
	}
	if !c.dispSet {
		c.curDisp = int8(c.fetchByte())
		c.dispSet = true
	}
	base := c.hl()
	addr := uint16(int32(base) + int32(c.curDisp))
	c.Regs.WZ = addr
	return addr
}

// resetOpcodeState clears the per-instruction index/displacement cache;
// called at the top of every Step.
func (c *CPU) resetOpcodeState() {
	c.curIndex = indexHL
	c.dispSet = false
	c.curDisp = 0
}
