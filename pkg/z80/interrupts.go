package z80

import "github.com/oisee/z80emu/pkg/core"

// checkInterrupts implements the top-of-step gate shared by §4.5 steps
// 1-3 and §4.6's NMI/IM 0/1/2 extension. Returns the T-states consumed if
// an NMI or maskable interrupt was serviced, and whether one was.
func (c *CPU) checkInterrupts() (tstates int, serviced bool) {
	// EI's protection window covers exactly the instruction following EI:
	// this gate call is for the instruction about to run, so a protection
	// flag set by a just-retired EI must still block delivery here, one
	// last time, before being cleared for the step after that.
	protected := c.Regs.IntProtection
	c.Regs.IntProtection = false

	if c.IRQ.NMIPending() {
		c.IRQ.ClearNMI()
		if c.WaitIntStep != nil {
			c.WaitIntStep(c)
		}
		if c.Halted {
			c.Regs.PC++
			c.Halted = false
			c.Status &^= core.StatusHLTA
		}
		c.push16(c.Regs.PC)
		c.Regs.IFF2 = c.Regs.IFF1
		c.Regs.IFF1 = false
		c.Regs.PC = 0x0066
		c.Status |= core.StatusINTA
		defer func() { c.Status &^= core.StatusINTA }()
		return 11, true
	}

	if c.IRQ.IntPending() && c.Regs.IFF1 && !protected {
		data, ok := c.IRQ.IntData()
		c.IRQ.ClearInterrupt()
		if !ok {
			c.Error = core.ErrIntError
			return 0, true
		}
		if c.WaitIntStep != nil {
			c.WaitIntStep(c)
		}
		if c.Halted {
			c.Regs.PC++
			c.Halted = false
			c.Status &^= core.StatusHLTA
		}
		c.Regs.IFF1 = false
		c.Regs.IFF2 = false
		c.Status |= core.StatusINTA
		defer func() { c.Status &^= core.StatusINTA }()

		switch c.Regs.IM {
		case 0:
			// The interrupting device places an instruction (typically a
			// single-byte RST) directly on the data bus; execute it as if
			// it had just been fetched.
			t := c.executeOpcodeByte(data)
			return t, true
		case 1:
			c.push16(c.Regs.PC)
			c.Regs.PC = 0x0038
			return 13, true
		case 2:
			vector := uint16(c.Regs.I)<<8 | uint16(data&0xFE)
			lo := c.readMem(vector)
			hi := c.readMem(vector + 1)
			c.push16(c.Regs.PC)
			c.Regs.PC = uint16(hi)<<8 | uint16(lo)
			return 19, true
		}
	}

	return 0, false
}

// executeOpcodeByte executes a single opcode byte as if it had just been
// M1-fetched, without touching PC or R — used for IM 0 interrupt
// acknowledge, where the interrupting device (not memory) supplies the
// byte. Only handles the non-prefixed base plane, since IM 0 devices
// virtually always place a single-byte RST n on the bus.
func (c *CPU) executeOpcodeByte(opcode uint8) int {
	c.resetOpcodeState()
	return c.execBase(opcode)
}
