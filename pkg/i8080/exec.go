package i8080

import "github.com/oisee/z80emu/pkg/core"

// Step executes one 8080 instruction (or services a pending interrupt,
// or advances one HLT cycle) and returns the T-states consumed, per
// §4.7's simpler (no IM modes, no NMI) interrupt model: a pending
// interrupt's data byte is executed directly as the next opcode, since
// that is exactly what INTA wired to a RST-generating peripheral does on
// real 8080 hardware.
func (c *CPU) Step() int {
	if c.IRQ.BusRequested() {
		master := c.IRQ.Master()
		if master != nil {
			return int(master(1))
		}
		return 0
	}

	if c.IRQ.IntPending() && c.Regs.IFF1 {
		data, ok := c.IRQ.IntData()
		c.IRQ.ClearInterrupt()
		if !ok {
			c.Error = core.ErrIntError
			return 0
		}
		c.Regs.IFF1 = false
		if c.Halted {
			c.Halted = false
			c.Status &^= core.StatusHLTA
		}
		c.Status |= core.StatusINTA
		t := c.execOpcode(data)
		c.Status &^= core.StatusINTA
		return t
	}

	if c.Halted {
		return 4
	}

	opcode := c.fetchByte()
	t := c.execOpcode(opcode)
	if c.WaitStep != nil {
		c.WaitStep(c)
	}
	return t
}

func (c *CPU) execOpcode(opcode uint8) int {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	z := opcode & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		return c.execX0(y, z, p, q)
	case 1:
		if y == 6 && z == 6 {
			c.Halted = true
			c.Status |= core.StatusHLTA
			if !c.Regs.IFF1 {
				c.Error = core.ErrOpHalt
			}
			return 7
		}
		v := c.getReg8(z)
		c.setReg8(y, v)
		if y == 6 || z == 6 {
			return 7
		}
		return 5
	case 2:
		v := c.getReg8(z)
		c.aluOp(y, v)
		if z == 6 {
			return 7
		}
		return 4
	default: // 3
		return c.execX3(y, z, p, q)
	}
}

func (c *CPU) execX0(y, z, p, q uint8) int {
	switch z {
	case 0:
		return 4 // NOP (and the undefined 0x08/0x10/.../0x38 NOP aliases)
	case 1:
		if q == 0 {
			c.setRP(p, c.fetchWord())
		} else {
			c.Regs.SetHL(execDad(c.Regs, c.Regs.HL(), c.getRP(p)))
			c.forceFlags()
		}
		return 10
	case 2:
		return c.execX0Z2(p, q)
	case 3:
		if q == 0 {
			c.setRP(p, c.getRP(p)+1)
		} else {
			c.setRP(p, c.getRP(p)-1)
		}
		return 5
	case 4:
		v := c.getReg8(y)
		execInr(c.Regs, &v)
		c.setReg8(y, v)
		c.forceFlags()
		return ti8(5, 10, y == 6)
	case 5:
		v := c.getReg8(y)
		execDcr(c.Regs, &v)
		c.setReg8(y, v)
		c.forceFlags()
		return ti8(5, 10, y == 6)
	case 6:
		n := c.fetchImm()
		c.setReg8(y, n)
		return ti8(7, 10, y == 6)
	default: // z==7
		return c.execX0Z7(y)
	}
}

func ti8(base, mem int, isMem bool) int {
	if isMem {
		return mem
	}
	return base
}

func (c *CPU) execX0Z2(p, q uint8) int {
	if q == 0 {
		switch p {
		case 0:
			c.writeMem(c.Regs.BC(), c.Regs.A)
			return 7
		case 1:
			c.writeMem(c.Regs.DE(), c.Regs.A)
			return 7
		case 2:
			nn := c.fetchWord()
			c.writeMem(nn, c.Regs.L)
			c.writeMem(nn+1, c.Regs.H)
			return 16
		default: // 3
			c.writeMem(c.fetchWord(), c.Regs.A)
			return 13
		}
	}
	switch p {
	case 0:
		c.Regs.A = c.readMem(c.Regs.BC())
		return 7
	case 1:
		c.Regs.A = c.readMem(c.Regs.DE())
		return 7
	case 2:
		nn := c.fetchWord()
		lo := c.readMem(nn)
		hi := c.readMem(nn + 1)
		c.Regs.SetHL(uint16(hi)<<8 | uint16(lo))
		return 16
	default: // 3
		c.Regs.A = c.readMem(c.fetchWord())
		return 13
	}
}

func (c *CPU) execX0Z7(y uint8) int {
	switch y {
	case 0: // RLC
		c.Regs.A = (c.Regs.A << 1) | (c.Regs.A >> 7)
		c.Regs.F = (c.Regs.F &^ core.FlagC) | (c.Regs.A & core.FlagC)
	case 1: // RRC
		bit0 := c.Regs.A & 0x01
		c.Regs.A = (c.Regs.A >> 1) | (bit0 << 7)
		c.Regs.F = (c.Regs.F &^ core.FlagC) | bit0
	case 2: // RAL
		carry := c.Regs.F & core.FlagC
		newCarry := c.Regs.A >> 7
		c.Regs.A = (c.Regs.A << 1) | carry
		c.Regs.F = (c.Regs.F &^ core.FlagC) | newCarry
	case 3: // RAR
		carry := c.Regs.F & core.FlagC
		newCarry := c.Regs.A & 0x01
		c.Regs.A = (c.Regs.A >> 1) | (carry << 7)
		c.Regs.F = (c.Regs.F &^ core.FlagC) | newCarry
	case 4:
		execDaa(c.Regs)
	case 5: // CMA: complement accumulator, flags unaffected
		c.Regs.A = ^c.Regs.A
	case 6: // STC
		c.Regs.F |= core.FlagC
	default: // 7: CMC
		c.Regs.F ^= core.FlagC
	}
	c.forceFlags()
	return 4
}

func (c *CPU) execX3(y, z, p, q uint8) int {
	switch z {
	case 0:
		if c.cond(y) {
			c.Regs.PC = c.pop16()
			return 11
		}
		return 5
	case 1:
		if q == 0 {
			c.setRP2(p, c.pop16())
			return 10
		}
		switch p {
		case 0, 1: // RET (0xD9 is the undocumented RET alias)
			c.Regs.PC = c.pop16()
		case 2: // PCHL
			c.Regs.PC = c.Regs.HL()
		default: // 3: SPHL
			c.Regs.SP = c.Regs.HL()
		}
		return ti8(10, 5, p == 2)
	case 2:
		nn := c.fetchWord()
		if c.cond(y) {
			c.Regs.PC = nn
		}
		return 10
	case 3:
		return c.execX3Z3(y)
	case 4:
		nn := c.fetchWord()
		if c.cond(y) {
			c.push16(c.Regs.PC)
			c.Regs.PC = nn
			return 17
		}
		return 11
	case 5:
		if q == 0 {
			c.push16(c.getRP2(p))
			return 11
		}
		// CALL nn, and the undocumented 0xDD/0xED/0xFD aliases of it.
		nn := c.fetchWord()
		c.push16(c.Regs.PC)
		c.Regs.PC = nn
		return 17
	case 6:
		n := c.fetchImm()
		c.aluOp(y, n)
		return 7
	default: // 7
		c.push16(c.Regs.PC)
		c.Regs.PC = uint16(y) * 8
		return 11
	}
}

func (c *CPU) execX3Z3(y uint8) int {
	switch y {
	case 0, 1: // JMP, and the undocumented 0xCB alias of it
		c.Regs.PC = c.fetchWord()
		return 10
	case 2:
		n := c.fetchImm()
		c.Ports.Output(n, c.Regs.A)
		return 10
	case 3:
		n := c.fetchImm()
		c.Regs.A = c.Ports.Input(n)
		return 10
	case 4: // XTHL
		lo := c.readMem(c.Regs.SP)
		hi := c.readMem(c.Regs.SP + 1)
		c.writeMem(c.Regs.SP, c.Regs.L)
		c.writeMem(c.Regs.SP+1, c.Regs.H)
		c.Regs.SetHL(uint16(hi)<<8 | uint16(lo))
		return 18
	case 5: // XCHG
		c.Regs.D, c.Regs.H = c.Regs.H, c.Regs.D
		c.Regs.E, c.Regs.L = c.Regs.L, c.Regs.E
		return 4
	case 6:
		c.Regs.IFF1 = false
		c.Regs.IFF2 = false
		return 4
	default: // 7
		c.Regs.IFF1 = true
		c.Regs.IFF2 = true
		return 4
	}
}
