package z80

import "github.com/oisee/z80emu/pkg/core"

// execBase decodes and executes a single non-CB, non-ED base-plane opcode
// (already read from the bus by the caller), using the x/y/z/p/q
// decomposition from z80.info/decoding.htm. Returns the instruction's full
// T-state count, M1 opcode fetch included; the indexed totals also include
// the 4 T-states of the DD/FD prefix byte the caller folded into
// c.curIndex. An opcode that does not use HL returns its unprefixed count.
func (c *CPU) execBase(opcode uint8) int {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	z := opcode & 7
	p := y >> 1
	q := y & 1

	indexed := c.curIndex != indexHL

	switch x {
	case 0:
		switch z {
		case 0:
			return c.execBaseZ0(y)
		case 1:
			if q == 0 {
				nn := c.fetchWord()
				c.setRP(p, nn)
				return ti(10, 14, indexed && p == 2)
			}
			result := execAddHL(c.Regs, c.hl(), c.getRP(p))
			c.setHL(result)
			return ti(11, 15, indexed && p == 2)
		case 2:
			return c.execBaseZ2(p, q)
		case 3:
			if q == 0 {
				c.setRP(p, c.getRP(p)+1)
			} else {
				c.setRP(p, c.getRP(p)-1)
			}
			return ti(6, 10, indexed && p == 2)
		case 4:
			v := c.getReg8(y)
			execInc(c.Regs, &v)
			c.setReg8(y, v)
			return incDecTiming(y, indexed)
		case 5:
			v := c.getReg8(y)
			execDec(c.Regs, &v)
			c.setReg8(y, v)
			return incDecTiming(y, indexed)
		case 6:
			if y == 6 {
				c.hlAddr() // LD (IX+d),n: displacement precedes the immediate
			}
			n := c.fetchByte()
			c.setReg8(y, n)
			if y == 6 {
				return ti(10, 19, indexed)
			}
			return ti(7, 11, indexed)
		default: // z==7
			return c.execBaseZ7(y)
		}
	case 1:
		if y == 6 && z == 6 {
			c.Halted = true
			c.Status |= core.StatusHLTA
			if !c.Regs.IFF1 {
				c.Error = core.ErrOpHalt
			}
			return 4
		}
		v := c.getReg8(z)
		c.setReg8(y, v)
		if y == 6 || z == 6 {
			return ti(7, 19, indexed)
		}
		if indexed && (y == 4 || y == 5 || z == 4 || z == 5) {
			return 8
		}
		return 4
	case 2:
		v := c.getReg8(z)
		c.aluOp(y, v)
		if z == 6 {
			return ti(7, 19, indexed)
		}
		if indexed && (z == 4 || z == 5) {
			return 8
		}
		return 4
	default: // x==3
		switch z {
		case 0:
			if c.cond(y) {
				c.Regs.PC = c.pop16()
				return 11
			}
			return 5
		case 1:
			return c.execBaseX3Z1(p, q, indexed)
		case 2:
			nn := c.fetchWord()
			if c.cond(y) {
				c.Regs.WZ = nn
				c.Regs.PC = nn
			}
			return 10
		case 3:
			return c.execBaseX3Z3(y)
		case 4:
			nn := c.fetchWord()
			if c.cond(y) {
				c.push16(c.Regs.PC)
				c.Regs.PC = nn
				return 17
			}
			return 10
		case 5:
			if q == 0 {
				c.push16(c.getRP2(p))
				return ti(11, 15, indexed && p == 2)
			}
			nn := c.fetchWord()
			c.push16(c.Regs.PC)
			c.Regs.PC = nn
			return 17
		case 6:
			n := c.fetchByte()
			c.aluOp(y, n)
			return 7
		default: // z==7
			c.push16(c.Regs.PC)
			c.Regs.PC = uint16(y) * 8
			return 11
		}
	}
}

func ti(base, indexedTotal int, indexed bool) int {
	if indexed {
		return indexedTotal
	}
	return base
}

func incDecTiming(code uint8, indexed bool) int {
	if code == 6 {
		return ti(11, 23, indexed)
	}
	if indexed && (code == 4 || code == 5) {
		return 8
	}
	return 4
}

// execBaseZ0 handles x=0,z=0: NOP, EX AF,AF', DJNZ, JR, JR cc.
func (c *CPU) execBaseZ0(y uint8) int {
	switch y {
	case 0:
		return 4
	case 1:
		c.Regs.ExAF()
		return 4
	case 2:
		c.Regs.B--
		d := int8(c.fetchByte())
		if c.Regs.B != 0 {
			c.jr(d)
			return 13
		}
		return 8
	case 3:
		d := int8(c.fetchByte())
		c.jr(d)
		return 12
	default: // y = 4..7: JR cc[y-4],d
		d := int8(c.fetchByte())
		if c.cond(y - 4) {
			c.jr(d)
			return 12
		}
		return 7
	}
}

func (c *CPU) jr(d int8) {
	c.Regs.PC = uint16(int32(c.Regs.PC) + int32(d))
	c.Regs.WZ = c.Regs.PC
}

// execBaseZ2 handles x=0,z=2: the indirect LD forms.
func (c *CPU) execBaseZ2(p, q uint8) int {
	indexed := c.curIndex != indexHL
	if q == 0 {
		switch p {
		case 0:
			c.writeMem(c.Regs.BC(), c.Regs.A)
			c.Regs.WZ = (uint16(c.Regs.A) << 8) | ((c.Regs.BC() + 1) & 0xFF)
			return 7
		case 1:
			c.writeMem(c.Regs.DE(), c.Regs.A)
			c.Regs.WZ = (uint16(c.Regs.A) << 8) | ((c.Regs.DE() + 1) & 0xFF)
			return 7
		case 2:
			nn := c.fetchWord()
			v := c.hl()
			c.writeMem(nn, uint8(v))
			c.writeMem(nn+1, uint8(v>>8))
			c.Regs.WZ = nn + 1
			return ti(16, 20, indexed)
		default: // 3
			nn := c.fetchWord()
			c.writeMem(nn, c.Regs.A)
			c.Regs.WZ = (uint16(c.Regs.A) << 8) | ((nn + 1) & 0xFF)
			return 13
		}
	}
	switch p {
	case 0:
		c.Regs.A = c.readMem(c.Regs.BC())
		c.Regs.WZ = c.Regs.BC() + 1
		return 7
	case 1:
		c.Regs.A = c.readMem(c.Regs.DE())
		c.Regs.WZ = c.Regs.DE() + 1
		return 7
	case 2:
		nn := c.fetchWord()
		lo := c.readMem(nn)
		hi := c.readMem(nn + 1)
		c.setHL(uint16(hi)<<8 | uint16(lo))
		c.Regs.WZ = nn + 1
		return ti(16, 20, indexed)
	default: // 3
		nn := c.fetchWord()
		c.Regs.A = c.readMem(nn)
		c.Regs.WZ = nn + 1
		return 13
	}
}

// execBaseZ7 handles x=0,z=7: the accumulator/flag single-purpose ops.
func (c *CPU) execBaseZ7(y uint8) int {
	switch y {
	case 0: // RLCA
		c.Regs.A = (c.Regs.A << 1) | (c.Regs.A >> 7)
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) |
			(c.Regs.A & (core.FlagX | core.FlagY | core.FlagC))
	case 1: // RRCA
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) | (c.Regs.A & core.FlagC)
		c.Regs.A = (c.Regs.A >> 1) | (c.Regs.A << 7)
		c.Regs.F |= c.Regs.A & (core.FlagX | core.FlagY)
	case 2: // RLA
		oldA := c.Regs.A
		c.Regs.A = (c.Regs.A << 1) | (c.Regs.F & core.FlagC)
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) |
			(c.Regs.A & (core.FlagX | core.FlagY)) | (oldA >> 7)
	case 3: // RRA
		oldA := c.Regs.A
		c.Regs.A = (c.Regs.A >> 1) | (c.Regs.F << 7)
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) |
			(c.Regs.A & (core.FlagX | core.FlagY)) | (oldA & core.FlagC)
	case 4:
		execDaa(c.Regs)
	case 5: // CPL
		c.Regs.A = ^c.Regs.A
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP | core.FlagC)) |
			core.FlagH | core.FlagN | (c.Regs.A & (core.FlagX | core.FlagY))
	case 6: // SCF
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) |
			core.FlagC | (c.Regs.A & (core.FlagX | core.FlagY))
	default: // 7: CCF
		oldC := c.Regs.F & core.FlagC
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagP)) |
			bsel(oldC != 0, core.FlagH, 0) | (c.Regs.A & (core.FlagX | core.FlagY)) |
			bsel(oldC != 0, 0, core.FlagC)
	}
	return 4
}

// execBaseX3Z1 handles x=3,z=1: POP, RET, EXX, JP (HL), LD SP,HL.
func (c *CPU) execBaseX3Z1(p, q uint8, indexed bool) int {
	if q == 0 {
		c.setRP2(p, c.pop16())
		return ti(10, 14, indexed && p == 2)
	}
	switch p {
	case 0:
		c.Regs.PC = c.pop16()
		return 10
	case 1:
		c.Regs.Exx()
		return 4
	case 2:
		c.Regs.PC = c.hl()
		return ti(4, 8, indexed)
	default: // 3
		c.Regs.SP = c.hl()
		return ti(6, 10, indexed)
	}
}

// execBaseX3Z3 handles x=3,z=3: JP nn, (CB/DD/ED/FD already intercepted
// by the caller so y=1 never reaches here), OUT/IN, EX (SP),HL, EX DE,HL,
// DI, EI.
func (c *CPU) execBaseX3Z3(y uint8) int {
	indexed := c.curIndex != indexHL
	switch y {
	case 0:
		nn := c.fetchWord()
		c.Regs.WZ = nn
		c.Regs.PC = nn
		return 10
	case 2:
		n := c.fetchByte()
		c.Regs.WZ = (uint16(c.Regs.A) << 8) | uint16(n+1)
		c.Ports.Output(n, c.Regs.A)
		return 11
	case 3:
		n := c.fetchByte()
		port := uint16(c.Regs.A)<<8 | uint16(n)
		c.Regs.A = c.Ports.Input(n)
		c.Regs.WZ = port + 1
		return 11
	case 4:
		v := c.hl()
		lo := c.readMem(c.Regs.SP)
		hi := c.readMem(c.Regs.SP + 1)
		c.writeMem(c.Regs.SP, uint8(v))
		c.writeMem(c.Regs.SP+1, uint8(v>>8))
		c.setHL(uint16(hi)<<8 | uint16(lo))
		c.Regs.WZ = c.hl()
		return ti(19, 23, indexed)
	case 5:
		// EX DE,HL is the one documented exception unaffected by an
		// active DD/FD prefix: it always swaps the true DE and HL.
		d, e := c.Regs.D, c.Regs.E
		c.Regs.D, c.Regs.E = c.Regs.H, c.Regs.L
		c.Regs.H, c.Regs.L = d, e
		return 4
	case 6:
		c.Regs.IFF1 = false
		c.Regs.IFF2 = false
		return 4
	default: // 7
		c.Regs.IFF1 = true
		c.Regs.IFF2 = true
		c.Regs.IntProtection = true
		return 4
	}
}
