package z80

import "github.com/oisee/z80emu/pkg/core"

// getReg8/setReg8 implement the z80.info r[z] register-code table, with
// codes 4/5/6 (H, L, (HL)) substituted for IXh/IXl/(IX+d) or
// IYh/IYl/(IY+d) while a DD/FD prefix is active (§4.6's "every place HL
// appears as an operand ... is replaced").
func (c *CPU) getReg8(code uint8) uint8 {
	switch code {
	case 0:
		return c.Regs.B
	case 1:
		return c.Regs.C
	case 2:
		return c.Regs.D
	case 3:
		return c.Regs.E
	case 4:
		switch c.curIndex {
		case indexIX:
			return uint8(c.Regs.IX >> 8)
		case indexIY:
			return uint8(c.Regs.IY >> 8)
		default:
			return c.Regs.H
		}
	case 5:
		switch c.curIndex {
		case indexIX:
			return uint8(c.Regs.IX)
		case indexIY:
			return uint8(c.Regs.IY)
		default:
			return c.Regs.L
		}
	case 6:
		return c.readMem(c.hlAddr())
	default: // 7
		return c.Regs.A
	}
}

func (c *CPU) setReg8(code uint8, v uint8) {
	switch code {
	case 0:
		c.Regs.B = v
	case 1:
		c.Regs.C = v
	case 2:
		c.Regs.D = v
	case 3:
		c.Regs.E = v
	case 4:
		switch c.curIndex {
		case indexIX:
			c.Regs.IX = uint16(v)<<8 | (c.Regs.IX & 0x00FF)
		case indexIY:
			c.Regs.IY = uint16(v)<<8 | (c.Regs.IY & 0x00FF)
		default:
			c.Regs.H = v
		}
	case 5:
		switch c.curIndex {
		case indexIX:
			c.Regs.IX = (c.Regs.IX & 0xFF00) | uint16(v)
		case indexIY:
			c.Regs.IY = (c.Regs.IY & 0xFF00) | uint16(v)
		default:
			c.Regs.L = v
		}
	case 6:
		c.writeMem(c.hlAddr(), v)
	default: // 7
		c.Regs.A = v
	}
}

// setReg8Raw writes one of B,C,D,E,H,L,A directly, ignoring any active
// DD/FD prefix. The DDCB/FDCB undocumented writeback forms target the
// real H/L (never IXh/IXl/IYh/IYl) even though the instruction that
// carries them is itself prefixed, so callers in that path must use this
// instead of setReg8.
func (c *CPU) setReg8Raw(code uint8, v uint8) {
	switch code {
	case 0:
		c.Regs.B = v
	case 1:
		c.Regs.C = v
	case 2:
		c.Regs.D = v
	case 3:
		c.Regs.E = v
	case 4:
		c.Regs.H = v
	case 5:
		c.Regs.L = v
	default: // 7
		c.Regs.A = v
	}
}

// getRP/setRP implement the rp[p] table (BC, DE, HL/IX/IY, SP) used by LD
// rp,nn / INC rp / DEC rp / ADD HL,rp / POP AF's sibling PUSH/POP table is
// getRP2/setRP2 below.
func (c *CPU) getRP(p uint8) uint16 {
	switch p {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.hl()
	default: // 3
		return c.Regs.SP
	}
}

func (c *CPU) setRP(p uint8, v uint16) {
	switch p {
	case 0:
		c.Regs.SetBC(v)
	case 1:
		c.Regs.SetDE(v)
	case 2:
		c.setHL(v)
	default: // 3
		c.Regs.SP = v
	}
}

// getRP2/setRP2 implement the rp2[p] table (BC, DE, HL/IX/IY, AF) used by
// PUSH/POP.
func (c *CPU) getRP2(p uint8) uint16 {
	switch p {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.hl()
	default: // 3
		return c.Regs.AF()
	}
}

func (c *CPU) setRP2(p uint8, v uint16) {
	switch p {
	case 0:
		c.Regs.SetBC(v)
	case 1:
		c.Regs.SetDE(v)
	case 2:
		c.setHL(v)
	default: // 3
		c.Regs.SetAF(v)
	}
}

// cond implements the cc[y] condition table.
func (c *CPU) cond(y uint8) bool {
	switch y {
	case 0:
		return c.Regs.F&core.FlagZ == 0 // NZ
	case 1:
		return c.Regs.F&core.FlagZ != 0 // Z
	case 2:
		return c.Regs.F&core.FlagC == 0 // NC
	case 3:
		return c.Regs.F&core.FlagC != 0 // C
	case 4:
		return c.Regs.F&core.FlagP == 0 // PO
	case 5:
		return c.Regs.F&core.FlagP != 0 // PE
	case 6:
		return c.Regs.F&core.FlagS == 0 // P
	default: // 7
		return c.Regs.F&core.FlagS != 0 // M
	}
}

// aluOp implements the alu[y] table against the accumulator.
func (c *CPU) aluOp(y uint8, value uint8) {
	switch y {
	case 0:
		execAdd(c.Regs, value)
	case 1:
		execAdc(c.Regs, value)
	case 2:
		execSub(c.Regs, value)
	case 3:
		execSbc(c.Regs, value)
	case 4:
		execAnd(c.Regs, value)
	case 5:
		execXor(c.Regs, value)
	case 6:
		execOr(c.Regs, value)
	default: // 7
		execCp(c.Regs, value)
	}
}

// rotOp implements the rot[y] table used by the CB 0x00-0x3F plane.
func (c *CPU) rotOp(y uint8, v uint8) uint8 {
	switch y {
	case 0:
		return execRlc(c.Regs, v)
	case 1:
		return execRrc(c.Regs, v)
	case 2:
		return execRl(c.Regs, v)
	case 3:
		return execRr(c.Regs, v)
	case 4:
		return execSla(c.Regs, v)
	case 5:
		return execSra(c.Regs, v)
	case 6:
		return execSll(c.Regs, v)
	default: // 7
		return execSrl(c.Regs, v)
	}
}
