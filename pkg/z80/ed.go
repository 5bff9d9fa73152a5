package z80

import (
	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/tables"
)

// execED handles the ED-prefix plane: 16-bit arithmetic, extended
// load/store, NEG, RETN/RETI, interrupt-mode selection, the I/R<->A
// transfers, RRD/RLD, I/O and the four block/repeat families. The
// opcode byte is fetched as an M1 cycle (R bumped) by this function, to
// match the teacher's pkg/cpu/exec.go convention of each prefix plane
// owning its own opcode fetch.
func (c *CPU) execED() int {
	op := c.fetchOpcode()
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 1:
		switch z {
		case 0:
			v := c.Ports.Input(c.Regs.C)
			c.Regs.WZ = c.Regs.BC() + 1
			c.Regs.F = (c.Regs.F & core.FlagC) | tables.Szyxp[v]
			if y != 6 {
				c.setReg8(y, v)
			}
			return 12
		case 1:
			v := uint8(0)
			if y != 6 {
				v = c.getReg8(y)
			}
			c.Ports.Output(c.Regs.C, v)
			c.Regs.WZ = c.Regs.BC() + 1
			return 12
		case 2:
			if q == 0 {
				c.setHL(execSbcHL(c.Regs, c.Regs.HL(), c.getRP(p)))
			} else {
				c.setHL(execAdcHL(c.Regs, c.Regs.HL(), c.getRP(p)))
			}
			c.Regs.WZ = c.Regs.HL() + 1
			return 15
		case 3:
			nn := c.fetchWord()
			if q == 0 {
				v := c.getRP(p)
				c.writeMem(nn, uint8(v))
				c.writeMem(nn+1, uint8(v>>8))
			} else {
				lo := c.readMem(nn)
				hi := c.readMem(nn + 1)
				c.setRP(p, uint16(hi)<<8|uint16(lo))
			}
			c.Regs.WZ = nn + 1
			return 20
		case 4:
			old := c.Regs.A
			c.Regs.A = 0
			execSub(c.Regs, old)
			return 8
		case 5:
			c.Regs.PC = c.pop16()
			if y != 1 {
				c.Regs.IFF1 = c.Regs.IFF2 // RETN
			}
			return 14
		case 6:
			im := [8]uint8{0, 0, 1, 2, 0, 0, 1, 2}
			c.Regs.IM = im[y]
			return 8
		default: // z==7
			return c.execEDZ7(y)
		}
	case 2:
		if z <= 3 && y >= 4 {
			return c.execBlock(y, z)
		}
		return 8 // undefined ED, behaves as an 8 T-state NOP
	default: // x==0 or x==3: undefined ED range
		return 8
	}
}

func (c *CPU) execEDZ7(y uint8) int {
	switch y {
	case 0:
		c.Regs.I = c.Regs.A
		return 9
	case 1:
		c.Regs.SetR(c.Regs.A)
		return 9
	case 2:
		c.Regs.A = c.Regs.I
		c.Regs.F = (c.Regs.F & core.FlagC) | tables.Szyx[c.Regs.A] | bsel(c.Regs.IFF2, core.FlagP, 0)
		return 9
	case 3:
		c.Regs.A = c.Regs.R()
		c.Regs.F = (c.Regs.F & core.FlagC) | tables.Szyx[c.Regs.A] | bsel(c.Regs.IFF2, core.FlagP, 0)
		return 9
	case 4: // RRD
		addr := c.Regs.HL()
		m := c.readMem(addr)
		result := (c.Regs.A << 4) | (m >> 4)
		c.Regs.A = (c.Regs.A & 0xF0) | (m & 0x0F)
		c.writeMem(addr, result)
		c.Regs.F = (c.Regs.F & core.FlagC) | tables.Szyxp[c.Regs.A]
		c.Regs.WZ = addr + 1
		return 18
	case 5: // RLD
		addr := c.Regs.HL()
		m := c.readMem(addr)
		result := (m << 4) | (c.Regs.A & 0x0F)
		c.Regs.A = (c.Regs.A & 0xF0) | (m >> 4)
		c.writeMem(addr, result)
		c.Regs.F = (c.Regs.F & core.FlagC) | tables.Szyxp[c.Regs.A]
		c.Regs.WZ = addr + 1
		return 18
	default: // 6,7: undefined
		return 8
	}
}

// execBlock implements LDI/LDD/LDIR/LDDR, CPI/CPD/CPIR/CPDR,
// INI/IND/INIR/INDR and OUTI/OUTD/OTIR/OTDR, with the documented
// undocumented-flag formulas (Y/X leak from an internal adder, per Sean
// Young's "The Undocumented Z80 Documented").
func (c *CPU) execBlock(y, z uint8) int {
	dir := int16(1)
	if y == 5 || y == 7 {
		dir = -1
	}

	switch z {
	case 0: // LDI/LDD/LDIR/LDDR
		val := c.readMem(c.Regs.HL())
		c.writeMem(c.Regs.DE(), val)
		c.Regs.SetHL(uint16(int32(c.Regs.HL()) + int32(dir)))
		c.Regs.SetDE(uint16(int32(c.Regs.DE()) + int32(dir)))
		bc := c.Regs.BC() - 1
		c.Regs.SetBC(bc)

		n := c.Regs.A + val
		c.Regs.F = (c.Regs.F & (core.FlagS | core.FlagZ | core.FlagC)) |
			bsel(n&0x02 != 0, core.FlagY, 0) |
			(n & core.FlagX) |
			bsel(bc != 0, core.FlagP, 0)

		if (y == 6 || y == 7) && bc != 0 {
			c.Regs.PC -= 2
			c.Regs.WZ = c.Regs.PC + 1
			return 21
		}
		return 16

	case 1: // CPI/CPD/CPIR/CPDR
		val := c.readMem(c.Regs.HL())
		c.Regs.SetHL(uint16(int32(c.Regs.HL()) + int32(dir)))
		bc := c.Regs.BC() - 1
		c.Regs.SetBC(bc)

		diff := c.Regs.A - val
		halfBorrow := (c.Regs.A & 0x0F) < (val & 0x0F)
		n := diff
		if halfBorrow {
			n--
		}
		c.Regs.F = (c.Regs.F & core.FlagC) | core.FlagN |
			bsel(halfBorrow, core.FlagH, 0) |
			bsel(diff == 0, core.FlagZ, 0) |
			(diff & core.FlagS) |
			bsel(n&0x02 != 0, core.FlagY, 0) |
			(n & core.FlagX) |
			bsel(bc != 0, core.FlagP, 0)
		c.Regs.WZ = uint16(int32(c.Regs.WZ) + int32(dir))

		if (y == 6 || y == 7) && bc != 0 && diff != 0 {
			c.Regs.PC -= 2
			c.Regs.WZ = c.Regs.PC + 1
			return 21
		}
		return 16

	case 2: // INI/IND/INIR/INDR
		val := c.Ports.Input(c.Regs.C)
		c.writeMem(c.Regs.HL(), val)
		c.Regs.SetHL(uint16(int32(c.Regs.HL()) + int32(dir)))
		c.Regs.B--

		k := uint16(val) + uint16((int16(c.Regs.C)+dir)&0xFF)
		c.Regs.F = bsel(val&0x80 != 0, core.FlagN, 0) |
			bsel(k > 0xFF, core.FlagH|core.FlagC, 0) |
			bsel(tables.Parity(uint8(k&7)^c.Regs.B) != 0, core.FlagP, 0) |
			tables.Szyx[c.Regs.B]

		if (y == 6 || y == 7) && c.Regs.B != 0 {
			c.Regs.PC -= 2
			return 21
		}
		return 16

	default: // 3: OUTI/OUTD/OTIR/OTDR
		val := c.readMem(c.Regs.HL())
		c.Regs.SetHL(uint16(int32(c.Regs.HL()) + int32(dir)))
		c.Regs.B--
		c.Ports.Output(c.Regs.C, val)

		k := uint16(val) + uint16(c.Regs.L)
		c.Regs.F = bsel(val&0x80 != 0, core.FlagN, 0) |
			bsel(k > 0xFF, core.FlagH|core.FlagC, 0) |
			bsel(tables.Parity(uint8(k&7)^c.Regs.B) != 0, core.FlagP, 0) |
			tables.Szyx[c.Regs.B]

		if (y == 6 || y == 7) && c.Regs.B != 0 {
			c.Regs.PC -= 2
			return 21
		}
		return 16
	}
}
