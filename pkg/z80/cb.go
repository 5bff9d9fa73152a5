package z80

// execCB handles the plain (unindexed) CB-prefix plane: rotate/shift,
// BIT, RES and SET over r[z], where r[z]==6 means (HL). The CB prefix
// byte was fetched by the caller as an M1 cycle (R bumped); this function
// fetches the following opcode byte, also as an M1 cycle (R bumped again).
func (c *CPU) execCB() int {
	op := c.fetchOpcode()
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	v := c.getReg8(z)

	switch x {
	case 0: // rot[y] r[z]
		result := c.rotOp(y, v)
		c.setReg8(z, result)
		if z == 6 {
			return 15
		}
		return 8
	case 1: // BIT y,r[z]
		undocSource := v
		if z == 6 {
			// (HL) form: Y/X leak from the WZ latch's high byte, not
			// from the tested byte itself.
			undocSource = uint8(c.Regs.WZ >> 8)
		}
		execBit(c.Regs, v, y, undocSource)
		if z == 6 {
			return 12
		}
		return 8
	case 2: // RES y,r[z]
		c.setReg8(z, v&^(1<<y))
		if z == 6 {
			return 15
		}
		return 8
	default: // 3: SET y,r[z]
		c.setReg8(z, v|(1<<y))
		if z == 6 {
			return 15
		}
		return 8
	}
}

// execIndexedCB handles the DDCB/FDCB plane: DD/FD CB d op. The operand
// is always (IX+d)/(IY+d); addr is the already-resolved effective
// address (caller fetched the displacement byte with a plain, non-R
// bumping read per the documented "no R increment on the final two
// bytes" quirk). The undocumented forms additionally copy the
// rotate/shift/RES/SET result into an 8-bit register named by z, except
// for z==6 (the canonical, documented form) and for BIT, which never
// writes back.
func (c *CPU) execIndexedCB(op uint8, addr uint16) int {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7

	v := c.readMem(addr)

	switch x {
	case 0:
		result := c.rotOp(y, v)
		c.writeMem(addr, result)
		if c.Undocumented && z != 6 {
			c.setReg8Raw(z, result)
		}
		return 23
	case 1:
		// Y/X leak from WZ's high byte for the (IX+d)/(IY+d) BIT forms,
		// same as the plain (HL) form (§4.6, §8 scenario 4).
		execBit(c.Regs, v, y, uint8(c.Regs.WZ>>8))
		return 20
	case 2:
		result := v &^ (1 << y)
		c.writeMem(addr, result)
		if c.Undocumented && z != 6 {
			c.setReg8Raw(z, result)
		}
		return 23
	default: // 3
		result := v | (1 << y)
		c.writeMem(addr, result)
		if c.Undocumented && z != 6 {
			c.setReg8Raw(z, result)
		}
		return 23
	}
}
