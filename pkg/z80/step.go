package z80

// Step executes exactly one instruction (or services one pending
// interrupt, or advances one HALT cycle) and returns the number of
// T-states consumed, implementing §4.5's outer algorithm extended by
// §4.6 for NMI/IM 0/1/2 delivery.
func (c *CPU) Step() int {
	if c.IRQ.BusRequested() {
		master := c.IRQ.Master()
		if master != nil {
			return int(master(1))
		}
		return 0
	}

	if t, serviced := c.checkInterrupts(); serviced {
		return t
	}

	if c.Halted {
		c.Regs.IncR()
		return 4
	}

	c.resetOpcodeState()

	// The plane executors return each instruction's full T-state count,
	// opcode fetch and (for the indexed forms) DD/FD prefix included.
	tstates := 0
	opcode := c.fetchOpcode()

	for opcode == 0xDD || opcode == 0xFD {
		if opcode == 0xDD {
			c.curIndex = indexIX
		} else {
			c.curIndex = indexIY
		}
		opcode = c.fetchOpcode()
	}

	switch opcode {
	case 0xCB:
		if c.curIndex != indexHL {
			disp := int8(c.fetchByte())
			finalOp := c.fetchByte()
			addr := uint16(int32(c.hl()) + int32(disp))
			c.Regs.WZ = addr
			tstates += c.execIndexedCB(finalOp, addr)
		} else {
			tstates += c.execCB()
		}
	case 0xED:
		c.curIndex = indexHL
		tstates += c.execED()
	default:
		tstates += c.execBase(opcode)
	}

	if c.WaitStep != nil {
		c.WaitStep(c)
	}
	return tstates
}
