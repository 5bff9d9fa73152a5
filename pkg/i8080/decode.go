package i8080

import "github.com/oisee/z80emu/pkg/core"

// getReg8/setReg8 implement the 8080's r[z] register-code table: B, C, D,
// E, H, L, M (memory at HL), A. No index-register substitution exists on
// this decoder.
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
		return c.Regs.H
	case 5:
		return c.Regs.L
	case 6:
		return c.readMem(c.Regs.HL())
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
		c.Regs.H = v
	case 5:
		c.Regs.L = v
	case 6:
		c.writeMem(c.Regs.HL(), v)
	default: // 7
		c.Regs.A = v
	}
}

func (c *CPU) getRP(p uint8) uint16 {
	switch p {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.Regs.HL()
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
		c.Regs.SetHL(v)
	default: // 3
		c.Regs.SP = v
	}
}

func (c *CPU) getRP2(p uint8) uint16 {
	switch p {
	case 0:
		return c.Regs.BC()
	case 1:
		return c.Regs.DE()
	case 2:
		return c.Regs.HL()
	default: // 3 PSW
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
		c.Regs.SetHL(v)
	default: // 3 PSW
		// Bits 1, 3 and 5 of the flag register are hardwired on real
		// silicon (always 1, 0, 0); POP PSW must not let a stack value
		// disturb them.
		c.Regs.SetAF(v)
		c.Regs.F = (c.Regs.F &^ (core.FlagY | core.FlagX)) | core.FlagN
	}
}

func (c *CPU) cond(y uint8) bool {
	switch y {
	case 0:
		return c.Regs.F&core.FlagZ == 0
	case 1:
		return c.Regs.F&core.FlagZ != 0
	case 2:
		return c.Regs.F&core.FlagC == 0
	case 3:
		return c.Regs.F&core.FlagC != 0
	case 4:
		return c.Regs.F&core.FlagP == 0
	case 5:
		return c.Regs.F&core.FlagP != 0
	case 6:
		return c.Regs.F&core.FlagS == 0
	default: // 7
		return c.Regs.F&core.FlagS != 0
	}
}

func (c *CPU) aluOp(y uint8, value uint8) {
	switch y {
	case 0:
		execAdd(c.Regs, value)
	case 1:
		execAdc(c.Regs, value)
	case 2:
		execSub(c.Regs, value)
	case 3:
		execSbb(c.Regs, value)
	case 4:
		execAna(c.Regs, value)
	case 5:
		execXra(c.Regs, value)
	case 6:
		execOra(c.Regs, value)
	default: // 7
		execCmp(c.Regs, value)
	}
	c.forceFlags()
}
