package i8080

import (
	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/tables"
)

// The ALU helpers below mirror pkg/z80/alu.go's table-driven technique
// (precomputed S/Z/P tables, explicit H/C arithmetic) against the same
// core.Registers type; they're kept as this package's own copies rather
// than shared across packages because the 8080 has no Y/X/N flags to
// carry and no IX/IY-substitution concern, so the signatures genuinely
// differ (no undocumented-flag plumbing).

func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}

func execAdd(r *core.Registers, value uint8) {
	sum := uint16(r.A) + uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((sum&0x88)>>1)
	r.A = uint8(sum)
	r.F = bsel(sum&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarryAdd[lookup&0x07] |
		tables.Szp[r.A]
}

func execAdc(r *core.Registers, value uint8) {
	sum := uint16(r.A) + uint16(value) + uint16(r.F&core.FlagC)
	lookup := uint8(((uint16(r.A) & 0x88) >> 3) | ((uint16(value) & 0x88) >> 2) | ((sum & 0x88) >> 1))
	r.A = uint8(sum)
	r.F = bsel(sum&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarryAdd[lookup&0x07] |
		tables.Szp[r.A]
}

func execSub(r *core.Registers, value uint8) {
	diff := uint16(r.A) - uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((diff&0x88)>>1)
	r.A = uint8(diff)
	r.F = bsel(diff&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarrySub[lookup&0x07] |
		tables.Szp[r.A]
}

func execSbb(r *core.Registers, value uint8) {
	diff := uint16(r.A) - uint16(value) - uint16(r.F&core.FlagC)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((diff&0x88)>>1)
	r.A = uint8(diff)
	r.F = bsel(diff&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarrySub[lookup&0x07] |
		tables.Szp[r.A]
}

func execAna(r *core.Registers, value uint8) {
	// The 8080's ANA sets H from the OR of the operand bit 3s (a
	// documented quirk distinct from the Z80's unconditional H=1).
	h := bsel((r.A|value)&0x08 != 0, core.FlagH, 0)
	r.A &= value
	r.F = h | tables.Szp[r.A]
}

func execXra(r *core.Registers, value uint8) {
	r.A ^= value
	r.F = tables.Szp[r.A]
}

func execOra(r *core.Registers, value uint8) {
	r.A |= value
	r.F = tables.Szp[r.A]
}

func execCmp(r *core.Registers, value uint8) {
	diff := uint16(r.A) - uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((diff&0x88)>>1)
	r.F = bsel(diff&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarrySub[lookup&0x07] |
		tables.Szp[uint8(diff)]
}

func execInr(r *core.Registers, reg *uint8) {
	*reg++
	r.F = (r.F & core.FlagC) | bsel(*reg&0x0F != 0, 0, core.FlagH) | tables.Szp[*reg]
}

func execDcr(r *core.Registers, reg *uint8) {
	r.F = (r.F & core.FlagC) | bsel(*reg&0x0F != 0, 0, core.FlagH)
	*reg--
	r.F |= tables.Szp[*reg]
}

// execDaa implements the 8080's DAA: unlike the Z80 it is not sensitive
// to a prior subtract (there is no N flag), it always applies the
// add-style correction.
func execDaa(r *core.Registers) {
	var add uint8
	carry := r.F & core.FlagC
	if r.F&core.FlagH != 0 || r.A&0x0F > 9 {
		add = 0x06
	}
	if carry != 0 || r.A > 0x99 || (r.A+add) > 0x9F {
		add |= 0x60
		carry = core.FlagC
	}
	execAdd(r, add)
	r.F = (r.F &^ core.FlagC) | carry
}

func execDad(r *core.Registers, hl, value uint16) uint16 {
	result := uint32(hl) + uint32(value)
	r.F = (r.F &^ core.FlagC) | bsel(result&0x10000 != 0, core.FlagC, 0)
	return uint16(result)
}
