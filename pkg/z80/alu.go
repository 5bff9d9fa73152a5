package z80

import (
	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/tables"
)

// bsel is a branchless flag selector, ported from the teacher's
// pkg/cpu/exec.go helper of the same name.
func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}

// The ALU helpers below are a direct generalization of the teacher's
// execAdd/execSub/execAnd/.../execBit family (pkg/cpu/exec.go), itself
// ported from remogatto/z80: table lookup for S/Z/P/Y/X, explicit
// computation for H/N/C/V. They operate on *core.Registers instead of the
// superoptimizer's cpu.State so the same code serves the full register
// file rather than just A and F.

func execAdd(r *core.Registers, value uint8) {
	addtemp := uint16(r.A) + uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((addtemp&0x88)>>1)
	r.A = uint8(addtemp)
	r.F = bsel(addtemp&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarryAdd[lookup&0x07] |
		tables.OverflowAdd[lookup>>4] |
		tables.Szyx[r.A]
}

func execAdc(r *core.Registers, value uint8) {
	adctemp := uint16(r.A) + uint16(value) + uint16(r.F&core.FlagC)
	lookup := uint8(((uint16(r.A) & 0x88) >> 3) | ((uint16(value) & 0x88) >> 2) | ((adctemp & 0x88) >> 1))
	r.A = uint8(adctemp)
	r.F = bsel(adctemp&0x100 != 0, core.FlagC, 0) |
		tables.HalfcarryAdd[lookup&0x07] |
		tables.OverflowAdd[lookup>>4] |
		tables.Szyx[r.A]
}

func execSub(r *core.Registers, value uint8) {
	subtemp := uint16(r.A) - uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((subtemp&0x88)>>1)
	r.A = uint8(subtemp)
	r.F = bsel(subtemp&0x100 != 0, core.FlagC, 0) | core.FlagN |
		tables.HalfcarrySub[lookup&0x07] |
		tables.OverflowSub[lookup>>4] |
		tables.Szyx[r.A]
}

func execSbc(r *core.Registers, value uint8) {
	sbctemp := uint16(r.A) - uint16(value) - uint16(r.F&core.FlagC)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((sbctemp&0x88)>>1)
	r.A = uint8(sbctemp)
	r.F = bsel(sbctemp&0x100 != 0, core.FlagC, 0) | core.FlagN |
		tables.HalfcarrySub[lookup&0x07] |
		tables.OverflowSub[lookup>>4] |
		tables.Szyx[r.A]
}

func execAnd(r *core.Registers, value uint8) {
	r.A &= value
	r.F = core.FlagH | tables.Szyxp[r.A]
}

func execOr(r *core.Registers, value uint8) {
	r.A |= value
	r.F = tables.Szyxp[r.A]
}

func execXor(r *core.Registers, value uint8) {
	r.A ^= value
	r.F = tables.Szyxp[r.A]
}

func execCp(r *core.Registers, value uint8) {
	cptemp := uint16(r.A) - uint16(value)
	lookup := ((r.A & 0x88) >> 3) | ((value & 0x88) >> 2) | uint8((cptemp&0x88)>>1)
	r.F = bsel(cptemp&0x100 != 0, core.FlagC, bsel(cptemp != 0, 0, core.FlagZ)) |
		core.FlagN |
		tables.HalfcarrySub[lookup&0x07] |
		tables.OverflowSub[lookup>>4] |
		(value & (core.FlagX | core.FlagY)) |
		uint8(cptemp&uint16(core.FlagS))
}

func execInc(r *core.Registers, reg *uint8) {
	*reg++
	r.F = (r.F & core.FlagC) |
		bsel(*reg == 0x80, core.FlagV, 0) |
		bsel(*reg&0x0F != 0, 0, core.FlagH) |
		tables.Szyx[*reg]
}

func execDec(r *core.Registers, reg *uint8) {
	r.F = (r.F & core.FlagC) | bsel(*reg&0x0F != 0, 0, core.FlagH) | core.FlagN
	*reg--
	r.F |= bsel(*reg == 0x7F, core.FlagV, 0) | tables.Szyx[*reg]
}

func execDaa(r *core.Registers) {
	var add, carry uint8
	carry = r.F & core.FlagC
	if (r.F&core.FlagH) != 0 || (r.A&0x0F) > 9 {
		add = 6
	}
	if carry != 0 || r.A > 0x99 {
		add |= 0x60
	}
	if r.A > 0x99 {
		carry = core.FlagC
	}
	if (r.F & core.FlagN) != 0 {
		execSub(r, add)
	} else {
		execAdd(r, add)
	}
	r.F = (r.F &^ (core.FlagC | core.FlagP)) | carry | tables.Parity(r.A)
}

// CB-prefix rotate/shift helpers (return the new value).

func execRlc(r *core.Registers, v uint8) uint8 {
	v = (v << 1) | (v >> 7)
	r.F = (v & core.FlagC) | tables.Szyxp[v]
	return v
}

func execRrc(r *core.Registers, v uint8) uint8 {
	r.F = v & core.FlagC
	v = (v >> 1) | (v << 7)
	r.F |= tables.Szyxp[v]
	return v
}

func execRl(r *core.Registers, v uint8) uint8 {
	old := v
	v = (v << 1) | (r.F & core.FlagC)
	r.F = (old >> 7) | tables.Szyxp[v]
	return v
}

func execRr(r *core.Registers, v uint8) uint8 {
	old := v
	v = (v >> 1) | (r.F << 7)
	r.F = (old & core.FlagC) | tables.Szyxp[v]
	return v
}

func execSla(r *core.Registers, v uint8) uint8 {
	r.F = v >> 7
	v <<= 1
	r.F |= tables.Szyxp[v]
	return v
}

func execSra(r *core.Registers, v uint8) uint8 {
	r.F = v & core.FlagC
	v = (v & 0x80) | (v >> 1)
	r.F |= tables.Szyxp[v]
	return v
}

func execSrl(r *core.Registers, v uint8) uint8 {
	r.F = v & core.FlagC
	v >>= 1
	r.F |= tables.Szyxp[v]
	return v
}

// execSll implements the undocumented SLL: shift left, force bit 0 to 1.
func execSll(r *core.Registers, v uint8) uint8 {
	r.F = v >> 7
	v = (v << 1) | 0x01
	r.F |= tables.Szyxp[v]
	return v
}

// execAddHL implements ADD HL/IX/IY, rr: 16-bit add, H from bit 11 carry,
// N=0, C from bit 15 carry; S, Z, P/V preserved.
func execAddHL(r *core.Registers, hl, value uint16) uint16 {
	result := uint32(hl) + uint32(value)
	hc := (hl & 0x0FFF) + (value & 0x0FFF)
	r.F = (r.F & (core.FlagS | core.FlagZ | core.FlagP)) |
		bsel(hc&0x1000 != 0, core.FlagH, 0) |
		bsel(result&0x10000 != 0, core.FlagC, 0) |
		(uint8(result>>8) & (core.FlagX | core.FlagY))
	return uint16(result)
}

// execAdcHL implements ADC HL,rr: full S,Z,H,P/V,N,C computation.
func execAdcHL(r *core.Registers, hl, value uint16) uint16 {
	carry := uint(r.F & core.FlagC)
	result := uint(hl) + uint(value) + carry
	lookup := byte(((uint(hl) & 0x8800) >> 11) | ((uint(value) & 0x8800) >> 10) | ((result & 0x8800) >> 9))
	h := uint8(result >> 8)
	l := uint8(result)
	r.F = bsel(result&0x10000 != 0, core.FlagC, 0) |
		tables.OverflowAdd[lookup>>4] |
		(h & (core.FlagX | core.FlagY | core.FlagS)) |
		tables.HalfcarryAdd[lookup&0x07] |
		bsel(h|l != 0, 0, core.FlagZ)
	return uint16(result)
}

// execSbcHL implements SBC HL,rr: full S,Z,H,P/V,N,C computation.
func execSbcHL(r *core.Registers, hl, value uint16) uint16 {
	carry := uint(r.F & core.FlagC)
	result := uint(hl) - uint(value) - carry
	lookup := byte(((uint(hl) & 0x8800) >> 11) | ((uint(value) & 0x8800) >> 10) | ((result & 0x8800) >> 9))
	h := uint8(result >> 8)
	l := uint8(result)
	r.F = bsel(result&0x10000 != 0, core.FlagC, 0) |
		core.FlagN |
		tables.OverflowSub[lookup>>4] |
		(h & (core.FlagX | core.FlagY | core.FlagS)) |
		tables.HalfcarrySub[lookup&0x07] |
		bsel(h|l != 0, 0, core.FlagZ)
	return uint16(result)
}

// execBit implements BIT n,r: test bit n, set flags only. For Z80,
// undocumented Y/X come from the tested byte's own bits 5/3 except for
// the (HL)/(IX+d)/(IY+d) forms, where they leak from the WZ latch's high
// byte instead (§4.6, scenario 4 of §8).
func execBit(r *core.Registers, v uint8, bit uint8, undocSource uint8) {
	r.F = (r.F & core.FlagC) | core.FlagH | (undocSource & (core.FlagX | core.FlagY))
	if v&(1<<bit) == 0 {
		r.F |= core.FlagP | core.FlagZ
	}
	if bit == 7 && v&0x80 != 0 {
		r.F |= core.FlagS
	}
}
