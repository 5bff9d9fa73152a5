// Package tables holds the precomputed, byte-indexed flag tables of §4.1.
// These are the key to fast and correct arithmetic: S/Z/P/Y/X depend only
// on the result byte and can be tabulated; H, N, C and V depend on operand
// pairs and carry-in and are computed per-operation in pkg/z80 and
// pkg/i8080 instead.
//
// Ported and renamed from the teacher's pkg/cpu/flags.go (itself a port of
// remogatto/z80's table generation) to the spec's szp/szyx/szyxp naming and
// extended with the half-carry/overflow lookup tables both decoders need.
package tables

import "github.com/oisee/z80emu/pkg/core"

var (
	// Szp holds S, Z, P for every possible result byte. Used by the I8080
	// decoder, which has no undocumented Y/X flags.
	Szp [256]uint8

	// Szyx holds S, Z, Y, X (no parity) for every result byte. Used where
	// an instruction sets S/Z/undocumented bits but parity is irrelevant
	// (e.g. INC/DEC and the 8-bit add/subtract family, where P/V is
	// overflow).
	Szyx [256]uint8

	// Szyxp holds S, Z, Y, X, P together — the common case for logical
	// operations and CB-prefix rotate/shift results.
	Szyxp [256]uint8

	// HalfcarryAdd/HalfcarrySub and OverflowAdd/OverflowSub are indexed by
	// a 3-bit lookup built from one bit of the two operands and the result:
	// bit 3 (or bit 11, for 16-bit ops) for the half-carry tables, bit 7
	// (or bit 15) for the overflow tables, per the classic remogatto/z80 technique
	// also used verbatim by the teacher (pkg/cpu/flags.go).
	HalfcarryAdd = [8]uint8{0, core.FlagH, core.FlagH, core.FlagH, 0, 0, 0, core.FlagH}
	HalfcarrySub = [8]uint8{0, 0, core.FlagH, 0, core.FlagH, 0, core.FlagH, core.FlagH}
	OverflowAdd  = [8]uint8{0, 0, 0, core.FlagV, core.FlagV, 0, 0, 0}
	OverflowSub  = [8]uint8{0, core.FlagV, 0, 0, 0, 0, core.FlagV, 0}
)

func init() {
	for i := 0; i < 256; i++ {
		b := uint8(i)

		szyx := b & (core.FlagY | core.FlagX | core.FlagS)

		parity := uint8(0)
		v := b
		for k := 0; k < 8; k++ {
			parity ^= v & 1
			v >>= 1
		}
		var p uint8
		if parity == 0 {
			p = core.FlagP
		}

		Szyx[i] = szyx
		Szyxp[i] = szyx | p
		Szp[i] = (b & core.FlagS) | p
	}
	Szyx[0] |= core.FlagZ
	Szyxp[0] |= core.FlagZ
	Szp[0] |= core.FlagZ
}

// Parity returns the parity flag bit alone for a result byte (I8080's P
// flag reflects parity only, never S/Z, per §3).
func Parity(b uint8) uint8 {
	return Szp[b] & core.FlagP
}
