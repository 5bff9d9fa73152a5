package core

import "math/rand/v2"

// Registers is the Z80/I8080 register file (§3). Both decoders share one
// value; switching models clears only model-specific state (IX/IY, the
// alternate bank, WZ) and leaves A,F,B,C,D,E,H,L,SP,PC intact (a switch to
// the I8080 also forces F's N/Y/X bits), per the power-on/model-switch
// lifecycle rules.
//
// Kept as a plain value type, cheap to copy for snapshotting, in the same
// spirit as the teacher's cpu.State — generalized here to the full
// register set the complete instruction set needs instead of the
// superoptimizer's 11-byte slice of it.
type Registers struct {
	A, F, B, C, D, E, H, L uint8

	// Alternate bank. Unused by I8080 but harmless to carry: EXX/EX AF,AF'
	// simply never execute under the I8080 decoder.
	A_, F_, B_, C_, D_, E_, H_, L_ uint8

	IX, IY uint16
	SP, PC uint16

	// WZ is the internal latch (Z80 only) whose bytes leak into the
	// undocumented Y/X flags of BIT n,(HL) and similar ops.
	WZ uint16

	I  uint8 // interrupt vector base
	r  uint8 // 7-bit refresh counter
	r7 uint8 // latched 8th bit, either 0x00 or 0x80

	IFF1, IFF2 bool
	IM         uint8 // 0, 1 or 2

	// IntProtection is set by EI and cleared after the *next* instruction
	// retires, making "EI; RET" atomic with respect to interrupt delivery.
	IntProtection bool
}

// BC, DE, HL, AF, SP, PC accessors for 16-bit register pairs.

func (r *Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }
func (r *Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F) }

func (r *Registers) SetBC(v uint16) { r.B, r.C = uint8(v>>8), uint8(v) }
func (r *Registers) SetDE(v uint16) { r.D, r.E = uint8(v>>8), uint8(v) }
func (r *Registers) SetHL(v uint16) { r.H, r.L = uint8(v>>8), uint8(v) }
func (r *Registers) SetAF(v uint16) { r.A, r.F = uint8(v>>8), uint8(v) }

// R returns the full 7-bit-plus-latch refresh byte (§3: "R is a 7-bit
// counter; bit 7 lives in R7 and is preserved across increments").
func (r *Registers) R() uint8 { return (r.r & 0x7F) | (r.r7 & 0x80) }

// SetR implements LD R,A: writes the full 8 bits, refresh counter and latch.
func (r *Registers) SetR(v uint8) {
	r.r = v & 0x7F
	r.r7 = v & 0x80
}

// IncR increments the 7-bit refresh counter by one, preserving R7. Called
// once per M1 opcode fetch and once per accepted prefix byte (§3, §4.6).
func (r *Registers) IncR() {
	r.r = (r.r + 1) & 0x7F
}

// Exx swaps {BC,DE,HL} with their alternates. EX AF,AF' is separate
// because it swaps only AF (§4.4).
func (r *Registers) Exx() {
	r.B, r.B_ = r.B_, r.B
	r.C, r.C_ = r.C_, r.C
	r.D, r.D_ = r.D_, r.D
	r.E, r.E_ = r.E_, r.E
	r.H, r.H_ = r.H_, r.H
	r.L, r.L_ = r.L_, r.L
}

// ExAF swaps AF and AF'.
func (r *Registers) ExAF() {
	r.A, r.A_ = r.A_, r.A
	r.F, r.F_ = r.F_, r.F
}

// ResetForModelSwitch clears the model-specific state (IX/IY, the
// alternate bank, WZ) on a model switch (§3 Lifecycle): "Model-switch
// preserves shared state and sets {N=1, Y=0, X=0} when switching to I8080."
func (r *Registers) ResetForModelSwitch(to Model) {
	r.IX, r.IY, r.WZ = 0, 0, 0
	r.A_, r.F_, r.B_, r.C_, r.D_, r.E_, r.H_, r.L_ = 0, 0, 0, 0, 0, 0, 0, 0
	if to == ModelI8080 {
		r.F = (r.F &^ (FlagY | FlagX)) | FlagN
	}
}

// PowerOn randomizes every register except PC, which is forced to 0 (§3
// Lifecycle: "At power-on all registers except PC are randomized; PC=0;
// IFF=0"). Seeded the way the teacher's stoke.NewChain seeds its MCMC
// chain's rand.PCG, so a given seed reproduces the same "garbage" power-on
// state for repeatable tests.
func (r *Registers) PowerOn(seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0xDEADBEEF))
	next := func() uint8 { return uint8(rng.Uint32()) }
	r.A, r.F, r.B, r.C, r.D, r.E, r.H, r.L = next(), next(), next(), next(), next(), next(), next(), next()
	r.A_, r.F_, r.B_, r.C_, r.D_, r.E_, r.H_, r.L_ = next(), next(), next(), next(), next(), next(), next(), next()
	r.IX = uint16(next())<<8 | uint16(next())
	r.IY = uint16(next())<<8 | uint16(next())
	r.SP = uint16(next())<<8 | uint16(next())
	r.WZ = uint16(next())<<8 | uint16(next())
	r.I = next()
	r.r = next() & 0x7F
	r.r7 = next() & 0x80
	r.IM = next() % 3

	r.PC = 0
	r.IFF1 = false
	r.IFF2 = false
	r.IntProtection = false
}

// Reset implements the CPU reset pulse (§3 Lifecycle). Z80-only fields
// (I, R, R7, IM) are reset only when resetting a Z80; callers reset the
// fields appropriate to the active model.
func (r *Registers) Reset(model Model) {
	r.PC = 0
	r.IFF1 = false
	r.IFF2 = false
	r.IntProtection = false
	if model == ModelZ80 {
		r.I = 0
		r.r = 0
		r.r7 = 0
		r.IM = 0
	}
}
