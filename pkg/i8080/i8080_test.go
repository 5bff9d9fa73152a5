package i8080

import (
	"testing"

	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
	"github.com/oisee/z80emu/pkg/memory"
	"github.com/oisee/z80emu/pkg/ports"
)

func newTestCPU() *CPU {
	bus := memory.New(0)
	pb := ports.New()
	irq := interrupt.New()
	regs := &core.Registers{}
	return New(regs, bus, pb, irq)
}

// TestAnaFlagsFromOr verifies ANA's documented H-flag quirk: H is set from
// the OR of both operands' bit 3, not unconditionally as on the Z80.
func TestAnaFlagsFromOr(t *testing.T) {
	c := newTestCPU()
	c.Regs.B = 0x08 // bit 3 set only in B, not in A
	c.Regs.A = 0x00

	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0xA0) // ANA B

	c.Step()

	if c.Regs.A != 0x00 {
		t.Fatalf("ANA B: A = %#02x, want 0x00", c.Regs.A)
	}
	if c.Regs.F&core.FlagH == 0 {
		t.Errorf("ANA B: H should be set (OR of bit 3 of A=0x00 and B=0x08)")
	}
	if c.Regs.F&core.FlagN == 0 {
		t.Errorf("ANA B: N should read 1 (hardwired on 8080 silicon)")
	}
	if c.Regs.F&(core.FlagY|core.FlagX) != 0 {
		t.Errorf("ANA B: Y/X should never be set on the 8080 decoder")
	}
}

// TestAnaNoHalfCarryWhenBothClear verifies the same OR quirk in the other
// direction: H clears when neither operand has bit 3 set.
func TestAnaNoHalfCarryWhenBothClear(t *testing.T) {
	c := newTestCPU()
	c.Regs.A = 0x01
	c.Regs.B = 0x01

	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0xA0) // ANA B

	c.Step()

	if c.Regs.F&core.FlagH != 0 {
		t.Errorf("ANA B: H should be clear when neither operand has bit 3 set")
	}
}

// TestMovRegisterToMemory verifies MOV M,r and the basic MOV register form.
func TestMovRegisterToMemory(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetHL(0x5000)
	c.Regs.B = 0x42

	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0x70) // MOV M,B

	tstates := c.Step()
	if got := c.Bus.Read(0x5000); got != 0x42 {
		t.Fatalf("MOV M,B: mem = %#02x, want 0x42", got)
	}
	if tstates != 7 {
		t.Errorf("MOV M,B: %d T-states, want 7", tstates)
	}
}

// TestDaaAfterAdd verifies the 8080's unconditional add-style DAA
// correction (no N-flag sensitivity, unlike the Z80).
func TestDaaAfterAdd(t *testing.T) {
	c := newTestCPU()
	c.Regs.A = 0x15
	execAdd(c.Regs, 0x27) // 0x15 + 0x27 = 0x3C
	if c.Regs.A != 0x3C {
		t.Fatalf("ADD: A = %#02x, want 0x3C", c.Regs.A)
	}
	execDaa(c.Regs)
	if c.Regs.A != 0x42 {
		t.Fatalf("DAA: A = %#02x, want 0x42 (BCD 15+27=42)", c.Regs.A)
	}
	// H ends up set: DAA folds its 0x06 correction back in through the
	// same add path as ADD, and 0xC+0x6 carries out of bit 3 on real
	// silicon. See DESIGN.md's Open Questions entry on this scenario.
	want := core.FlagH | core.FlagP
	if c.Regs.F != want {
		t.Fatalf("DAA: F = %#02x, want %#02x (H set, C clear, P set, Z/S clear)", c.Regs.F, want)
	}
}

// TestPopPswMasksFlagBits verifies POP PSW forces the hardwired flag-byte
// bits (N=1, Y=0, X=0) regardless of what was on the stack.
func TestPopPswMasksFlagBits(t *testing.T) {
	c := newTestCPU()
	c.Regs.SP = 0x8000
	// Push a flag byte with Y, X set and N clear - all of which a real
	// 8080 would never produce, to prove POP PSW scrubs them.
	c.Bus.Write(0x8000, core.FlagY|core.FlagX|core.FlagZ)
	c.Bus.Write(0x8001, 0x99) // A

	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0xF1) // POP PSW

	c.Step()

	if c.Regs.A != 0x99 {
		t.Fatalf("POP PSW: A = %#02x, want 0x99", c.Regs.A)
	}
	if c.Regs.F&core.FlagN == 0 {
		t.Errorf("POP PSW: N should be forced to 1")
	}
	if c.Regs.F&(core.FlagY|core.FlagX) != 0 {
		t.Errorf("POP PSW: Y/X should be forced to 0")
	}
	if c.Regs.F&core.FlagZ == 0 {
		t.Errorf("POP PSW: Z should survive the mask")
	}
}

// TestInterruptDeliversDeviceOpcode verifies the 8080's interrupt model:
// the data byte the device publishes is executed directly as the next
// opcode (almost always a single-byte RST), with no IM0/1/2 distinction.
func TestInterruptDeliversDeviceOpcode(t *testing.T) {
	c := newTestCPU()
	c.Regs.IFF1 = true
	c.Regs.SP = 0x8000
	c.Regs.PC = 0x4000

	c.IRQ.RequestInterrupt(0xCF) // RST 1 (PC <- 0x0008)

	tstates := c.Step()

	if c.Regs.PC != 0x0008 {
		t.Fatalf("interrupt: PC = %#04x, want 0x0008", c.Regs.PC)
	}
	if c.Regs.IFF1 {
		t.Errorf("interrupt delivery should clear IFF1")
	}
	if tstates != 11 {
		t.Errorf("RST via interrupt: %d T-states, want 11", tstates)
	}

	// Confirm the return address pushed was the pre-interrupt PC.
	lo := c.Bus.Read(0x7FFE)
	hi := c.Bus.Read(0x7FFF)
	ret := uint16(hi)<<8 | uint16(lo)
	if ret != 0x4000 {
		t.Errorf("interrupt: pushed return address = %#04x, want 0x4000", ret)
	}
}

// TestInterruptIgnoredWhenDisabled verifies DI genuinely blocks delivery.
func TestInterruptIgnoredWhenDisabled(t *testing.T) {
	c := newTestCPU()
	c.Regs.IFF1 = false
	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0x00) // NOP

	c.IRQ.RequestInterrupt(0xCF)
	c.Step()

	if c.Regs.PC != 0x4001 {
		t.Fatalf("interrupt serviced while disabled: PC = %#04x", c.Regs.PC)
	}
}

// TestXchgSwapsDEandHL verifies XCHG's plain register-pair swap (no shared
// WZ/indexed-prefix concerns, unlike the Z80's EX DE,HL exception).
func TestXchgSwapsDEandHL(t *testing.T) {
	c := newTestCPU()
	c.Regs.SetDE(0x1234)
	c.Regs.SetHL(0x5678)

	c.Regs.PC = 0x4000
	c.Bus.Write(0x4000, 0xEB) // XCHG

	c.Step()

	if c.Regs.DE() != 0x5678 || c.Regs.HL() != 0x1234 {
		t.Fatalf("XCHG: DE=%#04x HL=%#04x, want DE=0x5678 HL=0x1234", c.Regs.DE(), c.Regs.HL())
	}
}
