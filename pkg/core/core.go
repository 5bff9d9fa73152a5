// Package core holds the data model shared by the Z80 and I8080 executors:
// register file, flag bits, model identity, the machine-state enum and the
// bus interfaces the decoders are given rather than a raw byte array.
package core

import "fmt"

// Model identifies which instruction set a CPU is currently decoding.
type Model uint8

const (
	ModelZ80 Model = iota
	ModelI8080
)

func (m Model) String() string {
	switch m {
	case ModelZ80:
		return "Z80"
	case ModelI8080:
		return "8080"
	default:
		return fmt.Sprintf("Model(%d)", uint8(m))
	}
}

// Flag bit positions in the F register. Shared by both models; on I8080
// Y, X and N are forced per §3 rather than omitted from the layout.
const (
	FlagC uint8 = 0x01 // Carry
	FlagN uint8 = 0x02 // Subtract
	FlagP uint8 = 0x04 // Parity/Overflow
	FlagV       = FlagP
	FlagX uint8 = 0x08 // undocumented bit 3
	FlagH uint8 = 0x10 // Half-carry
	FlagY uint8 = 0x20 // undocumented bit 5
	FlagZ uint8 = 0x40 // Zero
	FlagS uint8 = 0x80 // Sign
)

// ErrorKind is the cpu_error surface from §7. It is returned by the
// executors and inspected by the scheduler rather than raised as a panic
// or a Go error value traveling up the call stack.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrOpHalt
	ErrOpTrap1
	ErrOpTrap2
	ErrOpTrap4
	ErrIOTrapIn
	ErrIOTrapOut
	ErrIOHalt
	ErrIOError
	ErrUserInt
	ErrIntError
	ErrPowerOff
	ErrModelSwitch // internal pseudo-error, recoverable by the scheduler
)

func (e ErrorKind) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrOpHalt:
		return "OpHalt"
	case ErrOpTrap1:
		return "OpTrap1"
	case ErrOpTrap2:
		return "OpTrap2"
	case ErrOpTrap4:
		return "OpTrap4"
	case ErrIOTrapIn:
		return "IOTrapIn"
	case ErrIOTrapOut:
		return "IOTrapOut"
	case ErrIOHalt:
		return "IOHalt"
	case ErrIOError:
		return "IOError"
	case ErrUserInt:
		return "UserInt"
	case ErrIntError:
		return "IntError"
	case ErrPowerOff:
		return "PowerOff"
	case ErrModelSwitch:
		return "ModelSwitch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(e))
	}
}

// Fatal reports whether this error terminates run() per §7's recovery
// policy: only ModelSwitch and None are non-terminal.
func (e ErrorKind) Fatal() bool {
	return e != ErrNone && e != ErrModelSwitch
}

// RunState is the scheduler state machine from §4.8.
type RunState uint8

const (
	StateStopped RunState = iota
	StateContinRun
	StateSingleStep
	StateModelSwitch
	StateReset
)

func (s RunState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateContinRun:
		return "ContinRun"
	case StateSingleStep:
		return "SingleStep"
	case StateModelSwitch:
		return "ModelSwitch"
	case StateReset:
		return "Reset"
	default:
		return fmt.Sprintf("RunState(%d)", uint8(s))
	}
}

// BusStatus is the front-panel-observable bus-status byte from §6.
type BusStatus uint16

const (
	StatusM1 BusStatus = 1 << iota
	StatusMEMR
	StatusMEMW
	StatusINP
	StatusOUT
	StatusHLTA
	StatusINTA
	StatusWO
)

// MemoryBus is the interface the decoders consume (§4.2). pkg/memory
// implements it; the decoder packages never touch a raw buffer.
type MemoryBus interface {
	Fetch(addr uint16) uint8
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
	PageAttribute(page uint8) PageAttr
	SetPageAttribute(page uint8, a PageAttr)
	WriteViolation() bool
	ClearWriteViolation()
}

// PageAttr is a 256-byte page's access attribute (§3).
type PageAttr uint8

const (
	PageRW PageAttr = iota
	PageRO
	PageProtectedRW
)

// PortBus is the interface the decoders consume for IN/OUT (§4.3).
type PortBus interface {
	Input(port uint8) uint8
	Output(port uint8, v uint8)
	InputBusy(port uint8) uint8
}
