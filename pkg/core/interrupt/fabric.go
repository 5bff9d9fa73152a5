// Package interrupt implements the interrupt and bus-request fabric of
// §4.7/§5: the publishing surface devices use to raise NMI/maskable
// interrupts and to take the bus for DMA, built on atomics the way the
// teacher's pkg/search/worker.go builds its WorkerPool stats — lock-free
// counters/flags read by one goroutine (the executor) and written by
// others (device emulations, UI threads).
//
// Go's atomic package gives sequentially consistent operations, which is
// stronger than the relaxed/acquire-release minimum §5 asks for: storing
// IntData before storing IntPending, and the executor loading IntPending
// before IntData, are both already ordered correctly by using atomics for
// both fields — no extra fence is needed.
package interrupt

import "sync/atomic"

// BusMode describes what a DMA master intends to do with the bus once it
// has been granted (§3).
type BusMode uint8

const (
	BusNone BusMode = iota
	BusRead
	BusWrite
	BusReadWrite
)

// DMAMaster is invoked while the bus is held by a peripheral; it performs
// whatever synchronous memory accesses it needs and returns the T-states
// consumed. It must eventually cause EndBusRequest to be called (typically
// by the same goroutine that called StartBusRequest, after the DMA burst
// completes) — see §6's external interface contract.
type DMAMaster func(busAck uint8) (tStates uint64)

// Fabric is the shared interrupt/bus-request state multiple device
// goroutines publish into and the executor drains at the top of every
// instruction step (§4.5 step 1-2, §4.6's extended gate).
type Fabric struct {
	nmiPending atomic.Bool

	intPending atomic.Bool
	intData    atomic.Int32 // -1 means "no data latched"; always valid uint8 otherwise

	busRequest atomic.Bool
	busMode    atomic.Uint32
	dmaMaster  atomic.Pointer[DMAMaster]
}

// New creates an idle fabric (no interrupt or bus request pending).
func New() *Fabric {
	f := &Fabric{}
	f.intData.Store(-1)
	return f
}

// RequestInterrupt publishes a maskable interrupt with its data-bus byte
// (§4.7). The data is stored before the pending flag so that an executor
// observing IntPending==true is guaranteed to see the matching IntData.
func (f *Fabric) RequestInterrupt(data uint8) {
	f.intData.Store(int32(data))
	f.intPending.Store(true)
}

// RequestInterruptInvalid publishes a maskable interrupt with no valid
// data byte, which the executor must treat as IntError (§4.5 step 3,
// §7): "If int_data == -1, raise INTERROR."
func (f *Fabric) RequestInterruptInvalid() {
	f.intData.Store(-1)
	f.intPending.Store(true)
}

// ClearInterrupt acknowledges delivery: clears the pending flag. The
// executor must have already consumed IntData before calling this.
func (f *Fabric) ClearInterrupt() {
	f.intPending.Store(false)
}

// IntPending reports whether a maskable interrupt is awaiting delivery.
func (f *Fabric) IntPending() bool { return f.intPending.Load() }

// IntData returns the latched interrupt data byte, or (0, false) if it was
// published as invalid (RequestInterruptInvalid).
func (f *Fabric) IntData() (uint8, bool) {
	v := f.intData.Load()
	if v < 0 {
		return 0, false
	}
	return uint8(v), true
}

// RequestNMI publishes a non-maskable interrupt (§4.7).
func (f *Fabric) RequestNMI() { f.nmiPending.Store(true) }

// ClearNMI acknowledges NMI delivery.
func (f *Fabric) ClearNMI() { f.nmiPending.Store(false) }

// NMIPending reports whether an NMI is awaiting delivery.
func (f *Fabric) NMIPending() bool { return f.nmiPending.Load() }

// StartBusRequest asks the executor to hand the bus to a DMA master on its
// next instruction boundary (§4.7).
func (f *Fabric) StartBusRequest(mode BusMode, master DMAMaster) {
	f.busMode.Store(uint32(mode))
	f.dmaMaster.Store(&master)
	f.busRequest.Store(true)
}

// EndBusRequest releases the bus back to the CPU.
func (f *Fabric) EndBusRequest() {
	f.busRequest.Store(false)
	f.busMode.Store(uint32(BusNone))
	f.dmaMaster.Store(nil)
}

// BusRequested reports whether a peripheral currently holds (or is
// requesting) the bus.
func (f *Fabric) BusRequested() bool { return f.busRequest.Load() }

// Mode returns the current bus-request mode.
func (f *Fabric) Mode() BusMode { return BusMode(f.busMode.Load()) }

// Master returns the currently registered DMA master callback, or nil.
func (f *Fabric) Master() DMAMaster {
	p := f.dmaMaster.Load()
	if p == nil {
		return nil
	}
	return *p
}
