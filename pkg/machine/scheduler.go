// Package machine implements the scheduler/driver of §4.8: the
// ContinRun/SingleStep/Stopped/ModelSwitch/Reset state machine that
// drives either decoder's Step, accounts T-states, throttles wall-clock
// speed to a configured MHz figure and exposes the front-panel
// wait_step/wait_int_step hooks — built the way the teacher's
// pkg/search/worker.go drives its WorkerPool: a mutex guarding
// start/stop transitions, atomic counters for the numbers a front panel
// polls concurrently while the run loop is live.
package machine

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oisee/z80emu/pkg/core"
	"github.com/oisee/z80emu/pkg/core/interrupt"
	"github.com/oisee/z80emu/pkg/i8080"
	"github.com/oisee/z80emu/pkg/z80"
)

// Executor is the decoder surface the scheduler drives. Both z80.CPU and
// i8080.CPU satisfy it.
type Executor interface {
	Step() int
	Reset()
}

// Scheduler owns the shared register file and both decoders, and runs
// whichever one matches the active Model (§3, §4.8).
type Scheduler struct {
	Regs  core.Registers
	Bus   core.MemoryBus
	Ports core.PortBus
	IRQ   *interrupt.Fabric

	Model core.Model
	z80   *z80.CPU
	i8080 *i8080.CPU

	// MHz is the target clock frequency used to throttle ContinRun; zero
	// or negative means unthrottled (run as fast as possible).
	MHz float64

	mu    sync.Mutex
	state core.RunState

	tstates   atomic.Uint64
	lastError atomic.Uint32 // core.ErrorKind, stored as uint32

	// WaitStep and WaitIntStep are the optional front-panel hooks of
	// §4.8, invoked once per instruction and once per serviced interrupt.
	// The 8080 decoder has no interrupt hook, so WaitIntStep fires only
	// while the Z80 model is active.
	WaitStep    func(m *Scheduler)
	WaitIntStep func(m *Scheduler)
}

// New creates a scheduler wired to both decoders over one shared
// register file, starting on the given model and in the Stopped state.
func New(bus core.MemoryBus, ports core.PortBus, irq *interrupt.Fabric, model core.Model) *Scheduler {
	m := &Scheduler{
		Bus:   bus,
		Ports: ports,
		IRQ:   irq,
		Model: model,
		state: core.StateStopped,
	}
	m.z80 = z80.New(&m.Regs, bus, ports, irq)
	m.i8080 = i8080.New(&m.Regs, bus, ports, irq)
	m.z80.WaitStep = func(*z80.CPU) { m.fireWaitStep() }
	m.z80.WaitIntStep = func(*z80.CPU) { m.fireWaitIntStep() }
	m.i8080.WaitStep = func(*i8080.CPU) { m.fireWaitStep() }
	m.Regs.PowerOn(rand.Uint64())
	return m
}

// PowerOn re-applies the §3 power-on lifecycle rule with a caller-chosen
// seed, for reproducible "garbage register" test fixtures; New already
// applies it once with a fresh seed.
func (m *Scheduler) PowerOn(seed uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Regs.PowerOn(seed)
	m.state = core.StateStopped
}

func (m *Scheduler) fireWaitStep() {
	if m.WaitStep != nil {
		m.WaitStep(m)
	}
}

func (m *Scheduler) fireWaitIntStep() {
	if m.WaitIntStep != nil {
		m.WaitIntStep(m)
	}
}

func (m *Scheduler) active() Executor {
	if m.Model == core.ModelI8080 {
		return m.i8080
	}
	return m.z80
}

// State returns the current scheduler state.
func (m *Scheduler) State() core.RunState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState stores the requested state (§4.8). Run checks it at every
// instruction boundary and returns once it is anything other than
// ContinRun. Setting StateReset or StateModelSwitch performs no reset or
// switch by itself; Reset and SwitchModel do that.
func (m *Scheduler) SetState(s core.RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// TStates returns the running T-state count since the last Reset.
func (m *Scheduler) TStates() uint64 { return m.tstates.Load() }

// LastError returns the most recent cpu_error surfaced by Step (§7).
func (m *Scheduler) LastError() core.ErrorKind {
	return core.ErrorKind(m.lastError.Load())
}

// Reset implements the reset pulse: clears T-states, resets the active
// decoder, and returns to Stopped.
func (m *Scheduler) Reset() {
	m.active().Reset()
	m.tstates.Store(0)
	m.lastError.Store(uint32(core.ErrNone))
	m.SetState(core.StateStopped)
}

// SwitchModel implements §3's model-switch lifecycle rule: shared state
// (A,F,B,C,D,E,H,L,SP,PC) is preserved, model-specific state is reset,
// and the newly active decoder starts servicing Step calls.
func (m *Scheduler) SwitchModel(to core.Model) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Regs.ResetForModelSwitch(to)
	m.Model = to
	m.state = core.StateStopped
}

// errorOf reads back whichever decoder is active's Error field.
func (m *Scheduler) errorOf() core.ErrorKind {
	if m.Model == core.ModelI8080 {
		return m.i8080.Error
	}
	return m.z80.Error
}

func (m *Scheduler) clearError() {
	if m.Model == core.ModelI8080 {
		m.i8080.Error = core.ErrNone
	} else {
		m.z80.Error = core.ErrNone
	}
}

// Step executes exactly one instruction on the active decoder,
// accumulating T-states and surfacing any cpu_error (§4.5, §4.8).
func (m *Scheduler) Step() (int, core.ErrorKind) {
	m.clearError()
	t := m.active().Step()
	m.tstates.Add(uint64(t))
	err := m.errorOf()
	m.lastError.Store(uint32(err))
	return t, err
}

// Run drives ContinRun until the state changes away from it, an error
// that Fatal()s is raised, or stop is closed. If MHz is set, wall-clock
// speed is throttled to approximate that frequency by sleeping whenever
// execution has gotten ahead of schedule.
func (m *Scheduler) Run(stop <-chan struct{}) core.ErrorKind {
	m.SetState(core.StateContinRun)
	start := time.Now()
	var startT uint64 = m.tstates.Load()

	for {
		select {
		case <-stop:
			m.SetState(core.StateStopped)
			return core.ErrNone
		default:
		}

		if m.State() != core.StateContinRun {
			return core.ErrNone
		}

		_, err := m.Step()
		if err.Fatal() {
			m.SetState(core.StateStopped)
			return err
		}

		if m.MHz > 0 {
			elapsedStates := m.tstates.Load() - startT
			wantElapsed := time.Duration(float64(elapsedStates) / (m.MHz * 1e6) * float64(time.Second))
			actualElapsed := time.Since(start)
			if wantElapsed > actualElapsed {
				time.Sleep(wantElapsed - actualElapsed)
			}
		}
	}
}
