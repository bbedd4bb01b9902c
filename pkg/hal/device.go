// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/eruption-core/eruptiond/pkg/state"
)

// Lifecycle states, matching the device lifecycle state machine: Unbound ->
// Bound -> Opened -> Initialized. Failed is reachable from Opened and
// Initialized; Closed is the terminal state, reached on unplug from Bound,
// Opened, Initialized or Failed.
const (
	StateUnbound     = "Unbound"
	StateBound       = "Bound"
	StateOpened      = "Opened"
	StateInitialized = "Initialized"
	StateFailed      = "Failed"
	StateClosed      = "Closed"
)

// Triggers driving the lifecycle FSM.
const (
	TriggerBind   = "bind"
	TriggerOpen   = "open"
	TriggerInit   = "init"
	TriggerFail   = "fail"
	TriggerUnplug = "unplug"
)

func newLifecycleFSM(name string) (*state.FSM, error) {
	return state.New(&state.Config{
		Name:         name,
		InitialState: StateUnbound,
		States:       []string{StateUnbound, StateBound, StateOpened, StateInitialized, StateFailed, StateClosed},
		Transitions: []state.Transition{
			{From: StateUnbound, To: StateBound, Trigger: TriggerBind},
			{From: StateBound, To: StateOpened, Trigger: TriggerOpen},
			{From: StateOpened, To: StateInitialized, Trigger: TriggerInit},
			{From: StateOpened, To: StateFailed, Trigger: TriggerFail},
			{From: StateInitialized, To: StateFailed, Trigger: TriggerFail},
			{From: StateBound, To: StateClosed, Trigger: TriggerUnplug},
			{From: StateOpened, To: StateClosed, Trigger: TriggerUnplug},
			{From: StateInitialized, To: StateClosed, Trigger: TriggerUnplug},
			{From: StateFailed, To: StateClosed, Trigger: TriggerUnplug},
		},
	})
}

// ManagedDevice pairs a bound driver with its lifecycle FSM and identity.
type ManagedDevice struct {
	Handle DeviceHandle
	Info   DeviceInfo
	Driver Driver
	fsm    *state.FSM
}

// Fire advances the device's lifecycle FSM, e.g. on bind/open/init/fail/unplug.
func (m *ManagedDevice) Fire(ctx context.Context, trigger string) error {
	return m.fsm.Fire(ctx, trigger, nil)
}

// State returns the device's current lifecycle state.
func (m *ManagedDevice) State() string {
	return m.fsm.CurrentState()
}

// Table is the device handle -> ManagedDevice map consulted by the
// scheduler, compositor, and RPC surface. It is mutated only by the
// hotplug watcher and shutdown; all other accesses are reads, so the lock
// favors readers.
type Table struct {
	mu      sync.RWMutex
	devices map[DeviceHandle]*ManagedDevice
	nextID  atomic.Uint64
}

// NewTable creates an empty device table.
func NewTable() *Table {
	return &Table{devices: make(map[DeviceHandle]*ManagedDevice)}
}

// Bind allocates a new handle for info and drv, starts its lifecycle FSM in
// Unbound, and immediately fires the bind trigger.
func (t *Table) Bind(ctx context.Context, info DeviceInfo, drv Driver) (*ManagedDevice, error) {
	handle := DeviceHandle(t.nextID.Add(1))

	fsm, err := newLifecycleFSM(deviceFSMName(handle))
	if err != nil {
		return nil, err
	}

	md := &ManagedDevice{Handle: handle, Info: info, Driver: drv, fsm: fsm}
	if err := md.Fire(ctx, TriggerBind); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.devices[handle] = md
	t.mu.Unlock()

	return md, nil
}

// Get returns the managed device for a handle.
func (t *Table) Get(handle DeviceHandle) (*ManagedDevice, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	md, ok := t.devices[handle]
	return md, ok
}

// Remove deletes a device from the table, e.g. after its unplug transition completes.
func (t *Table) Remove(handle DeviceHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.devices, handle)
}

// All returns a snapshot slice of every managed device, stable order by handle.
func (t *Table) All() []*ManagedDevice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*ManagedDevice, 0, len(t.devices))
	for _, md := range t.devices {
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Active returns every device currently in the Initialized state, i.e. the
// set the scheduler should render/read from this tick.
func (t *Table) Active() []*ManagedDevice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*ManagedDevice, 0, len(t.devices))
	for _, md := range t.devices {
		if md.State() == StateInitialized {
			out = append(out, md)
		}
	}
	return out
}

func deviceFSMName(handle DeviceHandle) string {
	return "hal.device." + strconv.FormatUint(uint64(handle), 10)
}
