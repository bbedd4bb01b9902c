// SPDX-License-Identifier: BSD-3-Clause

// Package slot holds the six fixed profile slots, switches the active
// slot or the profile bound to it, and persists slot names across
// restarts.
package slot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eruption-core/eruptiond/pkg/file"
	"github.com/eruption-core/eruptiond/pkg/log"
	"github.com/eruption-core/eruptiond/pkg/profile"
)

// NumSlots is the fixed number of profile slots.
const NumSlots = 6

// ScriptHost is the subset of *scripthost.Host the slot manager needs:
// tearing down every loaded script during quiescence and loading the
// incoming profile's scripts in declared order.
type ScriptHost interface {
	UnloadAll()
	Load(ctx context.Context, name, source string, params map[string]string) error
}

// ScriptReader reads a script's source given its path, abstracted so tests
// can substitute an in-memory source set instead of touching disk.
type ScriptReader func(path string) (string, error)

func readScriptFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Manager owns the six slots and the currently active one. SwitchSlot and
// SwitchProfile are serialized under mu, matching the "atomic under the
// slot lock" requirement.
type Manager struct {
	mu sync.Mutex

	names  [NumSlots]string
	bound  [NumSlots]*profile.Profile
	active int

	namesPath     string
	switchTimeout time.Duration

	loader       *profile.Loader
	host         ScriptHost
	readScript   ScriptReader
	onActiveSlot func(i int)
}

// Option configures a Manager.
type Option interface {
	apply(*Manager)
}

type optionFunc func(*Manager)

func (f optionFunc) apply(m *Manager) { f(m) }

// WithNamesPath sets the file slot names are persisted to.
func WithNamesPath(path string) Option {
	return optionFunc(func(m *Manager) { m.namesPath = path })
}

// WithSwitchTimeout bounds how long SwitchSlot waits for the outgoing
// profile's scripts to quiesce before proceeding anyway.
func WithSwitchTimeout(d time.Duration) Option {
	return optionFunc(func(m *Manager) { m.switchTimeout = d })
}

// WithLoader supplies the profile/manifest loader used to resolve effective
// parameters for a slot's scripts.
func WithLoader(l *profile.Loader) Option {
	return optionFunc(func(m *Manager) { m.loader = l })
}

// WithScriptHost supplies the script host scripts are loaded into and
// unloaded from on a slot switch.
func WithScriptHost(h ScriptHost) Option {
	return optionFunc(func(m *Manager) { m.host = h })
}

// WithScriptReader overrides how a profile's active_scripts entries are
// resolved to source text, letting a caller join them against a configured
// script directory instead of reading them as literal filesystem paths.
func WithScriptReader(r ScriptReader) Option {
	return optionFunc(func(m *Manager) { m.readScript = r })
}

// WithOnActiveSlotChanged registers a callback fired after a successful
// SwitchSlot, used to emit the ActiveSlotChanged RPC signal exactly once.
func WithOnActiveSlotChanged(fn func(i int)) Option {
	return optionFunc(func(m *Manager) { m.onActiveSlot = fn })
}

// NewManager creates a Manager with default slot names "Slot 1".."Slot 6",
// loading persisted names from namesPath if previously set via
// WithNamesPath and the file exists.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		switchTimeout: 5 * time.Second,
		readScript:    readScriptFile,
	}
	for i := range m.names {
		m.names[i] = fmt.Sprintf("Slot %d", i+1)
	}
	for _, opt := range opts {
		opt.apply(m)
	}

	if m.namesPath != "" {
		if names, err := loadNames(m.namesPath); err == nil {
			m.names = names
		}
	}

	return m
}

// GetSlotNames returns the six persisted slot names, in slot order.
func (m *Manager) GetSlotNames() [NumSlots]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names
}

// SetSlotNames replaces all six slot names and persists them.
func (m *Manager) SetSlotNames(names []string) error {
	if len(names) != NumSlots {
		return fmt.Errorf("%w: got %d", ErrSlotNamesLength, len(names))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var arr [NumSlots]string
	copy(arr[:], names)
	m.names = arr

	if m.namesPath == "" {
		return nil
	}
	return persistNames(m.namesPath, arr)
}

// ActiveSlot returns the currently active slot index.
func (m *Manager) ActiveSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveProfile returns the profile bound to the currently active slot, or
// nil if that slot has no profile bound.
func (m *Manager) ActiveProfile() *profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound[m.active]
}

// BindProfile assigns p to slot i without switching to it.
func (m *Manager) BindProfile(i int, p *profile.Profile) error {
	if i < 0 || i >= NumSlots {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound[i] = p
	return nil
}

// GetSlotProfiles returns the profile name currently bound to each slot, in
// slot order; an unbound slot reports an empty string.
func (m *Manager) GetSlotProfiles() [NumSlots]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [NumSlots]string
	for i, p := range m.bound {
		if p != nil {
			out[i] = p.Name
		}
	}
	return out
}

// SwitchSlot quiesces the currently running scripts, loads slot i's bound
// profile's scripts, and marks i active. The quiescence wait is bounded by
// the configured switch timeout; on expiry the switch proceeds regardless,
// matching the documented force-kill-and-proceed policy.
func (m *Manager) SwitchSlot(ctx context.Context, i int) error {
	if i < 0 || i >= NumSlots {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, i)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.bound[i]
	if p == nil {
		return fmt.Errorf("%w: slot %d", ErrNoProfileBound, i)
	}

	if err := m.quiesce(); err != nil {
		log.GetGlobalLogger().WarnContext(ctx, "slot switch quiescence timed out, proceeding with the new profile", "slot", i, "error", err)
	}

	if err := m.loadSlotLocked(ctx, p); err != nil {
		return err
	}

	m.active = i
	if m.onActiveSlot != nil {
		m.onActiveSlot(i)
	}
	return nil
}

// SwitchProfile replaces the profile bound to the current slot and then
// switches to it, as SwitchSlot would for the current index.
func (m *Manager) SwitchProfile(ctx context.Context, path string) error {
	m.mu.Lock()
	cur := m.active
	m.mu.Unlock()

	p, err := m.loader.LoadProfile(cur, path)
	if err != nil {
		return err
	}

	if err := m.BindProfile(cur, p); err != nil {
		return err
	}
	return m.SwitchSlot(ctx, cur)
}

// quiesce tears down every running script, bounded by switchTimeout. Caller
// must hold mu.
func (m *Manager) quiesce() error {
	if m.host == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		m.host.UnloadAll()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(m.switchTimeout):
		// Workers are canceled already by UnloadAll's in-flight Stop calls;
		// we simply stop waiting on a wedged on_quit handler and proceed.
		return fmt.Errorf("%w", ErrSwitchTimeout)
	}
}

// loadSlotLocked reads and loads every script in p's declared order. Caller
// must hold mu.
func (m *Manager) loadSlotLocked(ctx context.Context, p *profile.Profile) error {
	if m.host == nil {
		return nil
	}

	for _, script := range p.ActiveScripts {
		source, err := m.readScript(script)
		if err != nil {
			return fmt.Errorf("slot: reading script %s: %w", script, err)
		}

		params := map[string]string{}
		if m.loader != nil {
			eff, err := m.loader.EffectiveParameters(p, script)
			if err != nil {
				return err
			}
			for name, v := range eff {
				params[name] = v.String()
			}
		}

		if err := m.host.Load(ctx, script, source, params); err != nil {
			return fmt.Errorf("slot: loading script %s: %w", script, err)
		}
	}
	return nil
}

func loadNames(path string) ([NumSlots]string, error) {
	var out [NumSlots]string
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := 0; i < NumSlots && i < len(lines); i++ {
		out[i] = lines[i]
	}
	return out, nil
}

func persistNames(path string, names [NumSlots]string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return file.AtomicCreateFile(path, []byte(strings.Join(names[:], "\n")+"\n"), 0o644)
}
