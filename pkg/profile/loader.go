// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Loader caches parsed manifests and drives profile load/validate/persist,
// matching the loader contract: validate manifests and profiles at load
// time, merge effective parameters, and re-parse a single parameter on
// SetParameter without reloading the whole profile.
type Loader struct {
	mu        sync.RWMutex
	manifests map[string]*Manifest // keyed by script path
}

// NewLoader returns an empty loader with no cached manifests.
func NewLoader() *Loader {
	return &Loader{manifests: make(map[string]*Manifest)}
}

// Manifest returns the cached manifest for scriptPath, loading and
// validating its sibling manifest file on first reference.
func (l *Loader) Manifest(scriptPath string) (*Manifest, error) {
	l.mu.RLock()
	m, ok := l.manifests[scriptPath]
	l.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := LoadManifest(manifestPathFor(scriptPath))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.manifests[scriptPath] = m
	l.mu.Unlock()
	return m, nil
}

// LoadProfile parses path, resolving and validating every referenced
// script's manifest along the way.
func (l *Loader) LoadProfile(id int, path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileOpen, path, err)
	}

	scripts, err := scanActiveScripts(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileParse, path, err)
	}

	manifests := make(map[string]*Manifest, len(scripts))
	for _, script := range scripts {
		m, err := l.Manifest(script)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrScriptMissingManifest, script, err)
		}
		manifests[script] = m
	}

	return LoadProfile(id, path, manifests)
}

// scanActiveScripts extracts the active_scripts list without fully decoding
// the profile, so manifests can be resolved before LoadProfile's strict
// validation pass runs against them.
func scanActiveScripts(raw []byte) ([]string, error) {
	var tmp struct {
		ActiveScripts []string `toml:"active_scripts"`
	}
	if err := decodeTOML(raw, &tmp); err != nil {
		return nil, err
	}
	return tmp.ActiveScripts, nil
}

// EffectiveParameters returns script's merged parameters within p.
func (l *Loader) EffectiveParameters(p *Profile, script string) (map[string]Value, error) {
	m, err := l.Manifest(script)
	if err != nil {
		return nil, err
	}
	return EffectiveParameters(m, p, script), nil
}

// SetParameter re-parses a single parameter against its manifest and writes
// the updated value into both the in-memory profile's persisted state and
// its state sidecar. It does not forward the change to a running script
// worker.
func (l *Loader) SetParameter(p *Profile, script, name, value string) error {
	m, err := l.Manifest(script)
	if err != nil {
		return err
	}

	spec, ok := m.Parameters[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParameter, script, name)
	}

	v, err := ParseValue(spec.Kind, value)
	if err != nil {
		return err
	}
	if !spec.InRange(v) {
		return fmt.Errorf("%w: %s.%s=%s", ErrParameterOutOfRange, script, name, value)
	}

	if p.PersistedState[script] == nil {
		p.PersistedState[script] = make(map[string]Value)
	}
	p.PersistedState[script][name] = v

	return persistSidecar(p)
}

// ListProfiles scans dir for *.profile files and loads each, matching the
// reference loader's directory convention. A profile that fails to load is
// skipped and reported in the returned error slice rather than aborting the
// whole scan, so one bad profile never hides the rest.
func (l *Loader) ListProfiles(dir string) ([]*Profile, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("%w: %s: %w", ErrProfileOpen, dir, err)}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".profile") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var (
		profiles []*Profile
		errs     []error
	)
	for id, path := range files {
		p, err := l.LoadProfile(id, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, errs
}
