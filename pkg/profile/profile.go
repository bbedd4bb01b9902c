// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/eruption-core/eruptiond/pkg/file"
)

// Profile is a named bundle of scripts and parameter overrides, bound to a
// slot. The declared order of ActiveScripts is canonical and establishes the
// compositor's z-order.
type Profile struct {
	ID            int
	Name          string
	Description   string
	FilePath      string
	ActiveScripts []string

	// Overrides holds parameter_overrides[script][param], the user values
	// read from the profile file itself.
	Overrides map[string]map[string]Value

	// PersistedState holds values written back by SetParameter since the
	// profile was last loaded, read from the profile's sidecar file.
	PersistedState map[string]map[string]Value
}

type profileFile struct {
	Name          string                            `toml:"name"`
	Description   string                            `toml:"description"`
	ActiveScripts []string                           `toml:"active_scripts"`
	Config        map[string]map[string]overrideFile `toml:"config"`
}

type overrideFile struct {
	Type  string `toml:"type"`
	Value string `toml:"value"`
}

// manifestPathFor returns the sibling manifest path for a script: the
// script's own path with ".manifest" appended.
func manifestPathFor(scriptPath string) string {
	return scriptPath + ".manifest"
}

// sidecarPathFor returns a profile's persisted-state sidecar path.
func sidecarPathFor(profilePath string) string {
	return profilePath + ".state"
}

// LoadProfile parses and validates the profile at path. manifests must
// contain one loaded Manifest per script named in the profile's
// active_scripts list, keyed by script path; Loader.Manifest resolves the
// conventional sibling path for each entry.
func LoadProfile(id int, path string, manifests map[string]*Manifest) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileOpen, path, err)
	}

	var raw profileFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProfileParse, path, err)
	}

	p := &Profile{
		ID:             id,
		Name:           raw.Name,
		Description:    raw.Description,
		FilePath:       path,
		ActiveScripts:  raw.ActiveScripts,
		Overrides:      make(map[string]map[string]Value),
		PersistedState: make(map[string]map[string]Value),
	}

	for _, script := range raw.ActiveScripts {
		if _, ok := manifests[script]; !ok {
			return nil, fmt.Errorf("%w: %s: %s", ErrScriptMissingManifest, path, script)
		}
	}

	for script, params := range raw.Config {
		manifest, ok := manifests[script]
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s", ErrScriptMissingManifest, path, script)
		}
		for name, ov := range params {
			spec, ok := manifest.Parameters[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s: %s.%s", ErrUnknownParameter, path, script, name)
			}
			v, err := ParseValue(spec.Kind, ov.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %s.%s: %w", path, script, name, err)
			}
			if !spec.InRange(v) {
				return nil, fmt.Errorf("%w: %s: %s.%s=%s", ErrParameterOutOfRange, path, script, name, ov.Value)
			}
			if p.Overrides[script] == nil {
				p.Overrides[script] = make(map[string]Value)
			}
			p.Overrides[script][name] = v
		}
	}

	if err := loadSidecar(p, manifests); err != nil {
		return nil, err
	}

	return p, nil
}

func loadSidecar(p *Profile, manifests map[string]*Manifest) error {
	data, err := os.ReadFile(sidecarPathFor(p.FilePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrProfileOpen, sidecarPathFor(p.FilePath), err)
	}

	var raw map[string]map[string]overrideFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrProfileParse, sidecarPathFor(p.FilePath), err)
	}

	for script, params := range raw {
		manifest, ok := manifests[script]
		if !ok {
			continue
		}
		for name, ov := range params {
			spec, ok := manifest.Parameters[name]
			if !ok {
				continue
			}
			v, err := ParseValue(spec.Kind, ov.Value)
			if err != nil {
				continue
			}
			if p.PersistedState[script] == nil {
				p.PersistedState[script] = make(map[string]Value)
			}
			p.PersistedState[script][name] = v
		}
	}

	return nil
}

// EffectiveParameters merges manifest defaults, persisted state, and profile
// overrides for script: an override beats persisted state, which beats the
// manifest default.
func EffectiveParameters(manifest *Manifest, p *Profile, script string) map[string]Value {
	out := make(map[string]Value, len(manifest.Parameters))
	for name, spec := range manifest.Parameters {
		out[name] = spec.Default
	}
	for name, v := range p.PersistedState[script] {
		out[name] = v
	}
	for name, v := range p.Overrides[script] {
		out[name] = v
	}
	return out
}

// persistSidecar writes a profile's persisted state back to its sidecar
// file atomically, so a concurrent reader never observes a partial write.
func persistSidecar(p *Profile) error {
	lines := make(map[string]map[string]overrideFile, len(p.PersistedState))
	for script, params := range p.PersistedState {
		lines[script] = make(map[string]overrideFile, len(params))
		for name, v := range params {
			lines[script][name] = overrideFile{Type: v.Kind.String(), Value: v.String()}
		}
	}

	var buf []byte
	for script, params := range lines {
		section := tomlSectionName(script)
		buf = append(buf, []byte(fmt.Sprintf("[%s]\n", section))...)
		for name, ov := range params {
			buf = append(buf, []byte(fmt.Sprintf("[%s.%q]\ntype = %q\nvalue = %q\n", section, name, ov.Type, ov.Value))...)
		}
	}

	// The sidecar holds the full current state, not an appended delta, so
	// the stale file is removed before an atomic create; AtomicUpdateFile's
	// copy-then-append semantics would otherwise double its contents.
	path := sidecarPathFor(p.FilePath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %w", ErrProfileOpen, path, err)
	}
	return file.AtomicCreateFile(path, buf, 0o644)
}

// tomlSectionName quotes a script path for use as a TOML table key, since
// script paths contain dots and path separators that would otherwise be
// parsed as nested table boundaries.
func tomlSectionName(script string) string {
	return fmt.Sprintf("%q", filepath.ToSlash(script))
}
