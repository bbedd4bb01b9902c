// SPDX-License-Identifier: BSD-3-Clause

// Package profile parses text-format profile and manifest documents and
// merges a script's effective parameters from manifest defaults, profile
// overrides, and persisted state, per the profile/manifest loader's
// documented precedence.
package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ParameterSpec is one entry of a manifest's typed parameter schema.
type ParameterSpec struct {
	Name    string
	Kind    Kind
	Default Value
	Min     *Value
	Max     *Value
}

// InRange reports whether v falls within the spec's declared min/max, when
// present; specs with no bound accept any value of the right kind.
func (p ParameterSpec) InRange(v Value) bool {
	if p.Min != nil && v.ordinal() < p.Min.ordinal() {
		return false
	}
	if p.Max != nil && v.ordinal() > p.Max.ordinal() {
		return false
	}
	return true
}

// Manifest is a script's sibling metadata document.
type Manifest struct {
	Path             string
	Name             string
	Version          string
	MinEngineVersion string
	Parameters       map[string]ParameterSpec
}

type manifestFile struct {
	Name             string          `toml:"name"`
	Version          string          `toml:"version"`
	MinEngineVersion string          `toml:"min_engine_version"`
	Parameters       []parameterFile `toml:"parameters"`
}

type parameterFile struct {
	Name    string      `toml:"name"`
	Type    string      `toml:"type"`
	Default interface{} `toml:"default"`
	Min     interface{} `toml:"min"`
	Max     interface{} `toml:"max"`
}

// LoadManifest parses and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestOpen, path, err)
	}

	var raw manifestFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrManifestParse, path, err)
	}

	m := &Manifest{
		Path:             path,
		Name:             raw.Name,
		Version:          raw.Version,
		MinEngineVersion: raw.MinEngineVersion,
		Parameters:       make(map[string]ParameterSpec, len(raw.Parameters)),
	}

	for _, p := range raw.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: %s: parameter missing name", ErrManifestInvalidParameter, path)
		}
		kind, err := parseKind(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, err)
		}
		if p.Default == nil {
			return nil, fmt.Errorf("%w: %s: parameter %q missing default", ErrManifestInvalidParameter, path, p.Name)
		}
		def, err := toValueFromTOML(kind, p.Default)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", path, p.Name, err)
		}

		spec := ParameterSpec{Name: p.Name, Kind: kind, Default: def}

		if p.Min != nil {
			v, err := toValueFromTOML(kind, p.Min)
			if err != nil {
				return nil, fmt.Errorf("%s: parameter %q min: %w", path, p.Name, err)
			}
			spec.Min = &v
		}
		if p.Max != nil {
			v, err := toValueFromTOML(kind, p.Max)
			if err != nil {
				return nil, fmt.Errorf("%s: parameter %q max: %w", path, p.Name, err)
			}
			spec.Max = &v
		}

		if _, dup := m.Parameters[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate parameter %q", ErrManifestInvalidParameter, path, p.Name)
		}
		m.Parameters[p.Name] = spec
	}

	return m, nil
}
