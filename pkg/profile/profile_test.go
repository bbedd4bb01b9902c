// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"os"
	"path/filepath"
	"testing"
)

const manifestTOML = `
name = "Solid Color"
version = "0.1.0"
min_engine_version = "0.1.0"

[[parameters]]
name = "speed"
type = "float"
default = 1.0
min = 0.0
max = 10.0

[[parameters]]
name = "color"
type = "color"
default = "#ff0000ff"
`

func writeManifest(t *testing.T, dir, script string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, script+".manifest"), []byte(manifestTOML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestLoadManifestValidatesSchema(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.js")

	m, err := LoadManifest(filepath.Join(dir, "a.js.manifest"))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	spec, ok := m.Parameters["speed"]
	if !ok {
		t.Fatalf("missing speed parameter")
	}
	if spec.Kind != KindFloat {
		t.Errorf("Kind = %v, want KindFloat", spec.Kind)
	}
	if spec.Default.Float != 1.0 {
		t.Errorf("Default.Float = %v, want 1.0", spec.Default.Float)
	}
}

func TestEffectiveParametersMergeOrder(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.js")

	profileTOML := `
name = "test"
description = "d"
active_scripts = ["a.js"]

[config."a.js".speed]
type = "float"
value = "5.0"
`
	path := filepath.Join(dir, "test.profile")
	if err := os.WriteFile(path, []byte(profileTOML), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	l := NewLoader()
	p, err := l.LoadProfile(0, path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	eff, err := l.EffectiveParameters(p, "a.js")
	if err != nil {
		t.Fatalf("EffectiveParameters: %v", err)
	}
	if eff["speed"].Float != 5.0 {
		t.Errorf("speed = %v, want override 5.0", eff["speed"].Float)
	}
	if eff["color"].Color.R != 0xff {
		t.Errorf("color.R = %v, want manifest default 0xff", eff["color"].Color.R)
	}

	// speed already has a profile-file override; persisting a new value for
	// it must not take effect, since an override always beats persisted state.
	if err := l.SetParameter(p, "a.js", "speed", "7.5"); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	eff, _ = l.EffectiveParameters(p, "a.js")
	if eff["speed"].Float != 5.0 {
		t.Errorf("speed after SetParameter = %v, want 5.0 (override still wins over persisted state)", eff["speed"].Float)
	}

	// color has no profile-file override, so persisting a value for it does
	// take effect, beating the manifest default.
	if err := l.SetParameter(p, "a.js", "color", "#00ff00ff"); err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	eff, _ = l.EffectiveParameters(p, "a.js")
	if eff["color"].Color.R != 0x00 || eff["color"].Color.G != 0xff {
		t.Errorf("color after SetParameter = %+v, want persisted #00ff00ff", eff["color"].Color)
	}

	if err := l.SetParameter(p, "a.js", "speed", "20"); err == nil {
		t.Errorf("SetParameter(20) should fail, max is 10")
	}
}

func TestLoadProfileRejectsUnknownScript(t *testing.T) {
	dir := t.TempDir()

	profileTOML := `
name = "test"
description = "d"
active_scripts = ["missing.js"]
`
	path := filepath.Join(dir, "test.profile")
	if err := os.WriteFile(path, []byte(profileTOML), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	l := NewLoader()
	if _, err := l.LoadProfile(0, path); err == nil {
		t.Errorf("LoadProfile should fail for a script with no manifest")
	}
}

func TestListProfilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a.js")

	good := `
name = "good"
description = "d"
active_scripts = ["a.js"]
`
	if err := os.WriteFile(filepath.Join(dir, "good.profile"), []byte(good), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	l := NewLoader()
	profiles, errs := l.ListProfiles(dir)
	if len(errs) != 0 {
		t.Fatalf("ListProfiles errs = %v", errs)
	}
	if len(profiles) != 1 || profiles[0].Name != "good" {
		t.Errorf("ListProfiles = %+v, want one profile named good", profiles)
	}
}
