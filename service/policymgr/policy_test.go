// SPDX-License-Identifier: BSD-3-Clause

package policymgr

import "testing"

func TestCheckMonitorAlwaysAllowed(t *testing.T) {
	p := New()
	if err := p.Check(Monitor, ""); err != nil {
		t.Errorf("Monitor with empty caller: got %v, want nil", err)
	}
}

func TestCheckSettingsRequiresIdentity(t *testing.T) {
	p := New()
	if err := p.Check(Settings, ""); err != ErrAuthenticationFailed {
		t.Errorf("Settings with empty caller: got %v, want %v", err, ErrAuthenticationFailed)
	}
	if err := p.Check(Settings, "user-1"); err != nil {
		t.Errorf("Settings with caller: got %v, want nil", err)
	}
}

func TestCheckSettingsAnonymousAllowed(t *testing.T) {
	p := New(WithAllowAnonymousSettings(true))
	if err := p.Check(Settings, ""); err != nil {
		t.Errorf("Settings with anonymous allowed: got %v, want nil", err)
	}
}

func TestCheckManageRequiresManagerIdentity(t *testing.T) {
	p := New(WithManagers("admin"))
	if err := p.Check(Manage, ""); err != ErrAuthenticationFailed {
		t.Errorf("Manage with empty caller: got %v, want %v", err, ErrAuthenticationFailed)
	}
	if err := p.Check(Manage, "someone-else"); err != ErrPermissionDenied {
		t.Errorf("Manage with unknown caller: got %v, want %v", err, ErrPermissionDenied)
	}
	if err := p.Check(Manage, "admin"); err != nil {
		t.Errorf("Manage with manager caller: got %v, want nil", err)
	}
}

func TestPermissionTagString(t *testing.T) {
	cases := map[PermissionTag]string{
		Monitor:           "Monitor",
		Settings:          "Settings",
		Manage:            "Manage",
		PermissionTag(99): "Unknown",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("PermissionTag(%d).String() = %q, want %q", tag, got, want)
		}
	}
}
