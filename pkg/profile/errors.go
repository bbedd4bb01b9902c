// SPDX-License-Identifier: BSD-3-Clause

package profile

import "errors"

var (
	// ErrManifestOpen is returned when a manifest file cannot be read.
	ErrManifestOpen = errors.New("profile: could not open manifest file")

	// ErrManifestParse is returned when a manifest file fails to parse as TOML.
	ErrManifestParse = errors.New("profile: could not parse manifest file")

	// ErrManifestInvalidParameter is returned when a manifest parameter entry
	// is missing a type or default, or declares an unknown type.
	ErrManifestInvalidParameter = errors.New("profile: invalid parameter schema entry")

	// ErrProfileOpen is returned when a profile file cannot be read.
	ErrProfileOpen = errors.New("profile: could not open profile file")

	// ErrProfileParse is returned when a profile file fails to parse as TOML.
	ErrProfileParse = errors.New("profile: could not parse profile file")

	// ErrScriptMissingManifest is returned when a profile references a script
	// that has no sibling manifest.
	ErrScriptMissingManifest = errors.New("profile: referenced script has no manifest")

	// ErrUnknownParameter is returned when an override or SetParameter call
	// names a parameter absent from the script's manifest.
	ErrUnknownParameter = errors.New("profile: unknown parameter")

	// ErrParameterTypeMismatch is returned when a value fails to parse at a
	// parameter's declared type.
	ErrParameterTypeMismatch = errors.New("profile: parameter value does not match declared type")

	// ErrParameterOutOfRange is returned when a value parses but falls
	// outside the parameter's declared min/max.
	ErrParameterOutOfRange = errors.New("profile: parameter value out of range")

	// ErrProfileNotActive reports that an operation targeted a profile that
	// is not the currently active one. SetParameter does not return it.
	ErrProfileNotActive = errors.New("profile: profile is not active")
)
