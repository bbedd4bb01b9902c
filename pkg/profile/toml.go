// SPDX-License-Identifier: BSD-3-Clause

package profile

import "github.com/BurntSushi/toml"

// decodeTOML is a thin wrapper so callers that only need a subset of a
// document's keys can decode without re-reading the file.
func decodeTOML(data []byte, v interface{}) error {
	_, err := toml.Decode(string(data), v)
	return err
}
