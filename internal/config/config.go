// Package config loads an optional TOML file carrying CLI defaults for
// ibdninja.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Defaults holds the subset of CLI flags a config file can pre-fill. A
// flag given a non-zero value on the command line overrides the value
// loaded here; a flag left at its zero value takes it.
type Defaults struct {
	File          string `toml:"file"`
	Format        string `toml:"format"`
	NoPrintRecord bool   `toml:"no_print_record"`
}

// Load parses path as a TOML defaults file. An empty path is not an
// error; it yields a zero Defaults so callers can treat "no config" and
// "empty config" identically. A path naming a file that does not exist is
// an error.
func Load(path string) (Defaults, error) {
	if path == "" {
		return Defaults{}, nil
	}
	var d Defaults
	if _, err := toml.DecodeFile(path, &d); err != nil {
		if os.IsNotExist(err) {
			return Defaults{}, fmt.Errorf("config file %q does not exist", path)
		}
		return Defaults{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return d, nil
}
