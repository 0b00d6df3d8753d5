// Package manifest handles pocol.toml project configuration.
//
// The manifest is optional: both tools fall back to built-in defaults
// when no pocol.toml exists in the working directory. Command-line
// flags override manifest values.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file name looked up in the project root.
const FileName = "pocol.toml"

// Manifest represents a pocol.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`
	Run     Run     `toml:"run"`

	// Dir is the directory containing the pocol.toml file (set at load
	// time; empty for the defaults).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Build configures assembler defaults.
type Build struct {
	// Output is the default object path when none is given on the
	// command line.
	Output string `toml:"output"`

	// DebugInfo makes the assembler write the debug sidecar.
	DebugInfo bool `toml:"debug-info"`

	// SymbolIndex is the build index database path. Empty disables
	// index updates.
	SymbolIndex string `toml:"symbol-index"`
}

// Run configures runner defaults.
type Run struct {
	// Limit is the default instruction budget. Negative means
	// unbounded.
	Limit int `toml:"limit"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Manifest {
	return &Manifest{
		Build: Build{Output: "out.pob"},
		Run:   Run{Limit: -1},
	}
}

// Load parses a pocol.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir
	return m, nil
}

// LoadOrDefault loads the manifest from dir, falling back to the
// defaults when the file does not exist.
func LoadOrDefault(dir string) *Manifest {
	m, err := Load(dir)
	if err != nil {
		return Default()
	}
	return m
}
