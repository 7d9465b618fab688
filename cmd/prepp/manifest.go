package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a prepp.toml project configuration.
type Manifest struct {
	Output          string                 `toml:"output"`
	LogLevel        string                 `toml:"log-level"`
	MaxIncludeDepth int                    `toml:"max-include-depth"`
	Defines         map[string]interface{} `toml:"defines"`

	// Dir is the directory containing the prepp.toml file (set at load time).
	Dir string `toml:"-"`
}

// LoadManifest parses a prepp.toml file from the given directory.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "prepp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	return &m, nil
}

// FindManifest walks up from startDir to find a prepp.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindManifest(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "prepp.toml")
		if _, err := os.Stat(path); err == nil {
			return LoadManifest(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LoadDefines reads a flat TOML file of name = value pairs into bindings
// for the preprocessor. Tables become mappings, arrays become sequences.
func LoadDefines(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	out := map[string]interface{}{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return out, nil
}
