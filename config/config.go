// Package config loads the optional ".ifttt.yaml" convenience layer
// (SPEC_FULL.md 9's "ambient config" addition): a plain unmarshal
// target for default parallelism and a reusable ignore list, so a CLI
// collaborator isn't required to pass every flag by hand. The engine
// package itself takes these values as plain parameters and has no
// knowledge of this file; config is purely a way to populate them.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// File is the shape of ".ifttt.yaml".
type File struct {
	// Ignore holds ignoreList entries in the same "<glob>[#<label>]"
	// form engine.LintDiff accepts directly.
	Ignore []string `yaml:"ignore"`
	// Parallelism is the default worker-pool size, used when the
	// caller doesn't override it on the command line.
	Parallelism int `yaml:"parallelism"`
	// Verbose defaults the trace-logging flag.
	Verbose bool `yaml:"verbose"`
}

// Load reads and parses path. A missing file is not an error — it
// returns a zero-value File so callers can treat "no config" and "an
// empty config" identically.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
