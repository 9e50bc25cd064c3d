// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package config

import (
	"os"
	"path/filepath"
)

const appName = "pitchboard"

// Dir returns the XDG config directory for pitchboard.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultFile returns Dir()/config.yaml if it exists, or "" otherwise.
func DefaultFile() string {
	path := filepath.Join(Dir(), "config.yaml")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}
