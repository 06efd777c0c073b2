// Package paths centralizes the file names palettegen reads and writes and
// resolves them against the project root.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"tools.zach/dev/palettegen/internal/source"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// ConfigFile is the project config file name; its directory is the project root.
const ConfigFile = "palettegen.toml"

// Default locations, relative to the project root.
const (
	DefaultInput  = "shared/colors.csv"
	DefaultHeader = "firmware/include/colors.h"
)

// ///////////////////////////////////////////////
// Project
// ///////////////////////////////////////////////

// Project resolves config-relative paths against a root directory.
type Project struct {
	Root string
}

// Config returns the full path to the project config file.
func (p Project) Config() string { return filepath.Join(p.Root, ConfigFile) }

// Resolve returns rel joined to the project root. Absolute paths and URLs
// are returned unchanged.
func (p Project) Resolve(rel string) string {
	if rel == "" || filepath.IsAbs(rel) || source.IsURL(rel) {
		return rel
	}
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Rel returns path relative to the project root for display, falling back
// to path itself when it lies outside the root.
func (p Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// FindRoot walks upward from start to the first directory containing
// [ConfigFile]. It returns start itself when no config file is found.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	dir := abs
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
