// Package palettegen provides embedded assets for the palettegen tool.
//
// The root package exists solely to embed [palettegen.default.toml] via
// [DefaultConfigTOML], which `palettegen init` writes into a project.
package palettegen

import _ "embed"

// DefaultConfigTOML holds the raw bytes of palettegen.default.toml, generated
// by cmd/genconfig and embedded at build time.
//
//go:embed palettegen.default.toml
var DefaultConfigTOML []byte
