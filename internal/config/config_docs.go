package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate palettegen.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "targets.symbols.array")
// to their [FieldDoc] entries. Fields of [[targets]] entries are keyed
// without an index.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration. Console output always goes to stderr.\nOverride with PALETTEGEN_LOG_LEVEL, PALETTEGEN_LOG_FILE, PALETTEGEN_LOG_MAX_SIZE_MB.",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.file": {
		Comment: "Also write timestamped logs to this file (rotated).",
		Alternatives: []string{
			`file = "build/palettegen.log"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},

	// ── HTTP ─────────────────────────────────────────────────────
	"http": {
		Comment: "Used when a target's input is an http:// or https:// URL.\nOverride with PALETTEGEN_HTTP_RETRY_MAX, PALETTEGEN_HTTP_TIMEOUT_SECONDS.",
	},
	"http.retry_max": {
		Comment: "Retries after a failed request.",
	},
	"http.timeout_seconds": {
		Comment: "Timeout for each request attempt.",
	},

	// ── Targets ──────────────────────────────────────────────────
	"targets": {
		Comment: "One [[targets]] block per palette to generate. Paths are relative to the\ndirectory holding this file. Targets run in order; the first failure stops the run.",
	},
	"targets.name": {
		Comment: "Name used with --target (glob patterns allowed, e.g. --target 'fw-*').",
	},
	"targets.input": {
		Comment: "Palette CSV: header row, then red,green,blue[,name] rows.\nMay also be a URL.",
		Alternatives: []string{
			`input = "https://raw.githubusercontent.com/owner/repo/main/shared/colors.csv"`,
		},
	},
	"targets.mode": {
		Comment: "Output mode. Options: \"combined\", \"split\"\n  combined: one header with the array and count\n  split:    header with extern declarations + source with the definitions",
		Alternatives: []string{
			`mode = "split"`,
		},
	},
	"targets.header": {
		Comment: "Generated header.",
	},
	"targets.source": {
		Comment: "Generated definition file (split mode only).",
		Alternatives: []string{
			`source = "firmware/src/colors.cpp"`,
		},
	},
	"targets.swatches": {
		Comment: "Optional JSON list of {hex, name} swatches for the dashboard color picker.",
		Alternatives: []string{
			`swatches = "dashboard/src/swatches.json"`,
		},
	},

	// ── Symbols ──────────────────────────────────────────────────
	"targets.symbols": {
		Comment: "C names used in the generated code.",
	},
	"targets.symbols.include": {
		Comment: "Vendor header providing the color constructor.",
	},
	"targets.symbols.constructor": {
		Comment: "Called as constructor(r, g, b) for every entry.",
	},
	"targets.symbols.array":        {},
	"targets.symbols.element_type": {},
	"targets.symbols.count": {
		Comment: "Entry count constant, always sizeof(array) / sizeof(array[0]).",
	},
	"targets.symbols.count_type": {
		Comment: "Generation fails if the palette has more entries than this type can hold.",
		Alternatives: []string{
			`count_type = "uint16_t"`,
		},
	},
	"targets.symbols.header_include": {
		Comment: "How the split source includes the header (default: header file name).",
		Alternatives: []string{
			`header_include = "palette/colors.h"`,
		},
	},
}
