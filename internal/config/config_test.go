// Tests for the config package covering [Load] behavior (defaults, overrides,
// missing files, malformed input, env overrides), target defaults,
// validation ([Config.Validate], [Target.Validate]), glob selection
// ([Config.Select]), and [ConfigDocs] completeness.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

// writeConfig writes content to a palettegen.toml in a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "palettegen.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ///////////////////////////////////////////////
// Load
// ///////////////////////////////////////////////

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		noFile  bool
		wantErr string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:   "missing file gives defaults",
			noFile: true,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
					t.Errorf("defaults mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:   "minimal config keeps default target",
			config: "version = 1\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if diff := cmp.Diff([]Target{DefaultTarget()}, cfg.Targets); diff != "" {
					t.Errorf("targets mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "overrides applied",
			config: `
version = 1

[log]
level = "debug"

[http]
retry_max = 5
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
				}
				if cfg.Log.MaxSizeMB != 10 {
					t.Errorf("Log.MaxSizeMB = %d, want default 10", cfg.Log.MaxSizeMB)
				}
				if cfg.HTTP.RetryMax != 5 {
					t.Errorf("HTTP.RetryMax = %d, want 5", cfg.HTTP.RetryMax)
				}
				if cfg.HTTP.Timeout() != 10*time.Second {
					t.Errorf("HTTP.Timeout = %v, want 10s", cfg.HTTP.Timeout())
				}
			},
		},
		{
			name: "targets replace default and get symbol defaults",
			config: `
version = 1

[[targets]]
name = "firmware"
input = "shared/colors.csv"
mode = "split"
header = "firmware/include/colors.h"
source = "firmware/src/colors.cpp"

[[targets]]
name = "fastled"
input = "shared/colors.csv"
header = "fastled/palette.h"

[targets.symbols]
include = "FastLED.h"
constructor = "CRGB"
element_type = "CRGB"
count_type = "size_t"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				if len(cfg.Targets) != 2 {
					t.Fatalf("len(Targets) = %d, want 2", len(cfg.Targets))
				}
				fw := cfg.Targets[0]
				if fw.Mode != ModeSplit || fw.Source != "firmware/src/colors.cpp" {
					t.Errorf("firmware target = %+v", fw)
				}
				if fw.Symbols != DefaultSymbols() {
					t.Errorf("firmware symbols = %+v, want defaults", fw.Symbols)
				}
				fl := cfg.Targets[1]
				if fl.Mode != ModeCombined {
					t.Errorf("fastled mode = %q, want combined default", fl.Mode)
				}
				want := SymbolsConfig{
					Include:     "FastLED.h",
					Constructor: "CRGB",
					Array:       "colors",
					ElementType: "CRGB",
					Count:       "NUM_COLORS",
					CountType:   "size_t",
				}
				if fl.Symbols != want {
					t.Errorf("fastled symbols = %+v, want %+v", fl.Symbols, want)
				}
			},
		},
		{
			name:    "malformed TOML",
			config:  "version = [",
			wantErr: "parse config",
		},
		{
			name:    "unknown key",
			config:  "version = 1\n[log]\nlevl = \"debug\"\n",
			wantErr: "unknown keys: log.levl",
		},
		{
			name:    "invalid values rejected",
			config:  "version = 1\n[log]\nlevel = \"loud\"\n",
			wantErr: "invalid log.level",
		},
		{
			name:    "future version rejected",
			config:  "version = 2\n",
			wantErr: "unsupported version 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.noFile {
				path = filepath.Join(t.TempDir(), "palettegen.toml")
			} else {
				path = writeConfig(t, tt.config)
			}

			cfg, err := Load(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PALETTEGEN_LOG_LEVEL", "warn")
	t.Setenv("PALETTEGEN_LOG_FILE", "build/palettegen.log")
	t.Setenv("PALETTEGEN_HTTP_TIMEOUT_SECONDS", "3")

	cfg, err := Load(writeConfig(t, "version = 1\n[log]\nlevel = \"debug\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want env override warn", cfg.Log.Level)
	}
	if cfg.Log.File != "build/palettegen.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	if cfg.HTTP.TimeoutSeconds != 3 {
		t.Errorf("HTTP.TimeoutSeconds = %d, want 3", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.HTTP.RetryMax != 2 {
		t.Errorf("HTTP.RetryMax = %d, want untouched default 2", cfg.HTTP.RetryMax)
	}
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("PALETTEGEN_HTTP_RETRY_MAX", "many")

	_, err := Load(filepath.Join(t.TempDir(), "palettegen.toml"))
	if err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("Load error = %v, want parse env error", err)
	}
}

func TestLoadUnreadable(t *testing.T) {
	// A directory in place of the config file cannot be read as a file.
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load error = %v, want read error", err)
	}
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"defaults valid", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "fail" }, "invalid log.level"},
		{"log file needs size", func(c *Config) { c.Log.File = "x.log"; c.Log.MaxSizeMB = 0 }, "max_size_mb"},
		{"negative retries", func(c *Config) { c.HTTP.RetryMax = -1 }, "retry_max"},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"no targets", func(c *Config) { c.Targets = nil }, "no targets"},
		{"bad name", func(c *Config) { c.Targets[0].Name = "Firm Ware" }, "invalid name"},
		{"duplicate name", func(c *Config) { c.Targets = append(c.Targets, c.Targets[0]) }, "duplicate name"},
		{"missing input", func(c *Config) { c.Targets[0].Input = "" }, "input is required"},
		{"missing header", func(c *Config) { c.Targets[0].Header = "" }, "header is required"},
		{"bad mode", func(c *Config) { c.Targets[0].Mode = "both" }, "invalid mode"},
		{"split without source", func(c *Config) { c.Targets[0].Mode = ModeSplit }, "requires source"},
		{"combined with source", func(c *Config) { c.Targets[0].Source = "colors.cpp" }, "only used in split mode"},
		{"source collides with header", func(c *Config) {
			c.Targets[0].Mode = ModeSplit
			c.Targets[0].Source = c.Targets[0].Header
		}, "both write"},
		{"swatches collides with header", func(c *Config) { c.Targets[0].Swatches = c.Targets[0].Header }, "both write"},
		{"bad array ident", func(c *Config) { c.Targets[0].Symbols.Array = "my colors" }, "symbols.array"},
		{"bad count ident", func(c *Config) { c.Targets[0].Symbols.Count = "9LIVES" }, "symbols.count"},
		{"bad include", func(c *Config) { c.Targets[0].Symbols.Include = "<evil.h>" }, "symbols.include"},
		{"bad constructor", func(c *Config) { c.Targets[0].Symbols.Constructor = "Color()" }, "symbols.constructor"},
		{"bad header include", func(c *Config) { c.Targets[0].Symbols.HeaderInclude = `a"b.h` }, "header_include"},
		{"array equals count", func(c *Config) { c.Targets[0].Symbols.Count = "colors" }, "both"},
		{"multiword type ok", func(c *Config) { c.Targets[0].Symbols.CountType = "unsigned int" }, ""},
		{"namespaced constructor ok", func(c *Config) { c.Targets[0].Symbols.Constructor = "strip.Color" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Select
// ///////////////////////////////////////////////

func TestSelect(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Targets = []Target{
		{Name: "fw-lamp"},
		{Name: "fw-strip"},
		{Name: "dashboard"},
	}

	names := func(ts []Target) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}

	tests := []struct {
		pattern string
		want    []string
		wantErr bool
	}{
		{"", []string{"fw-lamp", "fw-strip", "dashboard"}, false},
		{"*", []string{"fw-lamp", "fw-strip", "dashboard"}, false},
		{"fw-*", []string{"fw-lamp", "fw-strip"}, false},
		{"dashboard", []string{"dashboard"}, false},
		{"{dashboard,fw-lamp}", []string{"fw-lamp", "dashboard"}, false},
		{"nothing", nil, true},
		{"[", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := cfg.Select(tt.pattern)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Select(%q) = %v, want error", tt.pattern, names(got))
				}
				return
			}
			if err != nil {
				t.Fatalf("Select(%q): %v", tt.pattern, err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Select(%q) (-want +got):\n%s", tt.pattern, diff)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Symbols
// ///////////////////////////////////////////////

func TestSymbolsRender(t *testing.T) {
	s := DefaultSymbols()
	s.HeaderInclude = "palette/colors.h"
	r := s.Render()
	if r.Array != "colors" || r.Count != "NUM_COLORS" || r.HeaderInclude != "palette/colors.h" {
		t.Errorf("Render() = %+v", r)
	}
}

// ///////////////////////////////////////////////
// ExampleConfig
// ///////////////////////////////////////////////

func TestExampleConfigMarshal(t *testing.T) {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(ExampleConfig()); err != nil {
		t.Fatalf("failed to marshal ExampleConfig: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"version = 1", "[log]", "[http]", "[[targets]]", "[targets.symbols]"} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded config missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "[log]") > strings.Index(out, "[[targets]]") {
		t.Error("[log] should be encoded before [[targets]]")
	}
}

// ///////////////////////////////////////////////
// ConfigDocs completeness
// ///////////////////////////////////////////////

func TestConfigDocsComplete(t *testing.T) {
	for _, field := range collectTOMLFields(reflect.TypeOf(Config{}), "") {
		if _, ok := ConfigDocs[field]; !ok {
			t.Errorf("ConfigDocs missing entry for field %q", field)
		}
	}
}

func TestConfigDocsNoStale(t *testing.T) {
	known := map[string]bool{"log": true, "http": true, "targets": true, "targets.symbols": true}
	for _, f := range collectTOMLFields(reflect.TypeOf(Config{}), "") {
		known[f] = true
	}
	for key := range ConfigDocs {
		if !known[key] {
			t.Errorf("ConfigDocs has entry %q with no matching field", key)
		}
	}
}

// collectTOMLFields recursively walks a struct type and returns the
// dot-separated TOML key path for every tagged leaf field. Slices of
// structs ([[targets]]) are walked without an index.
func collectTOMLFields(typ reflect.Type, prefix string) []string {
	var fields []string
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("toml")
		if tag == "" || tag == "-" {
			continue
		}
		if idx := strings.Index(tag, ","); idx != -1 {
			tag = tag[:idx]
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		ft := f.Type
		if ft.Kind() == reflect.Slice && ft.Elem().Kind() == reflect.Struct {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			fields = append(fields, collectTOMLFields(ft, path)...)
		} else {
			fields = append(fields, path)
		}
	}
	return fields
}
