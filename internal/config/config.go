// Package config loads palettegen.toml, the project file that lists which
// palette CSVs are turned into which firmware sources.
//
// A missing file means one target with the layout the firmware project has
// always used: shared/colors.csv rendered into firmware/include/colors.h.
// Log and HTTP settings can be overridden with PALETTEGEN_* environment
// variables.
package config

//go:generate go run ../../cmd/genconfig

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/caarlos0/env/v11"
	"tools.zach/dev/palettegen/internal/logger"
	"tools.zach/dev/palettegen/internal/paths"
	"tools.zach/dev/palettegen/internal/render"
)

// CurrentVersion is the only config schema version this build understands.
const CurrentVersion = 1

// Output modes.
const (
	ModeCombined = "combined"
	ModeSplit    = "split"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PALETTEGEN_"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the whole palettegen.toml file.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
	// HTTP holds settings for inputs fetched from URLs.
	HTTP HTTPConfig `toml:"http"`
	// Targets lists the palettes to generate, in run order.
	Targets []Target `toml:"targets"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level" env:"LEVEL"`
	// File is an optional log file, rotated when it reaches MaxSizeMB.
	File string `toml:"file,omitempty" env:"FILE"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb" env:"MAX_SIZE_MB"`
}

// HTTPConfig holds settings for URL inputs.
type HTTPConfig struct {
	// RetryMax is the number of retries after a failed request.
	RetryMax int `toml:"retry_max" env:"RETRY_MAX"`
	// TimeoutSeconds bounds each request attempt.
	TimeoutSeconds int `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// Timeout returns TimeoutSeconds as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// Target is one CSV input and the files generated from it.
type Target struct {
	// Name identifies the target for --target selection and log output.
	Name string `toml:"name"`
	// Input is the palette CSV, a project-relative path or an http(s) URL.
	Input string `toml:"input"`
	// Mode is "combined" (one header) or "split" (header + definition file).
	Mode string `toml:"mode"`
	// Header is the generated header path.
	Header string `toml:"header"`
	// Source is the generated definition file; required in split mode.
	Source string `toml:"source,omitempty"`
	// Swatches is an optional JSON swatch list for the dashboard.
	Swatches string `toml:"swatches,omitempty"`
	// Symbols holds the C names used in the generated code.
	Symbols SymbolsConfig `toml:"symbols"`
}

// SymbolsConfig holds the C identifiers and includes for a target.
type SymbolsConfig struct {
	// Include is the vendor header that provides the color constructor.
	Include string `toml:"include"`
	// Constructor is the call used for each element.
	Constructor string `toml:"constructor"`
	// Array is the generated array name.
	Array string `toml:"array"`
	// ElementType is the C type of each element.
	ElementType string `toml:"element_type"`
	// Count is the derived entry-count constant name.
	Count string `toml:"count"`
	// CountType is the C type of the count constant.
	CountType string `toml:"count_type"`
	// HeaderInclude overrides how the split definition file includes the header.
	HeaderInclude string `toml:"header_include,omitempty"`
}

// Render converts the config form into the renderer's symbol set.
func (s SymbolsConfig) Render() render.Symbols {
	return render.Symbols{
		Include:       s.Include,
		Constructor:   s.Constructor,
		Array:         s.Array,
		ElementType:   s.ElementType,
		Count:         s.Count,
		CountType:     s.CountType,
		HeaderInclude: s.HeaderInclude,
	}
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultSymbols returns the NeoPixel symbol set used by the firmware.
func DefaultSymbols() SymbolsConfig {
	d := render.DefaultSymbols()
	return SymbolsConfig{
		Include:     d.Include,
		Constructor: d.Constructor,
		Array:       d.Array,
		ElementType: d.ElementType,
		Count:       d.Count,
		CountType:   d.CountType,
	}
}

// DefaultTarget returns the firmware target used when no targets are configured.
func DefaultTarget() Target {
	return Target{
		Name:    "firmware",
		Input:   paths.DefaultInput,
		Mode:    ModeCombined,
		Header:  paths.DefaultHeader,
		Symbols: DefaultSymbols(),
	}
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		HTTP: HTTPConfig{
			RetryMax:       2,
			TimeoutSeconds: 10,
		},
		Targets: []Target{DefaultTarget()},
	}
}

// ExampleConfig returns the Config written to palettegen.default.toml.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// applyDefaults fills fields a target left empty.
func (t *Target) applyDefaults() {
	if t.Mode == "" {
		t.Mode = ModeCombined
	}
	d := DefaultSymbols()
	s := &t.Symbols
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&s.Include, d.Include},
		{&s.Constructor, d.Constructor},
		{&s.Array, d.Array},
		{&s.ElementType, d.ElementType},
		{&s.Count, d.Count},
		{&s.CountType, d.CountType},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

// ///////////////////////////////////////////////
// Loading
// ///////////////////////////////////////////////

// Load reads the config file at path. A missing file yields DefaultConfig.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Parse decodes TOML config data over the defaults. Targets are not merged:
// a file with any [[targets]] replaces the default target list, and each
// listed target gets default mode and symbols for the keys it omits.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Targets = nil

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if len(cfg.Targets) == 0 {
		cfg.Targets = []Target{DefaultTarget()}
	}
	for i := range cfg.Targets {
		cfg.Targets[i].applyDefaults()
	}
	return cfg, nil
}

// applyEnv overlays PALETTEGEN_LOG_* and PALETTEGEN_HTTP_* variables.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(&cfg.Log, env.Options{Prefix: EnvPrefix + "LOG_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.HTTP, env.Options{Prefix: EnvPrefix + "HTTP_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

var (
	// targetNameRe matches target names: lowercase alphanumeric with - or _.
	targetNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	// identRe matches a plain C identifier.
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// typeRe matches C types such as "uint8_t", "unsigned int" or "ns::Color".
	typeRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_:]*( [A-Za-z_][A-Za-z0-9_:]*)*$`)
	// callRe matches a callable such as "Adafruit_NeoPixel::Color" or "strip.Color".
	callRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_:.]*$`)
	// includeRe rejects header names that would break the include directive.
	includeRe = regexp.MustCompile(`^[^<>"\s]+$`)
)

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported version %d: expected %d", c.Version, CurrentVersion)
	}

	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	if c.HTTP.RetryMax < 0 {
		return fmt.Errorf("http.retry_max must be >= 0, got %d", c.HTTP.RetryMax)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0, got %d", c.HTTP.TimeoutSeconds)
	}

	if len(c.Targets) == 0 {
		return errors.New("no targets configured")
	}
	seen := map[string]bool{}
	for i, t := range c.Targets {
		if !targetNameRe.MatchString(t.Name) {
			return fmt.Errorf("targets[%d]: invalid name %q: use lowercase letters, digits, - or _", i, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("targets[%d]: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = true
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target %q: %w", t.Name, err)
		}
	}
	return nil
}

// Validate checks a single target's paths, mode and symbols.
func (t Target) Validate() error {
	if t.Input == "" {
		return errors.New("input is required")
	}
	if t.Header == "" {
		return errors.New("header is required")
	}

	switch t.Mode {
	case ModeCombined:
		if t.Source != "" {
			return fmt.Errorf("source %q is only used in split mode", t.Source)
		}
	case ModeSplit:
		if t.Source == "" {
			return errors.New("split mode requires source")
		}
	default:
		return fmt.Errorf("invalid mode %q: must be combined or split", t.Mode)
	}

	switch {
	case t.Source != "" && t.Source == t.Header:
		return fmt.Errorf("header and source both write %q", t.Source)
	case t.Swatches != "" && t.Swatches == t.Header:
		return fmt.Errorf("header and swatches both write %q", t.Swatches)
	case t.Swatches != "" && t.Swatches == t.Source:
		return fmt.Errorf("source and swatches both write %q", t.Swatches)
	}

	s := t.Symbols
	checks := []struct {
		key   string
		value string
		re    *regexp.Regexp
	}{
		{"include", s.Include, includeRe},
		{"constructor", s.Constructor, callRe},
		{"array", s.Array, identRe},
		{"element_type", s.ElementType, typeRe},
		{"count", s.Count, identRe},
		{"count_type", s.CountType, typeRe},
	}
	for _, c := range checks {
		if !c.re.MatchString(c.value) {
			return fmt.Errorf("invalid symbols.%s %q", c.key, c.value)
		}
	}
	if s.HeaderInclude != "" && !includeRe.MatchString(s.HeaderInclude) {
		return fmt.Errorf("invalid symbols.header_include %q", s.HeaderInclude)
	}
	if s.Array == s.Count {
		return fmt.Errorf("symbols.array and symbols.count are both %q", s.Array)
	}
	return nil
}

// ///////////////////////////////////////////////
// Target Selection
// ///////////////////////////////////////////////

// Select returns the targets whose name matches the glob pattern, in config
// order. An empty pattern selects every target.
func (c *Config) Select(pattern string) ([]Target, error) {
	if pattern == "" {
		return c.Targets, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid target pattern %q", pattern)
	}

	var out []Target
	for _, t := range c.Targets {
		if ok, _ := doublestar.Match(pattern, t.Name); ok {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no target matches %q", pattern)
	}
	return out, nil
}
