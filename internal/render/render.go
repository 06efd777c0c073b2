// Package render turns parsed palette entries into the text of the generated
// firmware sources.
//
// Every C artifact derives its entry count as sizeof(array)/sizeof(array[0])
// so the exposed count can never drift from the array length.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"tools.zach/dev/palettegen/internal/palette"
)

// ErrCountOverflow is returned when the palette has more entries than the
// configured count type can hold.
var ErrCountOverflow = errors.New("entry count exceeds count type")

// Artifact is the rendered content of one output file.
type Artifact struct {
	Path    string
	Content []byte
}

// ///////////////////////////////////////////////
// Symbols
// ///////////////////////////////////////////////

// Symbols names the C identifiers and includes used by the templates.
type Symbols struct {
	// Include is the vendor header providing the color constructor.
	Include string
	// Constructor is the function-call used for each element.
	Constructor string
	// Array is the name of the generated array.
	Array string
	// ElementType is the C type of each array element.
	ElementType string
	// Count is the name of the derived entry-count constant.
	Count string
	// CountType is the C type of the count constant.
	CountType string
	// HeaderInclude is how the split definition file includes its header.
	// Empty means the header's base name.
	HeaderInclude string
}

// DefaultSymbols matches the firmware's NeoPixel palette header.
func DefaultSymbols() Symbols {
	return Symbols{
		Include:     "Adafruit_NeoPixel.h",
		Constructor: "Adafruit_NeoPixel::Color",
		Array:       "colors",
		ElementType: "uint32_t",
		Count:       "NUM_COLORS",
		CountType:   "uint8_t",
	}
}

// countLimits holds the maximum value of fixed-width count types that a
// realistic palette can overflow.
var countLimits = map[string]int{
	"uint8_t":  255,
	"int8_t":   127,
	"uint16_t": 65535,
	"int16_t":  32767,
}

// checkCount reports ErrCountOverflow when n does not fit the count type.
func (s Symbols) checkCount(n int) error {
	if limit, ok := countLimits[s.CountType]; ok && n > limit {
		return fmt.Errorf("%w: %d entries, %s max %d", ErrCountOverflow, n, s.CountType, limit)
	}
	return nil
}

func (s Symbols) countExpr() string {
	return fmt.Sprintf("sizeof(%s) / sizeof(%s[0])", s.Array, s.Array)
}

// ///////////////////////////////////////////////
// Lines
// ///////////////////////////////////////////////

// Line renders one array element, with a trailing comment when the entry
// has a name.
func Line(e palette.Entry, s Symbols) string {
	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(s.Constructor)
	b.WriteString("(")
	b.WriteString(strconv.Itoa(e.R))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(e.G))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(e.B))
	b.WriteString("),")
	if name := commentText(e.Name); name != "" {
		b.WriteString(" // ")
		b.WriteString(name)
	}
	return b.String()
}

// commentText returns name as it can appear in a // comment. A trailing
// backslash, even one followed by blanks, splices the next line into the
// comment and would swallow the next initializer, so it is dropped.
func commentText(name string) string {
	return strings.TrimRight(name, "\\ \t")
}

// arrayBody returns the array definition lines, opening brace to closing.
func arrayBody(entries []palette.Entry, s Symbols) []string {
	lines := make([]string, 0, len(entries)+2)
	lines = append(lines, fmt.Sprintf("const %s %s[] = {", s.ElementType, s.Array))
	for _, e := range entries {
		lines = append(lines, Line(e, s))
	}
	return append(lines, "};")
}

// join joins lines with LF and adds no final newline; firmware headers are
// checked in byte-for-byte as earlier builds produced them.
func join(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// ///////////////////////////////////////////////
// Modes
// ///////////////////////////////////////////////

// Combined renders a single header holding the array and the count constant.
func Combined(entries []palette.Entry, s Symbols, headerPath string) (Artifact, error) {
	if err := s.checkCount(len(entries)); err != nil {
		return Artifact{}, err
	}

	lines := []string{
		"#pragma once",
		"#include <" + s.Include + ">",
		"",
	}
	lines = append(lines, arrayBody(entries, s)...)
	lines = append(lines,
		"",
		fmt.Sprintf("constexpr %s %s = %s;", s.CountType, s.Count, s.countExpr()),
	)
	return Artifact{Path: headerPath, Content: join(lines)}, nil
}

// Split renders a declaration-only header and a definition file that holds
// the array contents. The header is returned first.
func Split(entries []palette.Entry, s Symbols, headerPath, sourcePath string) ([]Artifact, error) {
	if err := s.checkCount(len(entries)); err != nil {
		return nil, err
	}

	header := []string{
		"#pragma once",
		"#include <stdint.h>",
		"",
		fmt.Sprintf("extern const %s %s[];", s.ElementType, s.Array),
		fmt.Sprintf("extern const %s %s;", s.CountType, s.Count),
	}

	include := s.HeaderInclude
	if include == "" {
		include = filepath.Base(headerPath)
	}
	source := []string{
		"#include <" + s.Include + ">",
		"#include \"" + include + "\"",
		"",
	}
	source = append(source, arrayBody(entries, s)...)
	source = append(source,
		"",
		fmt.Sprintf("const %s %s = %s;", s.CountType, s.Count, s.countExpr()),
	)

	return []Artifact{
		{Path: headerPath, Content: join(header)},
		{Path: sourcePath, Content: join(source)},
	}, nil
}

// swatch is one element of the dashboard swatch list.
type swatch struct {
	Hex  string `json:"hex"`
	Name string `json:"name,omitempty"`
}

// Swatches renders the palette as a JSON array of hex colors for the
// dashboard color picker.
func Swatches(entries []palette.Entry, path string) (Artifact, error) {
	list := make([]swatch, len(entries))
	for i, e := range entries {
		list[i] = swatch{Hex: e.Hex(), Name: e.Name}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("encoding swatches: %w", err)
	}
	return Artifact{Path: path, Content: append(data, '\n')}, nil
}
