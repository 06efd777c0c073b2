// Package palette loads color definitions from the shared palette CSV.
//
// The file format is one header row followed by rows of
//
//	red,green,blue[,name]
//
// where the components are base-10 integers and name is an optional label.
// The header row is always discarded.
package palette

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

var (
	// ErrTooFewFields is returned when a data row has fewer than three fields.
	ErrTooFewFields = errors.New("expected at least 3 fields")
	// ErrNotInteger is returned when a color component is not a base-10 integer.
	ErrNotInteger = errors.New("not an integer")
	// ErrNoEntries is returned when the file has no data rows after the header.
	ErrNoEntries = errors.New("palette has no color entries")
)

// RowError describes a malformed data row.
type RowError struct {
	// Line is the 1-based line number the row starts on.
	Line int
	// Field is the component name ("red", "green", "blue"), empty for row-level errors.
	Field string
	// Value is the offending raw field text.
	Value string
	// Err is the underlying cause, one of the sentinel errors above.
	Err error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ///////////////////////////////////////////////
// Entry
// ///////////////////////////////////////////////

// Entry is one parsed palette row.
type Entry struct {
	R, G, B int
	// Name is the optional display label; empty when the row has no fourth field.
	Name string
}

// InByteRange reports whether every component fits in 0..255.
func (e Entry) InByteRange() bool {
	return inByte(e.R) && inByte(e.G) && inByte(e.B)
}

// Hex returns the entry as a "#rrggbb" string. Components outside 0..255
// are clamped.
func (e Entry) Hex() string {
	c := colorful.Color{
		R: float64(e.R) / 255,
		G: float64(e.G) / 255,
		B: float64(e.B) / 255,
	}
	return c.Clamped().Hex()
}

func inByte(v int) bool { return v >= 0 && v <= 255 }

// ///////////////////////////////////////////////
// Parsing
// ///////////////////////////////////////////////

var componentNames = [3]string{"red", "green", "blue"}

// nameReplacer flattens line breaks inside quoted names so the label stays
// on one line when it is emitted as a trailing // comment.
var nameReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Parse reads palette rows from r. The first record is skipped as a header.
// Any malformed row aborts the parse and no entries are returned. A blank
// line after the header is a row with no fields and is rejected like any
// other short row.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read palette: %w", err)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoEntries
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var entries []Entry
	for {
		// encoding/csv drops empty lines, so look for one where the
		// previous record ended.
		if line, ok := blankLineAt(data, cr.InputOffset()); ok {
			return nil, &RowError{Line: line, Err: ErrTooFewFields}
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		e, err := parseRecord(rec, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// blankLineAt reports whether an empty line starts at byte offset off, and
// its 1-based line number.
func blankLineAt(data []byte, off int64) (int, bool) {
	rest := data[off:]
	if !bytes.HasPrefix(rest, []byte("\n")) && !bytes.HasPrefix(rest, []byte("\r\n")) {
		return 0, false
	}
	return bytes.Count(data[:off], []byte("\n")) + 1, true
}

// parseRecord converts one CSV record into an Entry.
func parseRecord(rec []string, line int) (Entry, error) {
	if len(rec) < 3 {
		return Entry{}, &RowError{Line: line, Err: ErrTooFewFields}
	}

	var rgb [3]int
	for i := range rgb {
		v, err := strconv.Atoi(strings.TrimSpace(rec[i]))
		if err != nil {
			return Entry{}, &RowError{Line: line, Field: componentNames[i], Value: rec[i], Err: ErrNotInteger}
		}
		rgb[i] = v
	}

	e := Entry{R: rgb[0], G: rgb[1], B: rgb[2]}
	if len(rec) > 3 {
		e.Name = nameReplacer.Replace(rec[3])
	}
	return e, nil
}

// LoadFile reads and parses the palette CSV at path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open palette: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}
