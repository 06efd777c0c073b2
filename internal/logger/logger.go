// Package logger provides the slog handler used by palettegen.
//
// Console output (stderr) omits timestamps:
//
//	[LEVEL] message | key=value, key2=value2
//
// File output, enabled with a log file path, prefixes each record with a UTC
// timestamp and rotates through lumberjack:
//
//	2006-01-02T15:04:05.000Z [LEVEL] message | key=value
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ///////////////////////////////////////////////
// Levels
// ///////////////////////////////////////////////

const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
)

// levelName returns the display name for a log level.
func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= LevelDebug:
		return "DEBUG"
	case l <= LevelInfo:
		return "INFO"
	case l <= LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel converts trace, debug, info, warn or error (any case) to a
// level. Unrecognized strings map to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ValidLevel reports whether s names a level accepted by [ParseLevel].
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

// Handler is a slog.Handler that formats log records as:
//
//	[LEVEL] message | key=value, ...
//	2006-01-02T15:04:05.000Z [LEVEL] message | key=value, ...  (timestamps)
type Handler struct {
	// w is the destination writer for formatted log output.
	w io.Writer
	// mu serializes writes to w; handlers derived via WithAttrs and
	// WithGroup share it.
	mu *sync.Mutex
	// level is the minimum severity that this handler will emit.
	level slog.Level
	// timestamps prefixes each line with the record time in UTC.
	timestamps bool
	// attrs holds pre-applied attributes added via [Handler.WithAttrs].
	attrs []slog.Attr
	// group is the dot-separated attribute key prefix set via [Handler.WithGroup].
	group string
}

// NewHandler creates a Handler that writes to w, filtering records below
// level. When timestamps is true every line starts with a UTC timestamp.
func NewHandler(w io.Writer, level slog.Level, timestamps bool) *Handler {
	return &Handler{w: w, mu: &sync.Mutex{}, level: level, timestamps: timestamps}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	if h.timestamps {
		buf.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
		buf.WriteString(" ")
	}
	buf.WriteString("[")
	buf.WriteString(levelName(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	sep := " | "
	write := func(a slog.Attr) {
		buf.WriteString(sep)
		sep = ", "
		if h.group != "" {
			buf.WriteString(h.group)
			buf.WriteString(".")
		}
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// WithAttrs returns a new Handler with the given attributes pre-applied.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &nh
}

// WithGroup returns a new Handler whose attribute keys are prefixed with
// name (e.g., "target.path").
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if h.group != "" {
		nh.group = h.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}

// ///////////////////////////////////////////////
// Fan-out
// ///////////////////////////////////////////////

// multiHandler sends each record to every handler that accepts its level.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

// ///////////////////////////////////////////////
// Constructor
// ///////////////////////////////////////////////

// Options configures [New].
type Options struct {
	// Console receives timestamp-free output, normally os.Stderr.
	Console io.Writer
	// Level is the minimum level for both outputs.
	Level slog.Level
	// File is an optional rotating log file path.
	File string
	// MaxSizeMB is the file size that triggers rotation.
	MaxSizeMB int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to opts.Console and, when opts.File is set,
// to a rotating log file. The returned io.Closer flushes and closes the file.
func New(opts Options) (*slog.Logger, io.Closer) {
	console := NewHandler(opts.Console, opts.Level, false)
	if opts.File == "" {
		return slog.New(console), nopCloser{}
	}

	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	file := NewHandler(lj, opts.Level, true)
	return slog.New(multiHandler{console, file}), lj
}

// Trace logs a message at LevelTrace.
func Trace(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}
