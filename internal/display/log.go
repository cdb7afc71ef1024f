package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Out and ErrOut receive all display output. Tests swap them.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

// ────────────────────────────────────────────────────────────
// Exported color constants for use outside the display package
// ────────────────────────────────────────────────────────────

const (
	Reset = reset
	Bold  = bold
	Dim   = dim

	Green   = green
	Yellow  = yellow
	Cyan    = cyan
	White   = white
	Magenta = magenta

	BrightGreen  = brightGreen
	BrightYellow = brightYellow
	BrightCyan   = brightCyan
	BrightWhite  = brightWhite
)

// ────────────────────────────────────────────────────────────
// Log-level helpers (colored prefixes for CLI output)
// ────────────────────────────────────────────────────────────

// Step prints a pipeline step like "  [1/4] Extracting PDFs..."
func Step(step, total int, msg string) {
	fmt.Fprintf(Out, "  %s%s[%d/%d]%s %s%s%s\n",
		bold, brightCyan, step, total, reset,
		white, msg, reset,
	)
}

// StepDetail prints an indented detail line under a step.
func StepDetail(msg string) {
	fmt.Fprintf(Out, "        %s%s%s\n", dim+white, msg, reset)
}

// StepResult prints a success result for a step with a highlighted value.
func StepResult(label string, value interface{}) {
	fmt.Fprintf(Out, "        %s%s%s %s%v%s\n",
		dim, label, reset,
		bold+brightGreen, value, reset,
	)
}

// StepWarn prints a warning detail under a step.
func StepWarn(msg string) {
	fmt.Fprintf(Out, "        %s%s⚠ %s%s\n", yellow, bold, msg, reset)
}

// Info prints a general info message.
func Info(msg string) {
	fmt.Fprintf(Out, "  %s%sℹ%s %s\n", brightBlue, bold, reset, msg)
}

// Success prints a green success message.
func Success(msg string) {
	fmt.Fprintf(Out, "  %s%s✓%s %s\n", brightGreen, bold, reset, msg)
}

// Warn prints a yellow warning message.
func Warn(msg string) {
	fmt.Fprintf(Out, "  %s%s⚠%s %s%s%s\n", brightYellow, bold, reset, yellow, msg, reset)
}

// ErrorMsg prints a red error message.
func ErrorMsg(msg string) {
	fmt.Fprintf(ErrOut, "  %s%s✗%s %s%s%s\n", brightRed, bold, reset, red, msg, reset)
}

// Header prints a section header line.
func Header(msg string) {
	fmt.Fprintln(Out)
	fmt.Fprintf(Out, "  %s%s%s%s\n", bold, brightCyan, msg, reset)
	fmt.Fprintf(Out, "  %s%s%s%s\n", dim, cyan, rule, reset)
}

// KeyValue prints a labeled value.
func KeyValue(key string, value interface{}, valueColor string) {
	fmt.Fprintf(Out, "    %s%s%s  %s%v%s\n", dim, padRight(key, 18), reset, valueColor, value, reset)
}

// Segment prints the heading line of one extracted segment.
func Segment(index int, section string, chars int) {
	if section == "" {
		section = "(before first section)"
	}
	fmt.Fprintf(Out, "\n  %s%s#%d%s %s%s%s %s(%d chars)%s\n",
		bold, brightMagenta, index, reset,
		bold+brightWhite, section, reset,
		dim, chars, reset,
	)
}

// ────────────────────────────────────────────────────────────
// HTTP request log: colorized request lines for the server
// ────────────────────────────────────────────────────────────

// LogRequest prints a colorized HTTP request log line.
func LogRequest(method, path string, status int, duration time.Duration, remote string) {
	fmt.Fprintf(Out, "  %s%s%-7s%s %s%-35s%s %s%s%d%s %s%s%s %s%s%s\n",
		bold, colorForMethod(method), method, reset,
		white, path, reset,
		bold, colorForStatus(status), status, reset,
		dim, formatDuration(duration), reset,
		dim+white, remote, reset,
	)
}

func colorForMethod(method string) string {
	switch method {
	case "GET":
		return brightBlue
	case "POST":
		return brightGreen
	case "OPTIONS":
		return dim + white
	default:
		return white
	}
}

func colorForStatus(code int) string {
	switch {
	case code >= 500:
		return brightRed
	case code >= 400:
		return brightYellow
	case code >= 300:
		return brightCyan
	case code >= 200:
		return brightGreen
	default:
		return white
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dμs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// ────────────────────────────────────────────────────────────
// slog bridge: library debug output in the CLI style
// ────────────────────────────────────────────────────────────

type handler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

// NewHandler returns a slog.Handler that prints dim "·" detail lines to w.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &handler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	color := dim + white
	if r.Level >= slog.LevelWarn {
		color = yellow
	}
	fmt.Fprintf(&sb, "        %s· %s", color, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	})
	sb.WriteString(reset + "\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &handler{mu: h.mu, w: h.w, level: h.level, attrs: merged}
}

// WithGroup flattens groups into the parent.
func (h *handler) WithGroup(string) slog.Handler {
	return h
}
