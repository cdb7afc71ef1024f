package display

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"

	brightRed     = "\033[91m"
	brightGreen   = "\033[92m"
	brightYellow  = "\033[93m"
	brightBlue    = "\033[94m"
	brightMagenta = "\033[95m"
	brightCyan    = "\033[96m"
	brightWhite   = "\033[97m"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ServerInfo holds all the information to display in the startup banner.
type ServerInfo struct {
	Version string

	// Index stats
	VectorCount int
	QuadCount   int64
	SourceCount int

	// Embedding
	EmbedModel   string
	EmbedBaseURL string

	// Extraction
	Threshold float64
	CacheDir  string

	Port int
}

// PrintBanner prints a colorful startup banner with all server information.
func PrintBanner(info ServerInfo) {
	w := Out
	host := fmt.Sprintf("http://localhost:%d", info.Port)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s%s📑 pdfsect server%s %s%s%s\n", bold, brightCyan, reset, dim, info.Version, reset)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)

	printSectionHeader(w, "📚 Index")
	printKVColored(w, "Sources", formatCount(info.SourceCount), brightGreen)
	printKVColored(w, "Vectors", formatCount(info.VectorCount), brightGreen)
	printKVColored(w, "Outline Quads", formatCount(int(info.QuadCount)), brightGreen)
	fmt.Fprintln(w)

	printSectionHeader(w, "⚙️  Configuration")
	printKV(w, "Threshold", fmt.Sprintf("%.2f", info.Threshold), brightYellow)
	if info.CacheDir != "" {
		printKV(w, "Cache", info.CacheDir, dim+white)
	} else {
		printKVColored(w, "Cache", "✗ disabled", dim+white)
	}
	if info.EmbedBaseURL != "" {
		model := info.EmbedModel
		if model == "" {
			model = "(router, no model specified)"
		}
		printKV(w, "Embed Model", model, brightMagenta)
		printKV(w, "Embed Endpoint", maskURL(info.EmbedBaseURL), dim+white)
	} else {
		printKVColored(w, "Vector Search", "✗ disabled (no embedder configured)", brightYellow)
	}
	fmt.Fprintln(w)

	printSectionHeader(w, "🌐 Endpoints")
	printEndpoint(w, "Extract", "POST", host+"/v1/extract", brightGreen)
	printEndpoint(w, "Search", "GET ", host+"/v1/search?q=", brightBlue)
	printEndpoint(w, "Outline", "GET ", host+"/v1/outline?source=", brightBlue)
	printEndpoint(w, "MCP", "POST", host+"/mcp", brightCyan)
	printEndpoint(w, "Health", "GET ", host+"/health", green)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintf(w, "  %s%s🚀 Server listening on %s%s%s%s\n", dim, white, reset, bold+brightGreen, host, reset)
	fmt.Fprintf(w, "  %s%s%s%s\n", dim, cyan, rule, reset)
	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "  %s%s%s%s\n", bold, brightYellow, title, reset)
}

func printKV(w io.Writer, key, value, valueColor string) {
	fmt.Fprintf(w, "    %s%s%s  %s%s%s\n", dim, padRight(key, 18), reset, valueColor, value, reset)
}

func printKVColored(w io.Writer, key, value, valueColor string) {
	fmt.Fprintf(w, "    %s%s%s  %s%s%s%s\n", dim, padRight(key, 18), reset, bold, valueColor, value, reset)
}

func printEndpoint(w io.Writer, label, method, url, color string) {
	fmt.Fprintf(w, "    %s%s%s %s%s%-5s%s %s%s%s\n",
		dim, padRight(label, 8), reset,
		bold, brightWhite, method, reset,
		color, url, reset,
	)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func formatCount(n int) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%d (%0.1fM)", n, float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%d (%0.1fK)", n, float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// maskURL trims the trailing slash for compact display.
func maskURL(rawURL string) string {
	if rawURL == "" {
		return "(not set)"
	}
	return strings.TrimRight(rawURL, "/")
}
