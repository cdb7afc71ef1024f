package pdfdoc

import (
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// BlockConfig controls how glyph runs are grouped. All values are
// multiples of the font size or line height.
type BlockConfig struct {
	// LineTolerance is the baseline drift still treated as the same line
	LineTolerance float64 `mapstructure:"line_tolerance"`
	// WordSpacing is the horizontal gap that implies a space
	WordSpacing float64 `mapstructure:"word_spacing"`
	// BlockGap is the vertical gap between lines that starts a new block
	BlockGap float64 `mapstructure:"block_gap"`
}

// DefaultBlockConfig returns sensible defaults for body text.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		LineTolerance: 0.5,
		WordSpacing:   0.3,
		BlockGap:      1.0,
	}
}

type line struct {
	x0, y0, x1, y1 float64
	baseline       float64
	size           float64
	text           strings.Builder
}

type textBlock struct {
	x0, y0, x1, y1 float64
	lines          []string
	lastHeight     float64
}

// groupBlocks turns glyph runs, in content stream order, into blocks with
// top-down coordinates. top is the page's upper edge.
func groupBlocks(texts []pdf.Text, top float64, cfg BlockConfig) []extractor.TextBlock {
	lines := groupLines(texts, top, cfg)
	if len(lines) == 0 {
		return nil
	}

	var blocks []*textBlock
	var cur *textBlock
	for _, l := range lines {
		if cur != nil && continuesBlock(cur, l, cfg) {
			cur.lines = append(cur.lines, l.text.String())
			cur.x0 = math.Min(cur.x0, l.x0)
			cur.x1 = math.Max(cur.x1, l.x1)
			cur.y1 = math.Max(cur.y1, l.y1)
			cur.lastHeight = l.y1 - l.y0
			continue
		}
		cur = &textBlock{
			x0: l.x0, y0: l.y0, x1: l.x1, y1: l.y1,
			lines:      []string{l.text.String()},
			lastHeight: l.y1 - l.y0,
		}
		blocks = append(blocks, cur)
	}

	out := make([]extractor.TextBlock, len(blocks))
	for i, b := range blocks {
		out[i] = extractor.TextBlock{
			X0: b.x0, Y0: b.y0, X1: b.x1, Y1: b.y1,
			Text:    strings.Join(b.lines, "\n") + "\n",
			BlockNo: i,
		}
	}
	return out
}

// continuesBlock reports whether l sits just below cur and overlaps it
// horizontally.
func continuesBlock(cur *textBlock, l *line, cfg BlockConfig) bool {
	gap := l.y0 - cur.y1
	if gap < -cur.lastHeight*cfg.LineTolerance {
		return false
	}
	if gap > cur.lastHeight*cfg.BlockGap {
		return false
	}
	return l.x0 <= cur.x1 && l.x1 >= cur.x0
}

func groupLines(texts []pdf.Text, top float64, cfg BlockConfig) []*line {
	var lines []*line
	var cur *line
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := math.Abs(t.FontSize)
		if size == 0 {
			size = 1
		}
		baseline := top - t.Y

		if cur != nil && sameLine(cur, t, baseline, size, cfg) {
			if t.X-cur.x1 > size*cfg.WordSpacing && !endsWithSpace(cur) && !strings.HasPrefix(t.S, " ") {
				cur.text.WriteByte(' ')
			}
			cur.text.WriteString(t.S)
			cur.x1 = math.Max(cur.x1, t.X+t.W)
			cur.y0 = math.Min(cur.y0, baseline-size)
			continue
		}

		if cur != nil {
			lines = append(lines, cur)
		}
		cur = &line{
			x0: t.X, x1: t.X + t.W,
			y0: baseline - size, y1: baseline,
			baseline: baseline,
			size:     size,
		}
		cur.text.WriteString(t.S)
	}
	if cur != nil {
		lines = append(lines, cur)
	}

	// Drop lines that carry only whitespace.
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l.text.String()) != "" {
			kept = append(kept, l)
		}
	}
	return kept
}

// sameLine keeps a run on the current line while its baseline stays within
// tolerance and it does not jump back to the left of the line start.
func sameLine(cur *line, t pdf.Text, baseline, size float64, cfg BlockConfig) bool {
	if math.Abs(baseline-cur.baseline) > math.Max(size, cur.size)*cfg.LineTolerance {
		return false
	}
	return t.X >= cur.x0-size*cfg.WordSpacing
}

func endsWithSpace(l *line) bool {
	s := l.text.String()
	return s != "" && s[len(s)-1] == ' '
}
