// Package textfilter separates meaningful PDF text from parser noise and
// repairs common extraction artifacts.
package textfilter

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config tunes the noise heuristics.
type Config struct {
	// MaxUnusualRatio is the largest share of control, replacement and
	// private-use runes a fragment may contain
	MaxUnusualRatio float64 `mapstructure:"max_unusual_ratio"`
	// EntropyThreshold is the Shannon entropy (bits/rune) above which a
	// mixed letter/digit/symbol fragment is treated as noise
	EntropyThreshold float64 `mapstructure:"entropy_threshold"`
	// MinEntropyLength is the shortest fragment the entropy test applies to
	MinEntropyLength int `mapstructure:"min_entropy_length"`
	// MaxTransitionRate is the largest share of character-class changes
	// allowed in a symbol-heavy fragment
	MaxTransitionRate float64 `mapstructure:"max_transition_rate"`
}

// DefaultConfig returns thresholds tuned for English and CJK body text.
func DefaultConfig() Config {
	return Config{
		MaxUnusualRatio:   0.3,
		EntropyThreshold:  4.8, // English prose stays below ~4.5
		MinEntropyLength:  10,
		MaxTransitionRate: 0.5,
	}
}

// Filter implements extractor.TextFilter.
type Filter struct {
	cfg Config
}

// New creates a Filter.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

type runeStats struct {
	total, letters, digits, symbols, unusual, transitions int
}

func stats(s string) runeStats {
	var st runeStats
	prev := 0
	for _, r := range s {
		st.total++
		class := 0
		switch {
		case unicode.IsLetter(r):
			st.letters++
			class = 1
		case unicode.IsDigit(r):
			st.digits++
			class = 2
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			st.symbols++
			class = 3
		}
		if isUnusual(r) {
			st.unusual++
		}
		if prev != 0 && class != 0 && prev != class {
			st.transitions++
		}
		prev = class
	}
	return st
}

func isUnusual(r rune) bool {
	return r == unicode.ReplacementChar ||
		unicode.Is(unicode.Co, r) ||
		(unicode.IsControl(r) && !unicode.IsSpace(r))
}

// IsMeaningful reports whether text is worth keeping. Blank fragments,
// fragments without letters or digits, and fragments that look like
// encoding garbage are rejected.
func (f *Filter) IsMeaningful(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	st := stats(text)
	words := st.letters + st.digits
	if words == 0 {
		return false
	}
	if float64(st.unusual)/float64(st.total) > f.cfg.MaxUnusualRatio {
		return false
	}
	if st.symbols > words && words < st.total/4 {
		return false
	}

	if st.total >= f.cfg.MinEntropyLength && entropy(text) > f.cfg.EntropyThreshold {
		if st.digits > 0 && st.symbols > 0 && st.letters < st.total/2 {
			return false
		}
	}

	// "xK3#@fJq&*2LqZ%mN8!pR": class flips on almost every rune
	if st.total > 15 {
		rate := float64(st.transitions) / float64(st.total)
		if rate > f.cfg.MaxTransitionRate && st.symbols > st.total/6 {
			return false
		}
	}
	return true
}

func entropy(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}
	h := 0.0
	for _, c := range freq {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}
