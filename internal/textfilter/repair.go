package textfilter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
)

// isStray matches control and invisible runes left behind by broken font
// encodings. Newlines and tabs carry layout and are kept.
func isStray(r rune) bool {
	switch r {
	case '\n', '\t':
		return false
	case '\u00ad', '\u200b', '\ufeff': // soft hyphen, zero width space, BOM
		return true
	}
	return unicode.IsControl(r)
}

// Repair fixes common PDF extraction artifacts. Applying it twice gives the
// same result as applying it once.
func (f *Filter) Repair(text string) string {
	if text == "" {
		return text
	}

	cleaned, _, err := transform.String(runes.Remove(runes.Predicate(isStray)), text)
	if err != nil {
		cleaned = text
	}

	cleaned = removeInterleavedReplacements(cleaned)
	cleaned = ligatures.Replace(cleaned)
	// Composition comes after every step that can put a letter next to a
	// combining mark, and before hyphen joining so accented letters count
	// as lowercase.
	return joinHyphenated(norm.NFC.String(cleaned))
}

// removeInterleavedReplacements drops U+FFFD when it alternates with real
// characters ("C�O�N..."), which happens when a font maps every
// other code to nothing.
func removeInterleavedReplacements(text string) string {
	if !strings.ContainsRune(text, unicode.ReplacementChar) {
		return text
	}

	rs := []rune(text)
	if len(rs) < 3 {
		return text
	}

	interleaved := 0
	for i := 0; i < len(rs)-1; i++ {
		if rs[i] != unicode.ReplacementChar && rs[i+1] == unicode.ReplacementChar {
			interleaved++
		}
	}

	replacements := strings.Count(text, string(unicode.ReplacementChar))
	if float64(interleaved)/float64(replacements) <= 0.3 {
		return text
	}
	return strings.ReplaceAll(text, string(unicode.ReplacementChar), "")
}

// joinHyphenated removes "-\n" between two lowercase letters, undoing
// words hyphenated across a line break.
func joinHyphenated(text string) string {
	if !strings.Contains(text, "-\n") {
		return text
	}

	rs := []rune(text)
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(rs); i++ {
		if rs[i] == '-' && i+1 < len(rs) && rs[i+1] == '\n' &&
			i > 0 && unicode.IsLower(rs[i-1]) &&
			i+2 < len(rs) && unicode.IsLower(rs[i+2]) {
			i++
			continue
		}
		sb.WriteRune(rs[i])
	}
	return sb.String()
}
