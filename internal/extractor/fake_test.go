package extractor

import "strings"

// keepFilter keeps anything that is not blank and repairs nothing.
type keepFilter struct{}

func (keepFilter) IsMeaningful(text string) bool { return strings.TrimSpace(text) != "" }
func (keepFilter) Repair(text string) string     { return text }

// upperFilter records how often Repair runs.
type upperFilter struct {
	keepFilter
	repairs int
}

func (f *upperFilter) Repair(text string) string {
	f.repairs++
	return strings.ToUpper(text)
}

// block builds a block spanning [y0, y0+height].
func block(text string, y0, height float64) TextBlock {
	return TextBlock{X0: 72, Y0: y0, X1: 540, Y1: y0 + height, Text: text}
}
