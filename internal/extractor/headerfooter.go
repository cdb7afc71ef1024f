package extractor

// DefaultThreshold is the share of pages that must agree on a header or
// footer height before the pattern is treated as page furniture.
const DefaultThreshold = 0.9

// Verdict reports which page furniture was found across a document.
type Verdict struct {
	Header bool
	Footer bool
}

// Any reports whether a header or a footer was found.
func (v Verdict) Any() bool {
	return v.Header || v.Footer
}

// DetectHeaderFooter decides, independently for headers and footers, whether
// the most common candidate height covers at least threshold of the pages.
// Heights are compared exactly: a page number changes the text of a footer
// but not the height of the band it sits in.
func DetectHeaderFooter(metrics []PageMetrics, threshold float64) Verdict {
	if len(metrics) == 0 {
		return Verdict{}
	}

	headers := make([]float64, len(metrics))
	footers := make([]float64, len(metrics))
	for i, m := range metrics {
		headers[i] = m.HeaderHeight
		footers[i] = m.FooterHeight
	}

	return Verdict{
		Header: commonHeightExists(headers, threshold),
		Footer: commonHeightExists(footers, threshold),
	}
}

func commonHeightExists(heights []float64, threshold float64) bool {
	if len(heights) == 0 {
		return false
	}
	return float64(mostCommonCount(heights))/float64(len(heights)) >= threshold
}

func mostCommonCount(heights []float64) int {
	counts := make(map[float64]int, len(heights))
	best := 0
	for _, h := range heights {
		counts[h]++
		if counts[h] > best {
			best = counts[h]
		}
	}
	return best
}

// FilterHeaderFooter drops the header and/or footer candidate from every
// page according to v. Remaining blocks keep their order. When v found
// nothing the original block slices are returned as they are.
func FilterHeaderFooter(metrics []PageMetrics, v Verdict) [][]TextBlock {
	pages := make([][]TextBlock, 0, len(metrics))
	if !v.Any() {
		for _, m := range metrics {
			pages = append(pages, m.Blocks)
		}
		return pages
	}

	for _, m := range metrics {
		drop := make(map[int]struct{}, 2)
		if v.Header && m.HeaderIdx != NoBlock {
			drop[m.HeaderIdx] = struct{}{}
		}
		if v.Footer && m.FooterIdx != NoBlock {
			drop[m.FooterIdx] = struct{}{}
		}

		kept := make([]TextBlock, 0, len(m.Blocks))
		for idx, b := range m.Blocks {
			if _, ok := drop[idx]; ok {
				continue
			}
			kept = append(kept, b)
		}
		pages = append(pages, kept)
	}
	return pages
}
