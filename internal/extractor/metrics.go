package extractor

import "math"

// NoBlock marks a missing header or footer candidate.
const NoBlock = -1

// PageMetrics summarises the header and footer candidates of one page.
type PageMetrics struct {
	Blocks []TextBlock

	HeaderIdx    int
	FooterIdx    int
	HeaderHeight float64
	FooterHeight float64
}

// CollectPageMetrics finds the topmost and bottommost block of a page.
// It returns false for a page without blocks.
func CollectPageMetrics(blocks []TextBlock) (PageMetrics, bool) {
	if len(blocks) == 0 {
		return PageMetrics{}, false
	}

	m := PageMetrics{
		Blocks:    blocks,
		HeaderIdx: NoBlock,
		FooterIdx: NoBlock,
	}
	headerY, footerY := math.Inf(1), math.Inf(-1)

	// Strict comparisons: on ties the first block wins.
	for idx, b := range blocks {
		if b.Y0 < headerY {
			headerY, m.HeaderIdx, m.HeaderHeight = b.Y0, idx, b.Height()
		}
		if b.Y1 > footerY {
			footerY, m.FooterIdx, m.FooterHeight = b.Y1, idx, b.Height()
		}
	}
	return m, true
}
