package extractor

import "strings"

// AssembleContent joins the meaningful block text of every page into one
// stream. Each page is repaired once before it is appended.
func AssembleContent(pages [][]TextBlock, filter TextFilter) string {
	var content strings.Builder
	for _, blocks := range pages {
		content.WriteString(assemblePage(blocks, filter))
	}
	return content.String()
}

func assemblePage(blocks []TextBlock, filter TextFilter) string {
	var page strings.Builder
	for _, b := range blocks {
		if filter.IsMeaningful(b.Text) {
			page.WriteString(b.Text)
		}
	}
	return filter.Repair(page.String())
}
