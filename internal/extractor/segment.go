package extractor

import "strings"

// SplitByTOC segments content at the first literal occurrence of each TOC
// title, in TOC order. Every segment after the first starts with the title
// that introduced it. Without a TOC the whole content is one Document.
//
// Titles are matched as plain substrings, so a short title that also
// appears in running text splits at that earlier occurrence.
func SplitByTOC(content string, toc []TOCEntry) []Document {
	if len(toc) == 0 {
		return []Document{{PageContent: content}}
	}

	docs := make([]Document, 0, len(toc)+1)
	carry, section := "", ""
	for _, entry := range toc {
		prefix, rest := splitFirst(content, entry.Title)
		docs = append(docs, newSegment(carry+prefix, section))
		carry, section, content = entry.Title, entry.Title, rest
	}
	return append(docs, newSegment(carry+content, section))
}

// splitFirst returns the text before and after the first occurrence of
// title. A missing or empty title yields an empty prefix and the whole
// content as remainder.
func splitFirst(content, title string) (string, string) {
	if title == "" {
		return "", content
	}
	before, after, found := strings.Cut(content, title)
	if !found {
		return "", content
	}
	return before, after
}

func newSegment(content, section string) Document {
	return Document{
		PageContent: content,
		Metadata:    map[string]string{MetaSection: section},
	}
}
