package pdfdoc

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// TOC returns the document outline flattened depth first. Bookmarks are
// read with pdfcpu, which resolves target pages; when that fails the
// ledongthuc outline is used and pages are reported as 0.
func (d *Document) TOC() ([]extractor.TOCEntry, error) {
	if toc, err := d.bookmarks(); err == nil && len(toc) > 0 {
		return toc, nil
	}
	return d.outline()
}

func (d *Document) bookmarks() ([]extractor.TOCEntry, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", d.path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	return flattenBookmarks(bms, 1, nil), nil
}

func flattenBookmarks(bms []pdfcpu.Bookmark, level int, out []extractor.TOCEntry) []extractor.TOCEntry {
	for _, bm := range bms {
		out = append(out, extractor.TOCEntry{Level: level, Title: bm.Title, Page: bm.PageFrom})
		out = flattenBookmarks(bm.Kids, level+1, out)
	}
	return out
}

func (d *Document) outline() (toc []extractor.TOCEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			toc, err = nil, fmt.Errorf("read outline of %q: %v", d.path, r)
		}
	}()
	return flattenOutline(d.reader.Outline().Child, 1, nil), nil
}

func flattenOutline(items []pdf.Outline, level int, out []extractor.TOCEntry) []extractor.TOCEntry {
	for _, item := range items {
		out = append(out, extractor.TOCEntry{Level: level, Title: item.Title})
		out = flattenOutline(item.Child, level+1, out)
	}
	return out
}
