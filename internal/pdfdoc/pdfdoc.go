// Package pdfdoc adapts github.com/ledongthuc/pdf and pdfcpu to the
// extractor's Source and Page interfaces.
package pdfdoc

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// Document is an opened PDF file.
type Document struct {
	path   string
	file   *os.File
	reader *pdf.Reader
	cfg    BlockConfig
}

// newReader parses the PDF structure. Tests replace it.
var newReader = pdf.NewReader

// Open opens the PDF at path. The caller must Close the Document.
// The file is closed again when parsing fails or panics.
func Open(path string, cfg BlockConfig) (doc *Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", path, err)
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open pdf %q: %v", path, r)
		}
		if err != nil {
			f.Close()
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf %q: %w", path, err)
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open pdf %q: %w", path, err)
	}
	return &Document{path: path, file: f, reader: r, cfg: cfg}, nil
}

// Opener returns an extractor.Opener backed by Open.
func Opener(cfg BlockConfig) extractor.Opener {
	return func(path string) (extractor.Source, error) {
		doc, err := Open(path, cfg)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// Pages returns every page in document order.
func (d *Document) Pages() []extractor.Page {
	n := d.reader.NumPage()
	pages := make([]extractor.Page, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, &page{num: i, p: d.reader.Page(i), cfg: d.cfg})
	}
	return pages
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.file.Close()
}

type page struct {
	num int
	p   pdf.Page
	cfg BlockConfig
}

// Blocks groups the page's glyph runs into text blocks. A malformed content
// stream makes the parser panic; that is reported as an error.
func (pg *page) Blocks() (blocks []extractor.TextBlock, err error) {
	if pg.p.V.IsNull() {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			blocks, err = nil, fmt.Errorf("read page %d: %v", pg.num, r)
		}
	}()

	content := pg.p.Content()
	return groupBlocks(content.Text, pageTop(pg.p.V), pg.cfg), nil
}

// pageTop returns the upper edge of the page's MediaBox, following /Parent
// for inherited boxes. Zero when no box is found.
func pageTop(v pdf.Value) float64 {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(3).Float64()
		}
		v = v.Key("Parent")
	}
	return 0
}
