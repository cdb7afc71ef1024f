package extractor

// TextBlock is one rectangular text region on a page. Coordinates are
// top-down: a smaller Y0 sits higher on the page.
type TextBlock struct {
	X0, Y0, X1, Y1 float64
	// Text is the raw block content as produced by the PDF parser
	Text string
	// BlockNo is the block's position in the page's block sequence
	BlockNo int
}

// Height returns the vertical extent of the block.
func (b TextBlock) Height() float64 {
	return b.Y1 - b.Y0
}

// TOCEntry is one table-of-contents item.
type TOCEntry struct {
	Level int
	Title string
	// Page is the 1-based target page, 0 when unknown
	Page int
}

// Document is one extracted segment of a PDF.
type Document struct {
	// PageContent is the segment text
	PageContent string `json:"page_content" yaml:"page_content"`
	// Metadata holds source, section and index of the segment
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Metadata keys set on every Document produced by an Extractor.
const (
	MetaSource  = "source"
	MetaSection = "section"
	MetaIndex   = "index"
)

// Page is a single page handle, queried once for its blocks.
type Page interface {
	Blocks() ([]TextBlock, error)
}

// Source is an opened PDF document.
type Source interface {
	// Pages returns the pages in document order.
	Pages() []Page
	// TOC returns the flattened table of contents, possibly empty.
	TOC() ([]TOCEntry, error)
	Close() error
}

// Opener opens the PDF at path.
type Opener func(path string) (Source, error)

// TextFilter classifies and repairs extracted text.
type TextFilter interface {
	// IsMeaningful reports whether a fragment should be kept.
	IsMeaningful(text string) bool
	// Repair fixes extraction artifacts. It must be idempotent.
	Repair(text string) string
}

// Cache stores extraction results by cache key.
type Cache interface {
	Get(key string) ([]Document, bool, error)
	Put(key string, docs []Document) error
}
