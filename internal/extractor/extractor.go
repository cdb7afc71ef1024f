package extractor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
)

// ErrNilOpener is returned when Options carries no Opener.
var ErrNilOpener = errors.New("pdf opener is nil")

// ErrNilFilter is returned when Options carries no TextFilter.
var ErrNilFilter = errors.New("text filter is nil")

// ErrInvalidThreshold is returned for a threshold outside (0, 1].
var ErrInvalidThreshold = errors.New("header/footer threshold must be in (0, 1]")

// Options configures an Extractor.
type Options struct {
	// Open opens the PDF collaborator
	Open Opener
	// Filter drops noise fragments and repairs page text
	Filter TextFilter
	// Threshold is the page share needed to declare a header or footer
	Threshold float64
	// Cache, when set, is consulted for non-empty cache keys
	Cache Cache
	// Logger receives debug output; nil discards it
	Logger *slog.Logger
}

// Extractor turns one PDF file into TOC-segmented Documents.
type Extractor struct {
	path     string
	cacheKey string
	opts     Options
}

// New creates an Extractor for the PDF at path. cacheKey may be empty.
func New(path, cacheKey string, opts Options) (*Extractor, error) {
	if opts.Open == nil {
		return nil, ErrNilOpener
	}
	if opts.Filter == nil {
		return nil, ErrNilFilter
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{path: path, cacheKey: cacheKey, opts: opts}, nil
}

// Path returns the PDF path the Extractor reads.
func (e *Extractor) Path() string {
	return e.path
}

// Extract runs the pipeline: strip headers and footers, drop noise, repair
// artifacts and split by table of contents. Errors from the PDF
// collaborator are returned as they are.
func (e *Extractor) Extract() ([]Document, error) {
	useCache := e.opts.Cache != nil && e.cacheKey != ""
	if useCache {
		docs, ok, err := e.opts.Cache.Get(e.cacheKey)
		if err != nil {
			return nil, fmt.Errorf("read cache %q: %w", e.cacheKey, err)
		}
		if ok {
			e.opts.Logger.Debug("extraction cache hit", "path", e.path, "key", e.cacheKey)
			return docs, nil
		}
	}

	docs, err := e.extract()
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := e.opts.Cache.Put(e.cacheKey, docs); err != nil {
			return nil, fmt.Errorf("write cache %q: %w", e.cacheKey, err)
		}
	}
	return docs, nil
}

func (e *Extractor) extract() (docs []Document, err error) {
	src, err := e.opts.Open(e.path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var metrics []PageMetrics
	for _, page := range src.Pages() {
		blocks, err := page.Blocks()
		if err != nil {
			return nil, err
		}
		if m, ok := CollectPageMetrics(blocks); ok {
			metrics = append(metrics, m)
		}
	}

	verdict := DetectHeaderFooter(metrics, e.opts.Threshold)
	e.opts.Logger.Debug("page furniture",
		"path", e.path,
		"pages", len(metrics),
		"header", verdict.Header,
		"footer", verdict.Footer,
	)

	content := AssembleContent(FilterHeaderFooter(metrics, verdict), e.opts.Filter)

	toc, err := src.TOC()
	if err != nil {
		return nil, err
	}
	e.opts.Logger.Debug("segmenting", "path", e.path, "toc_entries", len(toc), "chars", len(content))

	docs = SplitByTOC(content, toc)
	source := filepath.Base(e.path)
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]string{}
		}
		docs[i].Metadata[MetaSource] = source
		docs[i].Metadata[MetaIndex] = strconv.Itoa(i)
	}
	return docs, nil
}
