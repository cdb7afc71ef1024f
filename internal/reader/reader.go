package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// ErrUnsupportedFormat is returned when a file format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Source represents a loaded document split into segments.
type Source struct {
	// Path is the source file path
	Path string
	// Name is the base filename
	Name string
	// Segments are the TOC sections of a PDF, or the whole text of other files
	Segments []extractor.Document
	// TOC is the PDF outline; empty for text files
	TOC []extractor.TOCEntry
}

// Warner receives non-fatal problems met while loading a directory.
type Warner func(path string, err error)

// Supported reports whether path has an extension LoadFile can read.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".markdown", ".pdf":
		return true
	}
	return false
}

// LoadDirectory reads all supported documents from a directory. PDFs that
// cannot be read are reported to warn and skipped.
func LoadDirectory(dir string, opts Options, warn Warner) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %q: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		src, err := LoadFile(path, opts)
		if err != nil {
			if strings.EqualFold(filepath.Ext(path), ".pdf") {
				if warn != nil {
					warn(path, err)
				}
				continue
			}
			return nil, fmt.Errorf("load text file %q: %w", path, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// LoadFile reads a single document from the given path.
func LoadFile(path string, opts Options) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".md", ".txt", ".markdown":
		return loadTextFile(path)
	case ".pdf":
		return loadPDF(path, opts)
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func loadTextFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("read file %q: %w", path, err)
	}
	name := filepath.Base(path)
	return Source{
		Path: path,
		Name: name,
		Segments: []extractor.Document{{
			PageContent: string(data),
			Metadata: map[string]string{
				extractor.MetaSource:  name,
				extractor.MetaSection: "",
				extractor.MetaIndex:   "0",
			},
		}},
	}, nil
}
