package reader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/pdfdoc"
	"github.com/akashicode/pdfsect/internal/textfilter"
)

// Options configures PDF loading.
type Options struct {
	Blocks    pdfdoc.BlockConfig
	Filter    textfilter.Config
	Threshold float64
	// Cache, when set, stores extractions keyed by file content hash
	Cache  extractor.Cache
	Logger *slog.Logger
}

// DefaultOptions returns the extraction defaults without a cache.
func DefaultOptions() Options {
	return Options{
		Blocks:    pdfdoc.DefaultBlockConfig(),
		Filter:    textfilter.DefaultConfig(),
		Threshold: extractor.DefaultThreshold,
	}
}

// ContentKey returns a cache key derived from the file's bytes, so an
// edited file never hits a stale entry.
func ContentKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// tocRecorder keeps the TOC the extractor reads so it is not parsed twice.
type tocRecorder struct {
	extractor.Source
	toc []extractor.TOCEntry
	ok  bool
}

func (r *tocRecorder) TOC() ([]extractor.TOCEntry, error) {
	toc, err := r.Source.TOC()
	if err == nil {
		r.toc, r.ok = toc, true
	}
	return toc, err
}

func loadPDF(path string, opts Options) (Source, error) {
	key := ""
	if opts.Cache != nil {
		k, err := ContentKey(path)
		if err != nil {
			return Source{}, err
		}
		key = k
	}

	open := pdfdoc.Opener(opts.Blocks)
	var rec *tocRecorder
	e, err := extractor.New(path, key, extractor.Options{
		Open: func(p string) (extractor.Source, error) {
			src, err := open(p)
			if err != nil {
				return nil, err
			}
			rec = &tocRecorder{Source: src}
			return rec, nil
		},
		Filter:    textfilter.New(opts.Filter),
		Threshold: opts.Threshold,
		Cache:     opts.Cache,
		Logger:    opts.Logger,
	})
	if err != nil {
		return Source{}, fmt.Errorf("configure extractor: %w", err)
	}

	segments, err := e.Extract()
	if err != nil {
		return Source{}, fmt.Errorf("extract PDF text from %q: %w", path, err)
	}

	var toc []extractor.TOCEntry
	if rec != nil && rec.ok {
		toc = rec.toc
	} else if toc, err = readTOC(path, opts.Blocks); err != nil {
		return Source{}, err
	}

	return Source{
		Path:     path,
		Name:     filepath.Base(path),
		Segments: segments,
		TOC:      toc,
	}, nil
}

// readTOC opens path only for its outline, used after a cache hit.
func readTOC(path string, cfg pdfdoc.BlockConfig) ([]extractor.TOCEntry, error) {
	doc, err := pdfdoc.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	toc, err := doc.TOC()
	if err != nil {
		return nil, fmt.Errorf("read outline of %q: %w", path, err)
	}
	return toc, nil
}
