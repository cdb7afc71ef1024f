// Package cache stores extraction results on disk, one YAML file per key.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// ErrEmptyKey is returned when a blank cache key is used.
var ErrEmptyKey = errors.New("cache key is empty")

// ErrNilFs is returned when New is called without a filesystem.
var ErrNilFs = errors.New("cache filesystem is nil")

// entry is the on-disk layout of one cached extraction.
type entry struct {
	Key       string               `yaml:"key"`
	Documents []extractor.Document `yaml:"documents"`
}

// Cache is a directory of cached extractions.
type Cache struct {
	fs  afero.Fs
	dir string
}

// New returns a Cache rooted at dir on fs. The directory is created lazily.
func New(fs afero.Fs, dir string) (*Cache, error) {
	if fs == nil {
		return nil, ErrNilFs
	}
	return &Cache{fs: fs, dir: dir}, nil
}

// NewOS returns a Cache on the host filesystem.
func NewOS(dir string) *Cache {
	return &Cache{fs: afero.NewOsFs(), dir: dir}
}

// Get loads the documents stored under key. ok is false on a miss.
func (c *Cache) Get(key string) ([]extractor.Document, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	data, err := afero.ReadFile(c.fs, c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var e entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("parse cache entry: %w", err)
	}
	// Hash collisions are not expected; a mismatch means a foreign file.
	if e.Key != key {
		return nil, false, nil
	}
	return e.Documents, true, nil
}

// Put stores docs under key, replacing any previous entry.
func (c *Cache) Put(key string, docs []extractor.Document) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %q: %w", c.dir, err)
	}

	data, err := yaml.Marshal(entry{Key: key, Documents: docs})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Each writer gets its own temp file; rename makes the entry visible
	// in one step.
	tmp, err := afero.TempFile(c.fs, c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = c.fs.Remove(name)
		return fmt.Errorf("write cache entry: %w", werr)
	}
	if err := c.fs.Rename(name, c.path(key)); err != nil {
		_ = c.fs.Remove(name)
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// Delete removes the entry for key. Missing entries are not an error.
func (c *Cache) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := c.fs.Remove(c.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".yaml")
}
