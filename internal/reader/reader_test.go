package reader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/pdfsect/internal/cache"
	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/pdfdoc/pdftest"
)

func furnished(bodies ...string) []pdftest.Page {
	pages := make([]pdftest.Page, len(bodies))
	for i, body := range bodies {
		pages[i] = pdftest.Page{Texts: []pdftest.Text{
			{X: 72, Y: 760, Size: 10, S: "ACME Quarterly"},
			{X: 72, Y: 700, Size: 12, S: body},
			{X: 300, Y: 40, Size: 8, S: "confidential"},
		}}
	}
	return pages
}

func writeReport(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, pdftest.WriteFile(path,
		furnished("Summary of the quarter.", "Revenue grew.", "Outlook is stable."),
		[]pdftest.OutlineItem{
			{Title: "Revenue", Page: 2},
			{Title: "Outlook", Page: 3},
		}))
	return path
}

func TestLoadFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\nhello"), 0o644))

	src, err := LoadFile(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "notes.md", src.Name)
	require.Len(t, src.Segments, 1)
	assert.Equal(t, "# Notes\nhello", src.Segments[0].PageContent)
	assert.Equal(t, "notes.md", src.Segments[0].Metadata[extractor.MetaSource])
	assert.Empty(t, src.TOC)
}

func TestLoadFile_Unsupported(t *testing.T) {
	_, err := LoadFile("image.png", DefaultOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_PDF(t *testing.T) {
	path := writeReport(t, t.TempDir())

	src, err := LoadFile(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", src.Name)
	require.Len(t, src.Segments, 3)
	assert.Equal(t, "Summary of the quarter.\n", src.Segments[0].PageContent)
	assert.Equal(t, "Revenue grew.\n", src.Segments[1].PageContent)
	assert.Equal(t, "Revenue", src.Segments[1].Metadata[extractor.MetaSection])
	assert.Equal(t, "Outlook is stable.\n", src.Segments[2].PageContent)

	require.Len(t, src.TOC, 2)
	assert.Equal(t, "Revenue", src.TOC[0].Title)
	assert.Equal(t, "Outlook", src.TOC[1].Title)
}

func TestLoadFile_PDFCached(t *testing.T) {
	path := writeReport(t, t.TempDir())
	c, err := cache.New(afero.NewMemMapFs(), "cache")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Cache = c

	first, err := LoadFile(path, opts)
	require.NoError(t, err)

	key, err := ContentKey(path)
	require.NoError(t, err)
	cached, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Segments, cached)

	second, err := LoadFile(path, opts)
	require.NoError(t, err)
	assert.Equal(t, first.Segments, second.Segments)
	assert.Equal(t, first.TOC, second.TOC, "outline is read even on a cache hit")
}

func TestContentKey(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0o644))

	ka, err := ContentKey(a)
	require.NoError(t, err)
	kb, err := ContentKey(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	require.NoError(t, os.WriteFile(b, []byte("different"), 0o644))
	kb, err = ContentKey(b)
	require.NoError(t, err)
	assert.NotEqual(t, ka, kb)

	_, err = ContentKey(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("plain"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89}, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	var warned []string
	sources, err := LoadDirectory(dir, DefaultOptions(), func(path string, err error) {
		assert.Error(t, err)
		warned = append(warned, filepath.Base(path))
	})
	require.NoError(t, err)

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"readme.txt", "report.pdf"}, names)
	assert.Equal(t, []string{"broken.pdf"}, warned)
}

func TestLoadDirectory_Missing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"), DefaultOptions(), nil)
	assert.Error(t, err)
}
