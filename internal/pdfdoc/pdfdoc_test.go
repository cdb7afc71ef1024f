package pdfdoc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/pdfdoc/pdftest"
	"github.com/akashicode/pdfsect/internal/textfilter"
)

// glyphs splits s into per-character runs the way ledongthuc reports them.
func glyphs(s string, x, y, size float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	w := size * 0.5
	for i, ch := range s {
		out = append(out, pdf.Text{FontSize: size, X: x + float64(i)*w, Y: y, W: w, S: string(ch)})
	}
	return out
}

func concat(runs ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

func TestGroupBlocks(t *testing.T) {
	texts := concat(
		glyphs("Running head", 72, 760, 10),
		glyphs("First line", 72, 700, 12),
		glyphs("second line", 72, 686, 12),
		glyphs("New paragraph", 72, 620, 12),
		glyphs("7", 300, 40, 8),
	)

	blocks := groupBlocks(texts, 792, DefaultBlockConfig())
	require.Len(t, blocks, 4)

	assert.Equal(t, "Running head\n", blocks[0].Text)
	assert.Equal(t, "First line\nsecond line\n", blocks[1].Text)
	assert.Equal(t, "New paragraph\n", blocks[2].Text)
	assert.Equal(t, "7\n", blocks[3].Text)

	assert.InDelta(t, 22, blocks[0].Y0, 1e-9)
	assert.InDelta(t, 32, blocks[0].Y1, 1e-9)
	assert.InDelta(t, 8, blocks[3].Height(), 1e-9)
	for i, b := range blocks {
		assert.Equal(t, i, b.BlockNo)
		assert.Less(t, b.X0, b.X1)
	}
}

func TestGroupBlocks_InfersSpaces(t *testing.T) {
	texts := concat(glyphs("left", 72, 700, 10), glyphs("right", 110, 700, 10))

	blocks := groupBlocks(texts, 792, DefaultBlockConfig())
	require.Len(t, blocks, 1)
	assert.Equal(t, "left right\n", blocks[0].Text)
}

func TestGroupBlocks_ColumnJumpStartsNewBlock(t *testing.T) {
	texts := concat(
		glyphs("left column", 72, 700, 10),
		glyphs("more left", 72, 688, 10),
		glyphs("right column", 320, 700, 10),
	)

	blocks := groupBlocks(texts, 792, DefaultBlockConfig())
	require.Len(t, blocks, 2)
	assert.Equal(t, "left column\nmore left\n", blocks[0].Text)
	assert.Equal(t, "right column\n", blocks[1].Text)
}

func TestGroupBlocks_Empty(t *testing.T) {
	assert.Empty(t, groupBlocks(nil, 792, DefaultBlockConfig()))
	assert.Empty(t, groupBlocks(glyphs("   ", 72, 700, 10), 792, DefaultBlockConfig()))
}

func furnishedPages(n int) []pdftest.Page {
	pages := make([]pdftest.Page, n)
	for i := range pages {
		pages[i] = pdftest.Page{Texts: []pdftest.Text{
			{X: 72, Y: 760, Size: 10, S: "Header"},
			{X: 72, Y: 700, Size: 12, S: fmt.Sprintf("Body of page %d.", i+1)},
			{X: 300, Y: 40, Size: 8, S: fmt.Sprintf("Page %d", i+1)},
		}}
	}
	return pages
}

func writePDF(t *testing.T, pages []pdftest.Page, outline []pdftest.OutlineItem) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, pdftest.WriteFile(path, pages, outline))
	return path
}

func TestOpen_ReadsBlocks(t *testing.T) {
	path := writePDF(t, furnishedPages(3), nil)

	doc, err := Open(path, DefaultBlockConfig())
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 3, doc.NumPages())
	pages := doc.Pages()
	require.Len(t, pages, 3)

	blocks, err := pages[1].Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "Header\n", blocks[0].Text)
	assert.Equal(t, "Body of page 2.\n", blocks[1].Text)
	assert.Equal(t, "Page 2\n", blocks[2].Text)
	assert.Less(t, blocks[0].Y0, blocks[1].Y0, "header must sit above the body")
	assert.InDelta(t, 10, blocks[0].Height(), 1e-6)
	assert.InDelta(t, 8, blocks[2].Height(), 1e-6)

	toc, err := doc.TOC()
	require.NoError(t, err)
	assert.Empty(t, toc)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"), DefaultBlockConfig())
	require.Error(t, err)
}

func TestOpen_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not a pdf"), 0o644))
	file := captureFile(t, pdf.NewReader)

	_, err := Open(path, DefaultBlockConfig())
	require.Error(t, err)
	assertClosed(t, *file)
}

func TestOpen_ParserPanicClosesFile(t *testing.T) {
	path := writePDF(t, furnishedPages(2), nil)
	file := captureFile(t, func(io.ReaderAt, int64) (*pdf.Reader, error) {
		panic("malformed xref")
	})

	doc, err := Open(path, DefaultBlockConfig())
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Contains(t, err.Error(), "malformed xref")
	assertClosed(t, *file)
}

// captureFile swaps newReader for parse, recording the file Open hands it.
func captureFile(t *testing.T, parse func(io.ReaderAt, int64) (*pdf.Reader, error)) **os.File {
	t.Helper()
	var file *os.File
	prev := newReader
	newReader = func(ra io.ReaderAt, size int64) (*pdf.Reader, error) {
		file = ra.(*os.File)
		return parse(ra, size)
	}
	t.Cleanup(func() { newReader = prev })
	return &file
}

func assertClosed(t *testing.T, f *os.File) {
	t.Helper()
	require.NotNil(t, f)
	_, err := f.Stat()
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestDocument_TOC(t *testing.T) {
	path := writePDF(t, furnishedPages(4), []pdftest.OutlineItem{
		{Title: "Introduction", Page: 1},
		{Title: "Design", Page: 2, Kids: []pdftest.OutlineItem{
			{Title: "Storage", Page: 3},
		}},
		{Title: "Conclusion", Page: 4},
	})

	doc, err := Open(path, DefaultBlockConfig())
	require.NoError(t, err)
	defer doc.Close()

	toc, err := doc.TOC()
	require.NoError(t, err)
	require.Len(t, toc, 4)

	titles := make([]string, len(toc))
	levels := make([]int, len(toc))
	for i, e := range toc {
		titles[i] = e.Title
		levels[i] = e.Level
	}
	assert.Equal(t, []string{"Introduction", "Design", "Storage", "Conclusion"}, titles)
	assert.Equal(t, []int{1, 1, 2, 1}, levels)
}

func TestExtractor_EndToEnd(t *testing.T) {
	pages := []pdftest.Page{
		{Texts: []pdftest.Text{
			{X: 72, Y: 760, Size: 10, S: "Header"},
			{X: 72, Y: 700, Size: 14, S: "Annual Report"},
			{X: 300, Y: 40, Size: 8, S: "Page 1"},
		}},
		{Texts: []pdftest.Text{
			{X: 72, Y: 760, Size: 10, S: "Header"},
			{X: 72, Y: 700, Size: 12, S: "Introduction"},
			{X: 72, Y: 640, Size: 11, S: "We measured things."},
			{X: 300, Y: 40, Size: 8, S: "Page 2"},
		}},
		{Texts: []pdftest.Text{
			{X: 72, Y: 760, Size: 10, S: "Header"},
			{X: 72, Y: 700, Size: 12, S: "Conclusion"},
			{X: 72, Y: 640, Size: 11, S: "Things were measured."},
			{X: 300, Y: 40, Size: 8, S: "Page 3"},
		}},
	}
	path := writePDF(t, pages, []pdftest.OutlineItem{
		{Title: "Introduction", Page: 2},
		{Title: "Conclusion", Page: 3},
	})

	e, err := extractor.New(path, "", extractor.Options{
		Open:   Opener(DefaultBlockConfig()),
		Filter: textfilter.New(textfilter.DefaultConfig()),
	})
	require.NoError(t, err)

	docs, err := e.Extract()
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Annual Report\n", docs[0].PageContent)
	assert.Equal(t, "Introduction\nWe measured things.\n", docs[1].PageContent)
	assert.Equal(t, "Conclusion\nThings were measured.\n", docs[2].PageContent)
	for _, d := range docs {
		assert.NotContains(t, d.PageContent, "Header")
		assert.NotContains(t, d.PageContent, "Page ")
		assert.Equal(t, "sample.pdf", d.Metadata[extractor.MetaSource])
	}
}
