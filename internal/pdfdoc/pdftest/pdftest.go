// Package pdftest writes small, valid PDF files for tests: Helvetica text
// at fixed positions on US-letter pages, plus an optional outline.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// PageHeight is the MediaBox height of every generated page.
const PageHeight = 792

// Text is one line of text drawn with its baseline at (X, Y), PDF
// coordinates (origin bottom left).
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Page lists the text drawn on one page.
type Page struct {
	Texts []Text
}

// OutlineItem is one bookmark pointing at a 1-based page.
type OutlineItem struct {
	Title string
	Page  int
	Kids  []OutlineItem
}

// WriteFile builds a PDF and writes it to path.
func WriteFile(path string, pages []Page, outline []OutlineItem) error {
	return os.WriteFile(path, Build(pages, outline), 0o644)
}

type builder struct {
	objs [][]byte
}

// reserve allocates an object number to be filled later.
func (b *builder) reserve() int {
	b.objs = append(b.objs, nil)
	return len(b.objs)
}

func (b *builder) set(num int, format string, args ...interface{}) {
	b.objs[num-1] = []byte(fmt.Sprintf(format, args...))
}

// Build renders pages and outline into PDF bytes.
func Build(pages []Page, outline []OutlineItem) []byte {
	b := &builder{}
	catalog := b.reserve()
	pagesObj := b.reserve()
	font := b.reserve()

	widths := make([]string, 95)
	for i := range widths {
		widths[i] = "500"
	}
	b.set(font, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding "+
		"/FirstChar 32 /LastChar 126 /Widths [%s] >>", strings.Join(widths, " "))

	pageRefs := make([]int, len(pages))
	for i, p := range pages {
		pageObj := b.reserve()
		content := b.reserve()
		pageRefs[i] = pageObj

		var stream strings.Builder
		for _, t := range p.Texts {
			fmt.Fprintf(&stream, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
				num(t.Size), num(t.X), num(t.Y), escape(t.S))
		}
		b.set(content, "<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String())
		b.set(pageObj, "<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, font, content)
	}

	kids := make([]string, len(pageRefs))
	for i, ref := range pageRefs {
		kids[i] = fmt.Sprintf("%d 0 R", ref)
	}
	// MediaBox lives on the page tree root so pages inherit it.
	b.set(pagesObj, "<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 %d] >>",
		strings.Join(kids, " "), len(pages), PageHeight)

	if len(outline) > 0 {
		root := b.reserve()
		first, last, count := b.outlineLevel(outline, root, pageRefs)
		b.set(root, "<< /Type /Outlines /First %d 0 R /Last %d 0 R /Count %d >>", first, last, count)
		b.set(catalog, "<< /Type /Catalog /Pages %d 0 R /Outlines %d 0 R /PageMode /UseOutlines >>", pagesObj, root)
	} else {
		b.set(catalog, "<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	}

	return b.render(catalog)
}

// outlineLevel writes one sibling list and returns its first and last
// object numbers and the number of visible descendants.
func (b *builder) outlineLevel(items []OutlineItem, parent int, pageRefs []int) (int, int, int) {
	nums := make([]int, len(items))
	for i := range items {
		nums[i] = b.reserve()
	}

	count := 0
	for i, item := range items {
		var dict strings.Builder
		fmt.Fprintf(&dict, "<< /Title (%s) /Parent %d 0 R", escape(item.Title), parent)
		if i > 0 {
			fmt.Fprintf(&dict, " /Prev %d 0 R", nums[i-1])
		}
		if i < len(items)-1 {
			fmt.Fprintf(&dict, " /Next %d 0 R", nums[i+1])
		}
		if item.Page >= 1 && item.Page <= len(pageRefs) {
			fmt.Fprintf(&dict, " /Dest [%d 0 R /XYZ 0 %d 0]", pageRefs[item.Page-1], PageHeight)
		}
		count++
		if len(item.Kids) > 0 {
			first, last, n := b.outlineLevel(item.Kids, nums[i], pageRefs)
			fmt.Fprintf(&dict, " /First %d 0 R /Last %d 0 R /Count %d", first, last, n)
			count += n
		}
		dict.WriteString(" >>")
		b.objs[nums[i]-1] = []byte(dict.String())
	}
	return nums[0], nums[len(nums)-1], count
}

func (b *builder) render(catalog int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(b.objs))
	for i, obj := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.objs)+1, catalog, xref)
	return buf.Bytes()
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
