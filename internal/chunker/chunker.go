package chunker

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// ErrInvalidChunkSize is returned when an invalid chunk size is specified.
var ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")

// ErrInvalidUTF8 is returned when text to be split is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

// Chunk represents a single chunk of text from a document.
type Chunk struct {
	// ID is a unique identifier for the chunk (e.g., "report_pdf_0")
	ID string
	// Content is the chunk text
	Content string
	// Source is the originating file name
	Source string
	// Section is the TOC title of the segment the chunk came from, if any
	Section string
	// Index is the position of this chunk within the source
	Index int
}

// Options configures the chunking behavior.
type Options struct {
	// ChunkSize is the maximum number of characters per chunk
	ChunkSize int
	// Overlap is the number of characters to overlap between chunks
	Overlap int
	// Paragraphs makes ChunkSegments pack whole paragraphs instead of
	// cutting fixed windows
	Paragraphs bool
}

// DefaultOptions returns sensible defaults for chunking.
func DefaultOptions() Options {
	return Options{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// Chunker splits documents into overlapping text chunks.
type Chunker struct {
	opts Options
}

// NewChunker creates a new Chunker with the given options.
func NewChunker(opts Options) (*Chunker, error) {
	if opts.ChunkSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	if opts.Overlap >= opts.ChunkSize {
		opts.Overlap = opts.ChunkSize / 4
	}
	return &Chunker{opts: opts}, nil
}

// ChunkText splits a text string into overlapping chunks.
func (c *Chunker) ChunkText(text, source string) ([]Chunk, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	chunks := []Chunk{}
	for _, content := range c.window(text) {
		chunks = append(chunks, newChunk(source, "", len(chunks), content))
	}
	return chunks, nil
}

// ChunkSegments chunks each extracted segment on its own so no chunk spans
// two sections. Indexes and IDs run across the whole source.
func (c *Chunker) ChunkSegments(segs []extractor.Document, source string) ([]Chunk, error) {
	chunks := []Chunk{}
	for _, seg := range segs {
		if !utf8.ValidString(seg.PageContent) {
			return nil, ErrInvalidUTF8
		}
		section := seg.Metadata[extractor.MetaSection]
		pieces := c.window(seg.PageContent)
		if c.opts.Paragraphs {
			pieces = c.paragraphs(seg.PageContent)
		}
		for _, content := range pieces {
			chunks = append(chunks, newChunk(source, section, len(chunks), content))
		}
	}
	return chunks, nil
}

// window cuts text into ChunkSize-rune windows advancing by
// ChunkSize-Overlap. Blank windows are dropped.
func (c *Chunker) window(text string) []string {
	if text == "" {
		return nil
	}

	// Normalize line endings
	text = strings.ReplaceAll(text, "\r\n", "\n")

	runes := []rune(text)
	total := len(runes)
	step := c.opts.ChunkSize - c.opts.Overlap
	if step <= 0 {
		step = c.opts.ChunkSize
	}

	var out []string
	for start := 0; start < total; start += step {
		end := start + c.opts.ChunkSize
		if end > total {
			end = total
		}

		if content := strings.TrimSpace(string(runes[start:end])); content != "" {
			out = append(out, content)
		}
		if end == total {
			break
		}
	}
	return out
}

// SplitBySentence splits text into paragraph-aware chunks, attempting to
// break at blank lines when possible.
func (c *Chunker) SplitBySentence(text, source string) ([]Chunk, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	chunks := []Chunk{}
	for _, content := range c.paragraphs(text) {
		chunks = append(chunks, newChunk(source, "", len(chunks), content))
	}
	return chunks, nil
}

// paragraphs packs blank-line separated paragraphs into pieces of at most
// ChunkSize bytes. A single paragraph longer than that stays whole.
func (c *Chunker) paragraphs(text string) []string {
	var (
		out     []string
		builder strings.Builder
	)
	flush := func() {
		if content := strings.TrimSpace(builder.String()); content != "" {
			out = append(out, content)
		}
		builder.Reset()
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if builder.Len()+len(para) > c.opts.ChunkSize {
			flush()
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(para)
	}
	flush()
	return out
}

func newChunk(source, section string, idx int, content string) Chunk {
	return Chunk{
		ID:      buildChunkID(source, idx),
		Content: content,
		Source:  source,
		Section: section,
		Index:   idx,
	}
}

var idReplacer = strings.NewReplacer("/", "_", "\\", "_", ".", "_", " ", "_")

func buildChunkID(source string, idx int) string {
	if source == "" {
		return "chunk_" + strconv.Itoa(idx)
	}
	return idReplacer.Replace(source) + "_" + strconv.Itoa(idx)
}
