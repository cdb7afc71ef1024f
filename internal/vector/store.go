package vector

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/akashicode/pdfsect/internal/chunker"
)

// CollectionName is the chromem collection that holds chunked segments.
const CollectionName = "segments"

// ErrNilEmbedding is returned when no embedding function is provided.
var ErrNilEmbedding = errors.New("embedding function is nil")

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchResult represents a single vector search result.
type SearchResult struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Source     string            `json:"source"`
	Section    string            `json:"section"`
	Similarity float32           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Store wraps a chromem-go database for vector operations.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore creates a new vector Store backed by an in-memory chromem-go database.
func NewStore(embed chromem.EmbeddingFunc) (*Store, error) {
	if embed == nil {
		return nil, ErrNilEmbedding
	}
	return open(chromem.NewDB(), embed)
}

// NewPersistentStore opens or creates a Store persisted under path.
func NewPersistentStore(path string, embed chromem.EmbeddingFunc) (*Store, error) {
	if embed == nil {
		return nil, ErrNilEmbedding
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db at %q: %w", path, err)
	}
	return open(db, embed)
}

func open(db *chromem.DB, embed chromem.EmbeddingFunc) (*Store, error) {
	collection, err := db.GetOrCreateCollection(CollectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

// AddChunks adds a batch of document chunks to the vector store.
func (s *Store) AddChunks(ctx context.Context, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = chromem.Document{
			ID:      ch.ID,
			Content: ch.Content,
			Metadata: map[string]string{
				"source":  ch.Source,
				"section": ch.Section,
				"index":   strconv.Itoa(ch.Index),
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents to collection: %w", err)
	}
	return nil
}

// Query performs a semantic similarity search against the vector store.
// where, when non-empty, restricts results to exact metadata matches.
func (s *Store) Query(ctx context.Context, query string, topK int, where map[string]string) ([]SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects topK above the collection size.
	if n := s.collection.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return []SearchResult{}, nil
	}
	if len(where) == 0 {
		where = nil
	}

	results, err := s.collection.Query(ctx, query, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Source:     r.Metadata["source"],
			Section:    r.Metadata["section"],
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		}
	}
	return searchResults, nil
}

// DeleteSource removes every chunk of source.
func (s *Store) DeleteSource(ctx context.Context, source string) error {
	if err := s.collection.Delete(ctx, map[string]string{"source": source}, nil); err != nil {
		return fmt.Errorf("delete source %q: %w", source, err)
	}
	return nil
}

// Count returns the number of documents in the store.
func (s *Store) Count() int {
	return s.collection.Count()
}
