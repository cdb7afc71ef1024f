package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cayleygraph/cayley"
	"github.com/cayleygraph/cayley/graph"
	_ "github.com/cayleygraph/cayley/graph/kv/bolt"
	_ "github.com/cayleygraph/cayley/graph/memstore"
	"github.com/cayleygraph/quad"

	"github.com/akashicode/pdfsect/internal/extractor"
)

// Predicates used to store document outlines.
const (
	PredHasSection    = "has_section"
	PredHasSubsection = "has_subsection"
	PredTitle         = "title"
	PredLevel         = "level"
	PredStartsOnPage  = "starts_on_page"
	PredPosition      = "position"
)

// ErrEmptySource is returned when an outline is stored without a source name.
var ErrEmptySource = errors.New("source name is empty")

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Section is one outline node of a stored document.
type Section struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	Level    int    `json:"level"`
	Page     int    `json:"page"`
	Position int    `json:"position"`
	// Parent is the Position of the enclosing section, -1 at top level
	Parent int `json:"parent"`
}

// SearchResult is a section whose title matched a query.
type SearchResult struct {
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}

// DB wraps a cayley graph database.
type DB struct {
	store *cayley.Handle
}

// Re-adding a quad or removing a missing one is not an error.
var writerOpts = graph.Options{
	"ignore_duplicate": true,
	"ignore_missing":   true,
}

// NewDB creates a new in-memory graph DB.
func NewDB() (*DB, error) {
	store, err := cayley.NewGraph("memstore", "", writerOpts)
	if err != nil {
		return nil, fmt.Errorf("create memory graph: %w", err)
	}
	return &DB{store: store}, nil
}

// NewDBFromPath opens a persistent bolt-backed cayley graph, creating it if needed.
func NewDBFromPath(path string) (*DB, error) {
	if err := graph.InitQuadStore("bolt", path, nil); err != nil {
		if !errors.Is(err, graph.ErrDatabaseExists) && !strings.Contains(err.Error(), "already") {
			return nil, fmt.Errorf("init bolt quad store at %q: %w", path, err)
		}
	}

	store, err := cayley.NewGraph("bolt", path, writerOpts)
	if err != nil {
		return nil, fmt.Errorf("open bolt graph at %q: %w", path, err)
	}
	return &DB{store: store}, nil
}

// AddOutline stores toc as the outline of source, replacing any previous
// outline for it. Nesting follows TOC levels.
func (db *DB) AddOutline(ctx context.Context, source string, toc []extractor.TOCEntry) error {
	if source == "" {
		return ErrEmptySource
	}
	if err := db.DeleteSource(ctx, source); err != nil {
		return err
	}
	if len(toc) == 0 {
		return nil
	}

	type open struct {
		node  string
		level int
	}
	var stack []open
	quads := make([]quad.Quad, 0, len(toc)*5)

	for i, entry := range toc {
		node := nodeID(source, i)
		for len(stack) > 0 && stack[len(stack)-1].level >= entry.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			quads = append(quads, quad.Make(source, PredHasSection, node, nil))
		} else {
			quads = append(quads, quad.Make(stack[len(stack)-1].node, PredHasSubsection, node, nil))
		}
		stack = append(stack, open{node: node, level: entry.Level})

		quads = append(quads,
			quad.Make(node, PredTitle, entry.Title, nil),
			quad.Make(node, PredLevel, strconv.Itoa(entry.Level), nil),
			quad.Make(node, PredStartsOnPage, strconv.Itoa(entry.Page), nil),
			quad.Make(node, PredPosition, strconv.Itoa(i), nil),
		)
	}

	if err := db.store.AddQuadSet(quads); err != nil {
		return fmt.Errorf("add quads: %w", err)
	}
	return nil
}

// DeleteSource removes the outline of source.
func (db *DB) DeleteSource(ctx context.Context, source string) error {
	var stale []quad.Quad
	err := db.each(ctx, func(q quad.Quad, subj, _, _ string) bool {
		if subj == source || strings.HasPrefix(subj, nodePrefix(source)) {
			stale = append(stale, q)
		}
		return true
	})
	if err != nil || len(stale) == 0 {
		return err
	}

	tx := cayley.NewTransaction()
	for _, q := range stale {
		tx.RemoveQuad(q)
	}
	if err := db.store.ApplyTransaction(tx); err != nil {
		return fmt.Errorf("remove outline of %q: %w", source, err)
	}
	return nil
}

// Sections returns the outline of source in TOC order.
func (db *DB) Sections(ctx context.Context, source string) ([]Section, error) {
	prefix := nodePrefix(source)
	nodes := map[string]*Section{}
	parents := map[string]string{}

	get := func(node string) *Section {
		s, ok := nodes[node]
		if !ok {
			s = &Section{Source: source, Parent: -1}
			nodes[node] = s
		}
		return s
	}

	err := db.each(ctx, func(_ quad.Quad, subj, pred, obj string) bool {
		if pred == PredHasSubsection && strings.HasPrefix(obj, prefix) {
			parents[obj] = subj
			return true
		}
		if !strings.HasPrefix(subj, prefix) {
			return true
		}
		s := get(subj)
		switch pred {
		case PredTitle:
			s.Title = obj
		case PredLevel:
			s.Level, _ = strconv.Atoi(obj)
		case PredStartsOnPage:
			s.Page, _ = strconv.Atoi(obj)
		case PredPosition:
			s.Position, _ = strconv.Atoi(obj)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(nodes))
	for node, s := range nodes {
		if p, ok := parents[node]; ok {
			if ps, ok := nodes[p]; ok {
				s.Parent = ps.Position
			}
		}
		sections = append(sections, *s)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Position < sections[j].Position })
	return sections, nil
}

// Sources lists every document that has a stored outline.
func (db *DB) Sources(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := db.each(ctx, func(_ quad.Quad, subj, pred, _ string) bool {
		if pred == PredHasSection {
			seen[subj] = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources, nil
}

// Search finds sections whose titles share terms with the query.
func (db *DB) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = 10
	}

	queryTerms := strings.Fields(strings.ToLower(query))
	titles := map[string]string{}
	pages := map[string]int{}

	err := db.each(ctx, func(_ quad.Quad, subj, pred, obj string) bool {
		switch pred {
		case PredTitle:
			titles[subj] = obj
		case PredStartsOnPage:
			pages[subj], _ = strconv.Atoi(obj)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	results := []SearchResult{}
	for node, title := range titles {
		score := scoreMatch(queryTerms, title)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			Source: sourceOf(node),
			Title:  title,
			Page:   pages[node],
			Score:  score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Source != results[j].Source {
			return results[i].Source < results[j].Source
		}
		return results[i].Page < results[j].Page
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// FormatOutline renders sections as an indented list.
func FormatOutline(sections []Section) string {
	if len(sections) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, s := range sections {
		depth := s.Level - 1
		if depth < 0 {
			depth = 0
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		sb.WriteString(s.Title)
		if s.Page > 0 {
			fmt.Fprintf(&sb, " (p. %d)", s.Page)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Count returns the number of quads in the graph.
func (db *DB) Count() int64 {
	stats, err := db.store.Stats(context.Background(), false)
	if err != nil {
		return 0
	}
	return stats.Quads.Size
}

// Close shuts down the graph store.
func (db *DB) Close() error {
	return db.store.Close()
}

// each visits every quad until fn returns false.
func (db *DB) each(ctx context.Context, fn func(q quad.Quad, subj, pred, obj string) bool) error {
	it := db.store.QuadsAllIterator()
	defer it.Close()

	for it.Next(ctx) {
		q := db.store.Quad(it.Result())
		if !fn(q, quadValueStr(q.Subject), quadValueStr(q.Predicate), quadValueStr(q.Object)) {
			break
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("iterate quads: %w", err)
	}
	return nil
}

func nodePrefix(source string) string {
	return source + "#"
}

func nodeID(source string, i int) string {
	return nodePrefix(source) + strconv.Itoa(i)
}

func sourceOf(node string) string {
	if i := strings.LastIndex(node, "#"); i >= 0 {
		return node[:i]
	}
	return node
}

func quadValueStr(v quad.Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case quad.String:
		return string(v)
	case quad.IRI:
		return string(v)
	}
	s := quad.StringOf(v)
	s = strings.TrimPrefix(s, "\"")
	return strings.TrimSuffix(s, "\"")
}

func scoreMatch(terms []string, values ...string) float64 {
	combined := strings.ToLower(strings.Join(values, " "))
	score := 0.0
	for _, term := range terms {
		if len(term) < 3 {
			continue
		}
		if strings.Contains(combined, term) {
			score += 1.0
		}
	}
	return score
}
