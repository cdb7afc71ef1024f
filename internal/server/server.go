package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/graph"
	"github.com/akashicode/pdfsect/internal/pdfdoc"
	"github.com/akashicode/pdfsect/internal/reader"
	"github.com/akashicode/pdfsect/internal/textfilter"
	"github.com/akashicode/pdfsect/internal/vector"
)

// ErrNilGraph is returned when the server is created without an outline graph.
var ErrNilGraph = errors.New("graph db is required")

// RequestLogger records one served request.
type RequestLogger func(method, path string, status int, duration time.Duration, remote string)

// Config holds the runtime server dependencies.
type Config struct {
	// Vector is optional; without it search returns section hits only
	Vector *vector.Store
	Graph  *graph.DB
	// Reader configures extraction of uploaded PDFs
	Reader reader.Options
	// MaxUploadBytes caps request bodies on /v1/extract
	MaxUploadBytes int64
	CORSOrigins    []string
	Log            RequestLogger
}

// Server is the pdfsect HTTP server.
type Server struct {
	cfg Config
	mux *http.ServeMux
}

// New creates and initializes a new Server.
func New(cfg Config) (*Server, error) {
	if cfg.Graph == nil {
		return nil, ErrNilGraph
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{cfg: cfg, mux: http.NewServeMux()}
	s.registerRoutes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = corsMiddleware(s.cfg.CORSOrigins, s.mux)
	if s.cfg.Log != nil {
		h = logMiddleware(s.cfg.Log, h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/v1/extract", s.handleExtract)
	s.mux.HandleFunc("/v1/search", s.handleSearch)
	s.mux.HandleFunc("/v1/outline", s.handleOutline)

	// Model Context Protocol JSON-RPC
	s.mux.HandleFunc("/mcp", s.handleMCP)
}

// ExtractResponse is the body returned by /v1/extract.
type ExtractResponse struct {
	Source    string               `json:"source"`
	Documents []extractor.Document `json:"documents"`
}

// SearchResponse is the body returned by /v1/search.
type SearchResponse struct {
	Query    string                `json:"query"`
	Chunks   []vector.SearchResult `json:"chunks"`
	Sections []graph.SearchResult  `json:"sections"`
}

// OutlineResponse is the body returned by /v1/outline.
type OutlineResponse struct {
	Source   string          `json:"source,omitempty"`
	Sections []graph.Section `json:"sections,omitempty"`
	Sources  []string        `json:"sources,omitempty"`
}

// handleHealth returns a simple health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vectors := 0
	if s.cfg.Vector != nil {
		vectors = s.cfg.Vector.Count()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"vectors": vectors,
		"quads":   s.cfg.Graph.Count(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExtract handles POST /v1/extract with a multipart "file" field and
// an optional "cache_key" field.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field: "+err.Error())
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("%v: %s", reader.ErrUnsupportedFormat, name))
		return
	}

	tmpPath, err := spool(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tmpPath)

	docs, err := s.extract(tmpPath, r.FormValue("cache_key"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for i := range docs {
		docs[i].Metadata[extractor.MetaSource] = name
	}

	writeJSON(w, http.StatusOK, ExtractResponse{Source: name, Documents: docs})
}

func (s *Server) extract(path, cacheKey string) ([]extractor.Document, error) {
	opts := s.cfg.Reader
	e, err := extractor.New(path, cacheKey, extractor.Options{
		Open:      pdfdoc.Opener(opts.Blocks),
		Filter:    textfilter.New(opts.Filter),
		Threshold: opts.Threshold,
		Cache:     opts.Cache,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return e.Extract()
}

// spool copies an upload to a temporary .pdf file and returns its path.
func spool(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "pdfsect-upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	return tmp.Name(), nil
}

// handleSearch handles GET /v1/search?q=&k=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	topK := 5
	if k := r.URL.Query().Get("k"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		topK = n
	}

	resp, err := s.search(r.Context(), query, topK)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// search runs vector and outline search. A failing outline search is not fatal.
func (s *Server) search(ctx context.Context, query string, topK int) (SearchResponse, error) {
	resp := SearchResponse{Query: query, Chunks: []vector.SearchResult{}, Sections: []graph.SearchResult{}}

	if s.cfg.Vector != nil {
		chunks, err := s.cfg.Vector.Query(ctx, query, topK, nil)
		if err != nil {
			return resp, fmt.Errorf("vector search: %w", err)
		}
		resp.Chunks = chunks
	}

	if sections, err := s.cfg.Graph.Search(ctx, query, topK); err == nil {
		resp.Sections = sections
	}
	return resp, nil
}

// handleOutline handles GET /v1/outline?source=. Without a source it lists
// the indexed documents.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	source := r.URL.Query().Get("source")
	if source == "" {
		sources, err := s.cfg.Graph.Sources(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, OutlineResponse{Sources: sources})
		return
	}

	sections, err := s.cfg.Graph.Sections(ctx, source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(sections) == 0 {
		writeError(w, http.StatusNotFound, "no outline for "+source)
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{Source: source, Sections: sections})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowed["*"]:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(log RequestLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log(r.Method, r.URL.Path, rec.status, time.Since(start), r.RemoteAddr)
	})
}
