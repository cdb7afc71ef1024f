package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/akashicode/pdfsect/internal/cache"
	"github.com/akashicode/pdfsect/internal/config"
	"github.com/akashicode/pdfsect/internal/display"
	"github.com/akashicode/pdfsect/internal/graph"
	"github.com/akashicode/pdfsect/internal/llm"
	"github.com/akashicode/pdfsect/internal/reader"
	"github.com/akashicode/pdfsect/internal/server"
	"github.com/akashicode/pdfsect/internal/vector"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pdfsect HTTP server",
	Long: `Starts the HTTP server on server.port (or $PORT).

Endpoints:
  POST /v1/extract   - extract sections from an uploaded PDF
  GET  /v1/search    - search indexed sections
  GET  /v1/outline   - outline of an indexed PDF
  POST /mcp          - Model Context Protocol JSON-RPC
  GET  /health       - health check

Search over chunk vectors needs the index written by "pdfsect build" and an
embedder (embedder.base_url, embedder.api_key).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	// PORT wins in container environments
	if envPort := os.Getenv("PORT"); envPort != "" {
		if port, err = strconv.Atoi(envPort); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", envPort, err)
		}
	}
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	if err := os.MkdirAll(cfg.Paths.GraphDir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}
	gdb, err := graph.NewDBFromPath(cfg.Paths.GraphDir)
	if err != nil {
		return fmt.Errorf("open graph db: %w", err)
	}
	defer gdb.Close()

	var vs *vector.Store
	if config.ValidateEmbedder(cfg) == nil {
		embedder, err := llm.NewEmbedder(&cfg.Embedder)
		if err != nil {
			return fmt.Errorf("create embedder: %w", err)
		}
		if vs, err = vector.NewPersistentStore(cfg.Paths.VectorDir, embedder.EmbeddingFunc()); err != nil {
			return fmt.Errorf("open vector store: %w", err)
		}
	}

	srv, err := server.New(server.Config{
		Vector: vs,
		Graph:  gdb,
		Reader: reader.Options{
			Blocks:    cfg.Extract.Blocks,
			Filter:    cfg.Extract.Filter,
			Threshold: cfg.Extract.Threshold,
			Cache:     cache.NewOS(cfg.Paths.CacheDir),
			Logger:    logger(),
		},
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Log:            display.LogRequest,
	})
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	sources, err := gdb.Sources(cmd.Context())
	if err != nil {
		return err
	}
	info := display.ServerInfo{
		Version:      version,
		QuadCount:    gdb.Count(),
		SourceCount:  len(sources),
		EmbedModel:   cfg.Embedder.Model,
		EmbedBaseURL: cfg.Embedder.BaseURL,
		Threshold:    cfg.Extract.Threshold,
		CacheDir:     cfg.Paths.CacheDir,
		Port:         port,
	}
	if vs != nil {
		info.VectorCount = vs.Count()
	}
	display.PrintBanner(info)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}
