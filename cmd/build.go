package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akashicode/pdfsect/internal/cache"
	"github.com/akashicode/pdfsect/internal/chunker"
	"github.com/akashicode/pdfsect/internal/config"
	"github.com/akashicode/pdfsect/internal/display"
	"github.com/akashicode/pdfsect/internal/graph"
	"github.com/akashicode/pdfsect/internal/llm"
	"github.com/akashicode/pdfsect/internal/reader"
	"github.com/akashicode/pdfsect/internal/vector"
)

var buildNoCache bool

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Index a directory of documents for search",
	Long: `Reads .pdf, .md and .txt files from a directory (default: data) and builds
the search index:
  1. Extracts TOC-aligned sections from each PDF
  2. Chunks every section
  3. Embeds chunks into the vector index (needs embedder.base_url and api_key)
  4. Writes each PDF outline to the outline graph`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "re-extract PDFs even when cached")
}

func runBuild(cmd *cobra.Command, args []string) error {
	dir := "data"
	if len(args) == 1 {
		dir = args[0]
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	display.Header("pdfsect build")
	display.KeyValue("Directory", dir, display.BrightWhite)
	display.KeyValue("Threshold", cfg.Extract.Threshold, display.BrightYellow)
	fmt.Fprintln(display.Out)

	// Step 1: Load documents
	display.Step(1, 4, "Extracting documents...")
	opts := reader.Options{
		Blocks:    cfg.Extract.Blocks,
		Filter:    cfg.Extract.Filter,
		Threshold: cfg.Extract.Threshold,
		Logger:    logger(),
	}
	if !buildNoCache {
		opts.Cache = cache.NewOS(cfg.Paths.CacheDir)
	}
	sources, err := reader.LoadDirectory(dir, opts, func(path string, err error) {
		display.StepWarn(fmt.Sprintf("skipping %s: %v", path, err))
	})
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no supported documents found in %s (add .pdf, .md or .txt files)", dir)
	}
	for _, src := range sources {
		display.StepDetail(fmt.Sprintf("%s: %d section(s)", src.Name, len(src.Segments)))
	}

	// Step 2: Chunk sections
	display.Step(2, 4, "Chunking sections...")
	ck, err := chunker.NewChunker(cfg.ChunkOptions())
	if err != nil {
		return fmt.Errorf("create chunker: %w", err)
	}
	var allChunks []chunker.Chunk
	for _, src := range sources {
		chunks, err := ck.ChunkSegments(src.Segments, src.Name)
		if err != nil {
			return fmt.Errorf("chunk %q: %w", src.Name, err)
		}
		allChunks = append(allChunks, chunks...)
	}
	display.StepResult("chunks:", len(allChunks))

	// Step 3: Vector index
	display.Step(3, 4, "Building vector index...")
	vectors := 0
	if err := config.ValidateEmbedder(cfg); err != nil {
		if !errors.Is(err, config.ErrMissingEmbedder) {
			return err
		}
		display.StepWarn("embedder not configured, skipping vector index")
	} else {
		vectors, err = indexChunks(ctx, cfg, sources, allChunks)
		if err != nil {
			return err
		}
		display.StepResult("vectors:", vectors)
	}

	// Step 4: Outline graph
	display.Step(4, 4, "Writing outline graph...")
	if err := os.MkdirAll(cfg.Paths.GraphDir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}
	gdb, err := graph.NewDBFromPath(cfg.Paths.GraphDir)
	if err != nil {
		return fmt.Errorf("open graph store: %w", err)
	}
	defer gdb.Close()

	for _, src := range sources {
		if len(src.TOC) == 0 {
			continue
		}
		if err := gdb.AddOutline(ctx, src.Name, src.TOC); err != nil {
			return fmt.Errorf("store outline of %q: %w", src.Name, err)
		}
		display.StepDetail(fmt.Sprintf("%s: %d outline entries", src.Name, len(src.TOC)))
	}
	display.StepResult("quads:", gdb.Count())

	fmt.Fprintln(display.Out)
	display.Success("Build complete")
	display.KeyValue("Vector index", fmt.Sprintf("%s (%d chunks)", cfg.Paths.VectorDir, vectors), display.BrightGreen)
	display.KeyValue("Outline graph", fmt.Sprintf("%s (%d quads)", cfg.Paths.GraphDir, gdb.Count()), display.BrightGreen)
	return nil
}

// indexChunks replaces each source's chunks in the persistent vector index.
func indexChunks(ctx context.Context, cfg *config.Config, sources []reader.Source, chunks []chunker.Chunk) (int, error) {
	embedder, err := llm.NewEmbedder(&cfg.Embedder)
	if err != nil {
		return 0, fmt.Errorf("create embedder: %w", err)
	}
	if err := os.MkdirAll(cfg.Paths.VectorDir, 0o755); err != nil {
		return 0, fmt.Errorf("create vector directory: %w", err)
	}
	vs, err := vector.NewPersistentStore(cfg.Paths.VectorDir, embedder.EmbeddingFunc())
	if err != nil {
		return 0, fmt.Errorf("open vector store: %w", err)
	}

	for _, src := range sources {
		if err := vs.DeleteSource(ctx, src.Name); err != nil {
			return 0, err
		}
	}
	if err := vs.AddChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("add chunks to vector store: %w", err)
	}
	return vs.Count(), nil
}
