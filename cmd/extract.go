package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/akashicode/pdfsect/internal/cache"
	"github.com/akashicode/pdfsect/internal/config"
	"github.com/akashicode/pdfsect/internal/display"
	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/pdfdoc"
	"github.com/akashicode/pdfsect/internal/textfilter"
)

// Output formats for the extract command.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	extractFormat    string
	extractCacheKey  string
	extractThreshold float64
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract TOC-aligned sections from a PDF",
	Long: `Extracts the text of a PDF, removes repeated headers and footers and
parser noise, then splits it at the titles of the document outline.

With --cache-key the result is stored in (and served from) the cache
directory configured under paths.cache_dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", formatText, "output format: text, json or yaml")
	extractCmd.Flags().StringVar(&extractCacheKey, "cache-key", "", "cache the extraction under this key")
	extractCmd.Flags().Float64Var(&extractThreshold, "threshold", 0, "share of pages that must agree on a header/footer height (default from config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(extractFormat)
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", extractFormat)
	}

	thresholdSet := cmd.Flags().Changed("threshold")
	if thresholdSet {
		if err := config.ValidateThreshold(extractThreshold); err != nil {
			return fmt.Errorf("--threshold %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	threshold := cfg.Extract.Threshold
	if thresholdSet {
		threshold = extractThreshold
	}

	opts := extractor.Options{
		Open:      pdfdoc.Opener(cfg.Extract.Blocks),
		Filter:    textfilter.New(cfg.Extract.Filter),
		Threshold: threshold,
		Logger:    logger(),
	}
	if extractCacheKey != "" {
		opts.Cache = cache.NewOS(cfg.Paths.CacheDir)
	}

	e, err := extractor.New(args[0], extractCacheKey, opts)
	if err != nil {
		return err
	}
	docs, err := e.Extract()
	if err != nil {
		return fmt.Errorf("extract %q: %w", args[0], err)
	}

	return writeDocuments(cmd.OutOrStdout(), format, docs)
}

// writeDocuments renders docs in format. Text goes through display so
// section headings are colored.
func writeDocuments(w io.Writer, format string, docs []extractor.Document) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		for i, d := range docs {
			display.Segment(i, d.Metadata[extractor.MetaSection], len([]rune(d.PageContent)))
			fmt.Fprint(display.Out, d.PageContent)
		}
	}
	return nil
}
