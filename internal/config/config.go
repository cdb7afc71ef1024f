package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/akashicode/pdfsect/internal/chunker"
	"github.com/akashicode/pdfsect/internal/extractor"
	"github.com/akashicode/pdfsect/internal/pdfdoc"
	"github.com/akashicode/pdfsect/internal/textfilter"
)

// EnvPrefix prefixes every environment variable read through viper,
// e.g. PDFSECT_EMBEDDER_API_KEY.
const EnvPrefix = "PDFSECT"

// ErrNilConfig is returned when a nil Config is provided.
var ErrNilConfig = errors.New("config is nil")

// ErrMissingEmbedder is returned when an embedding endpoint is needed but not configured.
var ErrMissingEmbedder = errors.New("embedder base_url and api_key are required")

// Config holds the full application configuration.
type Config struct {
	Extract  ExtractConfig  `mapstructure:"extract"`
	Chunk    ChunkConfig    `mapstructure:"chunk"`
	Embedder ProviderConfig `mapstructure:"embedder"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Server   ServerConfig   `mapstructure:"server"`
}

// ExtractConfig tunes the PDF extraction pipeline.
type ExtractConfig struct {
	// Threshold is the share of pages that must agree on a header or footer height
	Threshold float64            `mapstructure:"threshold"`
	Blocks    pdfdoc.BlockConfig `mapstructure:"blocks"`
	Filter    textfilter.Config  `mapstructure:"filter"`
}

// ChunkConfig mirrors chunker.Options.
type ChunkConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
	// Paragraphs packs whole paragraphs instead of fixed windows
	Paragraphs bool `mapstructure:"paragraphs"`
}

// ProviderConfig holds connection details for an OpenAI-compatible provider.
type ProviderConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// PathsConfig holds on-disk locations.
type PathsConfig struct {
	CacheDir  string `mapstructure:"cache_dir"`
	VectorDir string `mapstructure:"vector_dir"`
	GraphDir  string `mapstructure:"graph_dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// MaxUploadMB caps the size of PDFs posted to /v1/extract
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

// SetDefaults registers default values on v. Every key is registered so
// that AutomaticEnv can override it.
func SetDefaults(v *viper.Viper) {
	blocks := pdfdoc.DefaultBlockConfig()
	filter := textfilter.DefaultConfig()
	chunk := chunker.DefaultOptions()

	v.SetDefault("extract.threshold", extractor.DefaultThreshold)
	v.SetDefault("extract.blocks.line_tolerance", blocks.LineTolerance)
	v.SetDefault("extract.blocks.word_spacing", blocks.WordSpacing)
	v.SetDefault("extract.blocks.block_gap", blocks.BlockGap)
	v.SetDefault("extract.filter.max_unusual_ratio", filter.MaxUnusualRatio)
	v.SetDefault("extract.filter.entropy_threshold", filter.EntropyThreshold)
	v.SetDefault("extract.filter.min_entropy_length", filter.MinEntropyLength)
	v.SetDefault("extract.filter.max_transition_rate", filter.MaxTransitionRate)

	v.SetDefault("chunk.size", chunk.ChunkSize)
	v.SetDefault("chunk.overlap", chunk.Overlap)
	v.SetDefault("chunk.paragraphs", chunk.Paragraphs)

	v.SetDefault("embedder.base_url", "")
	v.SetDefault("embedder.api_key", "")
	v.SetDefault("embedder.model", "")
	v.SetDefault("embedder.dimensions", 0)

	v.SetDefault("paths.cache_dir", ".pdfsect/cache")
	v.SetDefault("paths.vector_dir", ".pdfsect/segments.chromem")
	v.SetDefault("paths.graph_dir", ".pdfsect/outline.cayley")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 64)
}

// BindEnv makes v read PDFSECT_* variables, mapping "." to "_".
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the global Viper-populated config into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads v into a Config struct and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that would otherwise fail deep inside the pipeline.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := ValidateThreshold(cfg.Extract.Threshold); err != nil {
		return fmt.Errorf("extract.threshold %w", err)
	}
	if cfg.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be greater than 0, got %d", cfg.Chunk.Size)
	}
	if cfg.Chunk.Overlap < 0 {
		return fmt.Errorf("chunk.overlap must not be negative, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	return nil
}

// ValidateThreshold checks a header/footer agreement ratio.
func ValidateThreshold(t float64) error {
	if t <= 0 || t > 1 {
		return fmt.Errorf("must be in (0, 1], got %v", t)
	}
	return nil
}

// ValidateEmbedder reports whether the embedding provider can be reached.
func ValidateEmbedder(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if cfg.Embedder.BaseURL == "" || cfg.Embedder.APIKey == "" {
		return ErrMissingEmbedder
	}
	return nil
}

// ChunkOptions converts the chunk section to chunker.Options.
func (c *Config) ChunkOptions() chunker.Options {
	return chunker.Options{
		ChunkSize:  c.Chunk.Size,
		Overlap:    c.Chunk.Overlap,
		Paragraphs: c.Chunk.Paragraphs,
	}
}
