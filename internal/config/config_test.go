package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)

	assert.InDelta(t, 0.9, cfg.Extract.Threshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.Extract.Blocks.LineTolerance, 1e-9)
	assert.InDelta(t, 4.8, cfg.Extract.Filter.EntropyThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Extract.Filter.MinEntropyLength)
	assert.Equal(t, 1000, cfg.Chunk.Size)
	assert.Equal(t, 200, cfg.Chunk.Overlap)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ".pdfsect/cache", cfg.Paths.CacheDir)
}

func TestLoadFrom_YAML(t *testing.T) {
	v := newViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
extract:
  threshold: 0.75
  blocks:
    block_gap: 1.5
chunk:
  size: 400
  overlap: 50
  paragraphs: true
embedder:
  base_url: http://localhost:11434/v1
  api_key: secret
  model: nomic-embed-text
server:
  port: 9090
`)))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, cfg.Extract.Threshold, 1e-9)
	assert.InDelta(t, 1.5, cfg.Extract.Blocks.BlockGap, 1e-9)
	assert.InDelta(t, 0.3, cfg.Extract.Blocks.WordSpacing, 1e-9, "unset keys keep defaults")
	assert.Equal(t, 400, cfg.ChunkOptions().ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOptions().Overlap)
	assert.True(t, cfg.ChunkOptions().Paragraphs)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.NoError(t, ValidateEmbedder(cfg))
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("PDFSECT_EXTRACT_THRESHOLD", "0.6")
	t.Setenv("PDFSECT_EMBEDDER_API_KEY", "from-env")

	v := newViper()
	BindEnv(v)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, cfg.Extract.Threshold, 1e-9)
	assert.Equal(t, "from-env", cfg.Embedder.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFrom(newViper())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero threshold", mutate: func(c *Config) { c.Extract.Threshold = 0 }, wantErr: "extract.threshold"},
		{name: "threshold above one", mutate: func(c *Config) { c.Extract.Threshold = 1.2 }, wantErr: "extract.threshold"},
		{name: "threshold of one", mutate: func(c *Config) { c.Extract.Threshold = 1 }},
		{name: "zero chunk size", mutate: func(c *Config) { c.Chunk.Size = 0 }, wantErr: "chunk.size"},
		{name: "negative overlap", mutate: func(c *Config) { c.Chunk.Overlap = -1 }, wantErr: "chunk.overlap"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrNilConfig)
	assert.ErrorIs(t, ValidateEmbedder(nil), ErrNilConfig)
}

func TestValidateEmbedder_Missing(t *testing.T) {
	cfg, err := LoadFrom(newViper())
	require.NoError(t, err)
	assert.ErrorIs(t, ValidateEmbedder(cfg), ErrMissingEmbedder)
}

func TestValidateThreshold(t *testing.T) {
	for _, ok := range []float64{0.01, 0.9, 1} {
		assert.NoError(t, ValidateThreshold(ok), ok)
	}
	for _, bad := range []float64{0, -1, 1.0001} {
		assert.Error(t, ValidateThreshold(bad), bad)
	}
}
