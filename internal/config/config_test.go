package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "file_chunks", cfg.Qdrant.Collection)
	assert.Equal(t, "local", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Local)
	assert.Equal(t, 384, cfg.Embedder.Local.Dimension)
	assert.Equal(t, 1000, cfg.Indexer.ChunkSize)
	assert.Equal(t, 200, cfg.Indexer.ChunkOverlap)
	assert.Equal(t, 40, cfg.Indexer.MinChunkLength)
	assert.Contains(t, cfg.Indexer.AllowedExtensions, ".txt")
	assert.Contains(t, cfg.Indexer.AllowedExtensions, ".md")
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.InDelta(t, 0.8, cfg.Search.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.2, cfg.Search.LexicalWeight, 1e-9)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 10\nqdrant:\n  host: qdrant.internal\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	// Unset fields still get defaults.
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.InDelta(t, 0.75, cfg.Search.FuzzyThreshold, 1e-9)
}

func TestLoad_HonorsExplicitZeroWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  semantic_weight: 0\n  lexical_weight: 1.0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// A pure-lexical blend must not be silently rewritten to the defaults.
	assert.Zero(t, cfg.Search.SemanticWeight)
	assert.InDelta(t, 1.0, cfg.Search.LexicalWeight, 1e-9)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not: a: mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveThenLoadRoundtrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Indexer.FilterSensitive = true
	cfg.Embedder.Type = "openai"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Indexer.FilterSensitive)
	assert.Equal(t, "openai", loaded.Embedder.Type)
	require.NotNil(t, loaded.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-small", loaded.Embedder.OpenAI.Model)
}
