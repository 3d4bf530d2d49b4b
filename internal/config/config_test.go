package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "knowledge.csv", cfg.Knowledge.Path)
	assert.Equal(t, "tfidf", cfg.Encoder.Type)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.6, cfg.Retrieval.SemanticThreshold)
	assert.Equal(t, 0.5, cfg.Retrieval.KeywordThreshold)
	assert.Equal(t, 0.6, cfg.Retrieval.FuzzyCutoff)
	assert.NotEmpty(t, cfg.Prompts.Fallback)
	assert.NotEmpty(t, cfg.Prompts.Teach)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
knowledge:
  path: /tmp/my-knowledge.csv
  watch: true
retrieval:
  top_k: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/my-knowledge.csv", cfg.Knowledge.Path)
	assert.True(t, cfg.Knowledge.Watch)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.6, cfg.Retrieval.SemanticThreshold)
	assert.Equal(t, "tfidf", cfg.Encoder.Type)
}

func TestLoadOpenAIDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
encoder:
  type: openai
  openai:
    model: my-model
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Encoder.OpenAI)
	assert.Equal(t, "my-model", cfg.Encoder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Encoder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Encoder.OpenAI.APIKeyEnv)
	assert.Equal(t, 30, cfg.Encoder.OpenAI.TimeoutSecs)
	assert.Equal(t, 32, cfg.Encoder.OpenAI.BatchSize)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Knowledge.Watch = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
