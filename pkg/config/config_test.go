package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
server:
  host: "127.0.0.1"
  port: 9000
  cors_origins:
    - "http://localhost:3000"

embedding:
  base_url: "http://localhost:11434"
  model: "all-minilm"
  dimensions: 384

llm:
  base_url: "https://openrouter.ai/api/v1"
  model: "gpt4-mini"
  max_tokens: 1000
  temperature: 0.5
  timeout_secs: 30

store:
  driver: "sqlite"
  path: "data/test.db"

retrieval:
  top_k: 5
  min_score: 0.25

ingest:
  knowledge_file: "data/knowledge.json"
  chunk_size: 500
  chunk_overlap: 100
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "http://localhost:11434", config.Embedding.BaseURL)
	assert.Equal(t, 384, config.Embedding.Dimensions)
	assert.Equal(t, "gpt4-mini", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "sqlite", config.Store.Driver)
	assert.Equal(t, 5, config.Retrieval.TopK)
	assert.Equal(t, 0.25, config.Retrieval.MinScore)
	assert.Equal(t, 500, config.Ingest.ChunkSize)

	// Defaults fill in what the file left out
	assert.Equal(t, "pawsona_documents", config.Store.TableName)
	assert.Equal(t, 5, config.Retrieval.HistoryWindow)
	assert.Equal(t, 100, config.Ingest.MinChunkLength)
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Embedding: EmbeddingConfig{
			BaseURL:    "http://localhost:11434",
			Model:      "all-minilm",
			Dimensions: 384,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "gpt4-mini",
			MaxTokens:   1000,
			Temperature: 0.7,
			TimeoutSecs: 60,
		},
		Store: StoreConfig{
			Driver:    "file",
			Path:      "data/store.bin",
			TableName: "pawsona_documents",
		},
		Retrieval: RetrievalConfig{
			TopK:          3,
			MinScore:      0.3,
			HistoryWindow: 5,
		},
		Ingest: IngestConfig{
			KnowledgeFile:  "data/knowledge.json",
			MaxDepth:       2,
			RateLimit:      2.0,
			ChunkSize:      1000,
			ChunkOverlap:   200,
			MinChunkLength: 100,
			BatchSize:      32,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	broken := validConfig()
	broken.Server.Port = 70000
	broken.Embedding.BaseURL = ""
	broken.LLM.MaxTokens = 5000
	broken.LLM.Temperature = 3.0
	broken.Store.Driver = "redis"

	tests := []struct {
		name          string
		config        Config
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			config:       validConfig(),
			expectedErrs: 0,
		},
		{
			name:         "invalid config",
			config:       broken,
			expectedErrs: 5,
			errorMessages: []string{
				"server.port: port must be between 1 and 65535",
				"embedding.base_url: Ollama base URL is required",
				"llm.max_tokens: max_tokens must be between 1 and 4096",
				"llm.temperature: temperature must be between 0 and 2",
				"store.driver: unknown driver: redis",
			},
		},
		{
			name: "postgres driver requires url",
			config: func() Config {
				c := validConfig()
				c.Store.Driver = "postgres"
				c.Store.URL = ""
				return c
			}(),
			expectedErrs: 1,
			errorMessages: []string{
				"store.url: postgres driver requires a connection URL",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			if tt.errorMessages != nil {
				for i, msg := range tt.errorMessages {
					assert.Contains(t, errors[i].Error(), msg)
				}
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/pawsona")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("OPENROUTER_API_KEY")
		os.Unsetenv("DATABASE_URL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.Embedding.BaseURL)
	assert.Equal(t, "sk-or-test", config.LLM.APIKey)
	assert.Equal(t, "postgres://env-db:5432/pawsona", config.Store.URL)
}
