package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// KnowledgeConfig locates the persisted question/answer table.
type KnowledgeConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // reload when the file changes on disk
}

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible encoder.
type OpenAIEncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EncoderConfig selects and configures the text encoder. Type "none" runs
// the degraded mode: exact and fuzzy lookup only, no embedding index.
type EncoderConfig struct {
	Type   string               `yaml:"type"`
	OpenAI *OpenAIEncoderConfig `yaml:"openai,omitempty"`
}

// RetrievalConfig tunes candidate ranking and acceptance.
type RetrievalConfig struct {
	TopK              int     `yaml:"top_k"`
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	KeywordThreshold  float64 `yaml:"keyword_threshold"`
	FuzzyCutoff       float64 `yaml:"fuzzy_cutoff"`
}

// ExtractorConfig points at the external document-to-text service used for
// non-plain-text documents. Optional.
type ExtractorConfig struct {
	ServiceURL string `yaml:"service_url"`
}

// PromptsConfig holds the conversation surface's canned messages.
type PromptsConfig struct {
	Fallback string `yaml:"fallback"`
	Teach    string `yaml:"teach"`
	Learned  string `yaml:"learned"`
}

// LoggingConfig configures the log file used while the chat surface owns
// the terminal.
type LoggingConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/learnbot/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "learnbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Knowledge: KnowledgeConfig{Path: "knowledge.csv"},
		Encoder:   EncoderConfig{Type: "tfidf"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Knowledge.Path == "" {
		cfg.Knowledge.Path = "knowledge.csv"
	}
	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = "tfidf"
	}
	if cfg.Encoder.Type == "openai" && cfg.Encoder.OpenAI != nil {
		if cfg.Encoder.OpenAI.BaseURL == "" {
			cfg.Encoder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Encoder.OpenAI.APIKeyEnv == "" {
			cfg.Encoder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Encoder.OpenAI.Model == "" {
			cfg.Encoder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Encoder.OpenAI.TimeoutSecs == 0 {
			cfg.Encoder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Encoder.OpenAI.BatchSize == 0 {
			cfg.Encoder.OpenAI.BatchSize = 32
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SemanticThreshold == 0 {
		cfg.Retrieval.SemanticThreshold = 0.6
	}
	if cfg.Retrieval.KeywordThreshold == 0 {
		cfg.Retrieval.KeywordThreshold = 0.5
	}
	if cfg.Retrieval.FuzzyCutoff == 0 {
		cfg.Retrieval.FuzzyCutoff = 0.6
	}
	if cfg.Prompts.Fallback == "" {
		cfg.Prompts.Fallback = "Sorry, I don't know the answer to that yet."
	}
	if cfg.Prompts.Teach == "" {
		cfg.Prompts.Teach = "Please teach me the answer so I can learn!"
	}
	if cfg.Prompts.Learned == "" {
		cfg.Prompts.Learned = "Thank you! I've learned something new."
	}
	if cfg.Logging.Path == "" {
		cfg.Logging.Path = "learnbot.log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
