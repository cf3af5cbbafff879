package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/reminor/journal-engine/journal"

	"github.com/spf13/viper"
)

// Config stores all configuration of the engine.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Journal   JournalConfig   `mapstructure:"journal"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// DatabaseConfig stores database connection details.
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // Path to the .db file
}

// JournalConfig stores journal storage configurations.
type JournalConfig struct {
	DataDir  string         `mapstructure:"data_dir"`
	Database DatabaseConfig `mapstructure:"database"`
}

// EmbeddingConfig stores embedding provider configurations.
// The provider itself is an external collaborator; the engine only needs
// its dimensionality to size stored vectors.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // "", "external"
	Dims     int    `mapstructure:"dims"`     // Target embedding dimensions
}

// RetrievalConfig stores the tuning knobs of the search strategies.
// The scaling constants were tuned empirically and have no documented
// derivation, so they are exposed here rather than hard-coded.
type RetrievalConfig struct {
	K               int     `mapstructure:"k"`                // Top-k results to return
	SemanticScale   float64 `mapstructure:"semantic_scale"`   // Multiplier bringing cosine scores up to lexical magnitude
	SimilarityFloor float64 `mapstructure:"similarity_floor"` // Minimum cosine similarity; near-orthogonal matches are noise
	MonthBonus      float64 `mapstructure:"month_bonus"`      // Direct-match bonus when the query names the entry's month
	KeywordBase     float64 `mapstructure:"keyword_base"`     // Base added to token length when scoring keyword hits
	SnippetBefore   int     `mapstructure:"snippet_before"`   // Snippet window chars before the best match
	SnippetAfter    int     `mapstructure:"snippet_after"`    // Snippet window chars after the best match
	MinTokenLen     int     `mapstructure:"min_token_len"`    // Shortest token considered a keyword or entity
	MaxSnippets     int     `mapstructure:"max_snippets"`     // Similarity snippets appended by the context assembler
	RebuildWorkers  int     `mapstructure:"rebuild_workers"`  // Concurrent embedding calls during rebuild
}

// CacheConfig stores analysis cache configurations.
type CacheConfig struct {
	// SchemaVersion gates every cached analysis result. Bumping it is the
	// only sanctioned way to invalidate all prior entries at once.
	SchemaVersion string `mapstructure:"schema_version"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("journal.data_dir", internal.DefaultDataDir)
	viper.SetDefault("journal.database.path", filepath.Join(internal.DefaultDataDir, internal.DefaultDatabaseFile))

	// Embedding defaults: no provider wired means the vector index
	// degrades to empty results rather than erroring.
	viper.SetDefault("embedding.provider", "")
	viper.SetDefault("embedding.dims", 768)

	// Retrieval defaults
	viper.SetDefault("retrieval.k", 5)
	viper.SetDefault("retrieval.semantic_scale", 20.0)
	viper.SetDefault("retrieval.similarity_floor", 0.2)
	viper.SetDefault("retrieval.month_bonus", 15.0)
	viper.SetDefault("retrieval.keyword_base", 5.0)
	viper.SetDefault("retrieval.snippet_before", 100)
	viper.SetDefault("retrieval.snippet_after", 300)
	viper.SetDefault("retrieval.min_token_len", 3)
	viper.SetDefault("retrieval.max_snippets", 5)
	viper.SetDefault("retrieval.rebuild_workers", 4)

	// Cache defaults
	viper.SetDefault("cache.schema_version", "2.0")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults are used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
