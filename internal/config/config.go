// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Similarity SimilarityConfig
	Genre      GenreConfig
	Sources    SourcesConfig
	Recommend  RecommendConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // default: 8080
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 30s
	IdleTimeout  time.Duration // default: 60s
	CORSOrigins  []string
}

// CatalogConfig holds the on-disk locations of the catalog database and its search index.
type CatalogConfig struct {
	DataPath string // default: ~/Folio/data
}

// StorePath is the badger directory.
func (c CatalogConfig) StorePath() string { return filepath.Join(c.DataPath, "catalog") }

// IndexPath is the bleve directory.
func (c CatalogConfig) IndexPath() string { return filepath.Join(c.DataPath, "search") }

// SimilarityConfig controls the offline similarity batch and where its tables live.
type SimilarityConfig struct {
	Backend      string // "file" or "sqlite"
	Dir          string // default: {data}/similarity
	ChunkSize    int
	Threshold    float64
	ShortCircuit bool
	Workers      int
}

// GenreConfig tunes subject classification.
type GenreConfig struct {
	MinScore float64 // lowest accepted word overlap for a taxonomy match; 0 accepts any overlap
}

// SourceConfig configures one third-party source.
type SourceConfig struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Enabled bool
}

// SourcesConfig holds outbound adapter configuration.
type SourcesConfig struct {
	Timeout      time.Duration // default: 10s
	MaxRetries   int
	Gutenberg    SourceConfig
	AnnasArchive SourceConfig
	OpenLibrary  SourceConfig
	Goodreads    SourceConfig
	BestBooks    SourceConfig
}

// RecommendConfig holds recommendation engine configuration.
type RecommendConfig struct {
	DefaultLanguages []string
	EngineTTL        time.Duration
	PerBookLimit     int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("folio", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for catalog data")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	simBackend := fs.String("similarity-backend", "", "Similarity table backend: file or sqlite")
	simDir := fs.String("similarity-dir", "", "Directory for similarity tables")

	sourceTimeout := fs.String("source-timeout", "", "Outbound request timeout (default: 10s)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is not an error; existing env vars win over file entries.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: getListConfigValue("", "CORS_ORIGINS", []string{"*"}),
		},
		Catalog: CatalogConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Similarity: SimilarityConfig{
			Backend:      getConfigValue(*simBackend, "SIMILARITY_BACKEND", "file"),
			Dir:          getConfigValue(*simDir, "SIMILARITY_DIR", ""),
			ChunkSize:    getIntConfigValue("", "SIMILARITY_CHUNK_SIZE", 500),
			Threshold:    getFloatConfigValue("", "SIMILARITY_THRESHOLD", 0.05),
			ShortCircuit: getBoolConfigValue("", "SIMILARITY_SHORT_CIRCUIT", false),
			Workers:      getIntConfigValue("", "SIMILARITY_WORKERS", 4),
		},
		Genre: GenreConfig{
			MinScore: getFloatConfigValue("", "GENRE_MIN_SCORE", 0),
		},
		Sources: SourcesConfig{
			MaxRetries: getIntConfigValue("", "SOURCE_MAX_RETRIES", 2),
			Gutenberg:  loadSource("GUTENBERG", "https://gutendex.com", 5),
			AnnasArchive: loadSource("ANNAS_ARCHIVE",
				"https://annas-archive-api.p.rapidapi.com", 1),
			OpenLibrary: loadSource("OPEN_LIBRARY", "https://openlibrary.org", 5),
			Goodreads:   loadSource("GOODREADS", "https://www.goodreads.com", 1),
			BestBooks:   loadSource("BEST_BOOKS", "", 2),
		},
		Recommend: RecommendConfig{
			DefaultLanguages: getListConfigValue("", "DEFAULT_LANGUAGES", []string{"en"}),
			PerBookLimit:     getIntConfigValue("", "RECOMMEND_PER_BOOK", 5),
		},
	}

	var err error
	durations := []struct {
		target   *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Sources.Timeout, *sourceTimeout, "SOURCE_TIMEOUT", "10s"},
		{&cfg.Recommend.EngineTTL, "", "RECOMMEND_ENGINE_TTL", "30m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		if *d.target, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadSource reads {PREFIX}_BASE_URL, {PREFIX}_API_KEY, {PREFIX}_RPS and {PREFIX}_ENABLED.
func loadSource(prefix, defaultURL string, defaultRPS float64) SourceConfig {
	baseURL := getConfigValue("", prefix+"_BASE_URL", defaultURL)
	return SourceConfig{
		BaseURL: baseURL,
		APIKey:  getConfigValue("", prefix+"_API_KEY", ""),
		RPS:     getFloatConfigValue("", prefix+"_RPS", defaultRPS),
		Enabled: getBoolConfigValue("", prefix+"_ENABLED", baseURL != ""),
	}
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Catalog.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Similarity.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid similarity backend: %s (must be file or sqlite)", c.Similarity.Backend)
	}

	if c.Similarity.ChunkSize < 2 {
		return fmt.Errorf("similarity chunk size must be at least 2, got %d", c.Similarity.ChunkSize)
	}
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0, 1], got %v", c.Similarity.Threshold)
	}

	if c.Genre.MinScore < 0 || c.Genre.MinScore > 1 {
		return fmt.Errorf("genre min score must be within [0, 1], got %v", c.Genre.MinScore)
	}

	if len(c.Recommend.DefaultLanguages) == 0 {
		return errors.New("at least one default language is required")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data directory and the similarity directory beneath it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Catalog.DataPath, err = expandPath(c.Catalog.DataPath, filepath.Join(homeDir, "Folio", "data")); err != nil {
		return err
	}
	c.Similarity.Dir, err = expandPath(c.Similarity.Dir, filepath.Join(c.Catalog.DataPath, "similarity"))
	return err
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	result, err := strconv.Atoi(getConfigValue(flagValue, envKey, ""))
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	result, err := strconv.ParseFloat(getConfigValue(flagValue, envKey, ""), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getListConfigValue splits a comma separated value, dropping blanks.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
