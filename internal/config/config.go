package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// YouTube contains configuration for the YouTube Data API search provider.
type YouTube struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Discovery contains the defaults applied to discovery requests that omit them.
type Discovery struct {
	Language string `toml:"language"`
	Region   string `toml:"region"`
	Days     int    `toml:"days"`
	Target   int    `toml:"target"`
	// PageSize is the number of ids requested per search call (provider max 50).
	PageSize int `toml:"page_size"`
	// BatchSize is the number of ids sent per details call (provider max 50).
	BatchSize int `toml:"batch_size"`
	// MaxQueries caps the total number of queries tried in one run. Zero means
	// the loop stops only when an extension adds nothing new.
	MaxQueries int `toml:"max_queries"`
}

// Transcripts selects and configures the transcript provider.
type Transcripts struct {
	Provider       string   `toml:"provider"`
	Languages      []string `toml:"languages"`
	YTDLPBinary    string   `toml:"ytdlp_binary"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Translation selects and configures the translation provider.
type Translation struct {
	Provider       string `toml:"provider"`
	TargetLanguage string `toml:"target_language"`
}

// LLM contains shared LLM connection settings used by the llm translation provider.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Export selects the sink enriched rows are written to.
type Export struct {
	Sink                  string `toml:"sink"`
	SQLitePath            string `toml:"sqlite_path"`
	PostgresDSN           string `toml:"postgres_dsn"`
	CSVDir                string `toml:"csv_dir"`
	SheetsSpreadsheetID   string `toml:"sheets_spreadsheet_id"`
	SheetsRange           string `toml:"sheets_range"`
	SheetsCredentialsFile string `toml:"sheets_credentials_file"`
	SheetsBaseURL         string `toml:"sheets_base_url"`
}

// Server contains configuration for the shortscoutd HTTP API.
type Server struct {
	Bind                string `toml:"bind"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shortscout.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - YouTube: search/metadata provider credentials and pacing
//   - Discovery: default language, region, recency window, and target count
//   - Transcripts: transcript provider selection
//   - Translation: translation provider selection and target language
//   - LLM: connection settings for the llm translation provider
//   - Export: sink selection and per-sink settings
//   - Server: HTTP API bind address and timeouts
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	YouTube     YouTube     `toml:"youtube"`
	Discovery   Discovery   `toml:"discovery"`
	Transcripts Transcripts `toml:"transcripts"`
	Translation Translation `toml:"translation"`
	LLM         LLM         `toml:"llm"`
	Export      Export      `toml:"export"`
	Server      Server      `toml:"server"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortscout.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus any directory a
// file-backed export sink writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	switch c.Export.Sink {
	case SinkSQLite:
		dirs = append(dirs, filepath.Dir(c.Export.SQLitePath))
	case SinkCSV:
		dirs = append(dirs, c.Export.CSVDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionLockPath returns the lock file guarding CLI checkpoint session files.
func (c *Config) SessionLockPath(sessionPath string) string {
	return sessionPath + ".lock"
}

// ServerLockPath returns the lock file that keeps shortscoutd single-instance.
func (c *Config) ServerLockPath() string {
	return filepath.Join(c.Paths.DataDir, "shortscoutd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the LLM settings handed to the llm client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
