package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortscout/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	if err := c.normalizeDiscovery(); err != nil {
		return err
	}
	c.normalizeTranscripts()
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeLLM()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	c.YouTube.BaseURL = strings.TrimSpace(c.YouTube.BaseURL)
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = defaultYouTubeRPS
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultYouTubeTimeoutSeconds
	}
}

func (c *Config) normalizeDiscovery() error {
	if strings.TrimSpace(c.Discovery.Language) == "" {
		c.Discovery.Language = defaultDiscoveryLanguage
	}
	lang, err := language.Normalize(c.Discovery.Language)
	if err != nil {
		return fmt.Errorf("discovery.language: %w", err)
	}
	c.Discovery.Language = lang

	if strings.TrimSpace(c.Discovery.Region) == "" {
		c.Discovery.Region = defaultDiscoveryRegion
	}
	region, err := language.NormalizeRegion(c.Discovery.Region)
	if err != nil {
		return fmt.Errorf("discovery.region: %w", err)
	}
	c.Discovery.Region = region

	if c.Discovery.PageSize <= 0 || c.Discovery.PageSize > maxProviderPageSize {
		c.Discovery.PageSize = defaultDiscoveryPageSize
	}
	if c.Discovery.BatchSize <= 0 || c.Discovery.BatchSize > maxProviderPageSize {
		c.Discovery.BatchSize = defaultDiscoveryBatchSize
	}
	if c.Discovery.MaxQueries < 0 {
		c.Discovery.MaxQueries = 0
	}
	return nil
}

func (c *Config) normalizeTranscripts() {
	c.Transcripts.Provider = strings.ToLower(strings.TrimSpace(c.Transcripts.Provider))
	if c.Transcripts.Provider == "" {
		c.Transcripts.Provider = defaultTranscriptProvider
	}
	c.Transcripts.Languages = language.NormalizeList(c.Transcripts.Languages)
	if len(c.Transcripts.Languages) == 0 {
		c.Transcripts.Languages = []string{"en"}
	}
	c.Transcripts.YTDLPBinary = strings.TrimSpace(c.Transcripts.YTDLPBinary)
	if c.Transcripts.YTDLPBinary == "" {
		c.Transcripts.YTDLPBinary = defaultYTDLPBinary
	}
	if c.Transcripts.TimeoutSeconds <= 0 {
		c.Transcripts.TimeoutSeconds = defaultTranscriptTimeout
	}
}

func (c *Config) normalizeTranslation() error {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationProvider
	}
	if strings.TrimSpace(c.Translation.TargetLanguage) == "" {
		c.Translation.TargetLanguage = defaultTranslationTarget
	}
	target, err := language.Normalize(c.Translation.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	c.Translation.TargetLanguage = target
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeExport() error {
	var err error
	c.Export.Sink = strings.ToLower(strings.TrimSpace(c.Export.Sink))
	if c.Export.Sink == "" {
		c.Export.Sink = defaultExportSink
	}
	if strings.TrimSpace(c.Export.SQLitePath) == "" {
		c.Export.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	if c.Export.SQLitePath, err = expandPath(c.Export.SQLitePath); err != nil {
		return fmt.Errorf("export.sqlite_path: %w", err)
	}
	if strings.TrimSpace(c.Export.CSVDir) == "" {
		c.Export.CSVDir = filepath.Join(c.Paths.DataDir, defaultCSVDirName)
	}
	if c.Export.CSVDir, err = expandPath(c.Export.CSVDir); err != nil {
		return fmt.Errorf("export.csv_dir: %w", err)
	}
	c.Export.PostgresDSN = strings.TrimSpace(c.Export.PostgresDSN)
	if c.Export.PostgresDSN == "" {
		if value, ok := os.LookupEnv("DATABASE_URL"); ok {
			c.Export.PostgresDSN = strings.TrimSpace(value)
		}
	}
	c.Export.SheetsSpreadsheetID = strings.TrimSpace(c.Export.SheetsSpreadsheetID)
	c.Export.SheetsRange = strings.TrimSpace(c.Export.SheetsRange)
	if c.Export.SheetsRange == "" {
		c.Export.SheetsRange = defaultSheetsRange
	}
	c.Export.SheetsCredentialsFile = strings.TrimSpace(c.Export.SheetsCredentialsFile)
	if c.Export.SheetsCredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Export.SheetsCredentialsFile = strings.TrimSpace(value)
		}
	}
	if c.Export.SheetsCredentialsFile != "" {
		if c.Export.SheetsCredentialsFile, err = expandPath(c.Export.SheetsCredentialsFile); err != nil {
			return fmt.Errorf("export.sheets_credentials_file: %w", err)
		}
	}
	c.Export.SheetsBaseURL = strings.TrimSpace(c.Export.SheetsBaseURL)
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = defaultServerReadTimeout
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = defaultServerWriteTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
