package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The YouTube API key is not
// checked here; providers report a missing key as a configuration error when
// they are first called so offline commands keep working.
func (c *Config) Validate() error {
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateTranscripts(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if err := ensurePositiveMap(map[string]int{
		"discovery.days":              c.Discovery.Days,
		"discovery.target":            c.Discovery.Target,
		"youtube.timeout_seconds":     c.YouTube.TimeoutSeconds,
		"transcripts.timeout_seconds": c.Transcripts.TimeoutSeconds,
		"llm.timeout_seconds":         c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscripts() error {
	switch c.Transcripts.Provider {
	case TranscriptProviderYouTube, TranscriptProviderYTDLP, TranscriptProviderStub:
		return nil
	default:
		return fmt.Errorf("transcripts.provider %q is not supported (use youtube, ytdlp, or stub)", c.Transcripts.Provider)
	}
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case TranslationProviderStub:
		return nil
	case TranslationProviderLLM:
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key must be set when translation.provider is llm (or set OPENROUTER_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("translation.provider %q is not supported (use stub or llm)", c.Translation.Provider)
	}
}

func (c *Config) validateExport() error {
	switch c.Export.Sink {
	case SinkNone, SinkCSV, SinkSQLite:
		return nil
	case SinkPostgres:
		if c.Export.PostgresDSN == "" {
			return errors.New("export.postgres_dsn must be set when export.sink is postgres (or set DATABASE_URL)")
		}
		return nil
	case SinkSheets:
		if c.Export.SheetsSpreadsheetID == "" {
			return errors.New("export.sheets_spreadsheet_id must be set when export.sink is sheets")
		}
		if c.Export.SheetsCredentialsFile == "" {
			return errors.New("export.sheets_credentials_file must be set when export.sink is sheets (or set GOOGLE_APPLICATION_CREDENTIALS)")
		}
		return nil
	default:
		return fmt.Errorf("export.sink %q is not supported (use none, sqlite, postgres, sheets, or csv)", c.Export.Sink)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
