package config

const (
	defaultConfigPath            = "~/.config/shortscout/config.toml"
	defaultDataDir               = "~/.local/share/shortscout"
	defaultYouTubeBaseURL        = "https://youtube.googleapis.com/"
	defaultYouTubeRPS            = 5.0
	defaultYouTubeTimeoutSeconds = 20
	defaultDiscoveryLanguage     = "en"
	defaultDiscoveryRegion       = "US"
	defaultDiscoveryDays         = 30
	defaultDiscoveryTarget       = 10
	defaultDiscoveryPageSize     = 50
	defaultDiscoveryBatchSize    = 50
	maxProviderPageSize          = 50
	defaultTranscriptProvider    = TranscriptProviderYouTube
	defaultYTDLPBinary           = "yt-dlp"
	defaultTranscriptTimeout     = 30
	defaultTranslationProvider   = TranslationProviderStub
	defaultTranslationTarget     = "ru"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/shortscout/shortscout"
	defaultLLMTitle              = "Shortscout Translator"
	defaultLLMTimeoutSeconds     = 60
	defaultExportSink            = SinkSQLite
	defaultSQLiteFile            = "shorts.db"
	defaultCSVDirName            = "exports"
	defaultSheetsRange           = "Shorts!A1"
	defaultServerBind            = "127.0.0.1:7488"
	defaultServerReadTimeout     = 30
	defaultServerWriteTimeout    = 300
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Transcript provider names.
const (
	TranscriptProviderYouTube = "youtube"
	TranscriptProviderYTDLP   = "ytdlp"
	TranscriptProviderStub    = "stub"
)

// Translation provider names.
const (
	TranslationProviderStub = "stub"
	TranslationProviderLLM  = "llm"
)

// Export sink names.
const (
	SinkNone     = "none"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkSheets   = "sheets"
	SinkCSV      = "csv"
)

// Default returns a Config populated with repository defaults. Paths derived
// from data_dir (sqlite_path, csv_dir) are filled in during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		YouTube: YouTube{
			BaseURL:           defaultYouTubeBaseURL,
			RequestsPerSecond: defaultYouTubeRPS,
			TimeoutSeconds:    defaultYouTubeTimeoutSeconds,
		},
		Discovery: Discovery{
			Language:  defaultDiscoveryLanguage,
			Region:    defaultDiscoveryRegion,
			Days:      defaultDiscoveryDays,
			Target:    defaultDiscoveryTarget,
			PageSize:  defaultDiscoveryPageSize,
			BatchSize: defaultDiscoveryBatchSize,
		},
		Transcripts: Transcripts{
			Provider:       defaultTranscriptProvider,
			Languages:      []string{"en"},
			YTDLPBinary:    defaultYTDLPBinary,
			TimeoutSeconds: defaultTranscriptTimeout,
		},
		Translation: Translation{
			Provider:       defaultTranslationProvider,
			TargetLanguage: defaultTranslationTarget,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Export: Export{
			Sink:        defaultExportSink,
			SheetsRange: defaultSheetsRange,
		},
		Server: Server{
			Bind:                defaultServerBind,
			ReadTimeoutSeconds:  defaultServerReadTimeout,
			WriteTimeoutSeconds: defaultServerWriteTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
