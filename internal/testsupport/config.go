package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shortscout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.YouTube.APIKey = "test"
	cfgVal.Transcripts.Provider = config.TranscriptProviderStub
	cfgVal.Translation.Provider = config.TranslationProviderStub
	cfgVal.Export.Sink = config.SinkNone
	cfgVal.Export.SQLitePath = filepath.Join(base, "data", "shorts.db")
	cfgVal.Export.CSVDir = filepath.Join(base, "data", "exports")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithYouTubeKey sets the YouTube API key on the test config.
func WithYouTubeKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.APIKey = key
	}
}

// WithYouTubeBaseURL points the search provider at a test server.
func WithYouTubeBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.BaseURL = url
		b.cfg.YouTube.RequestsPerSecond = 1000
	}
}

// WithSink selects the export sink.
func WithSink(sink string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Sink = sink
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, yt-dlp is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteExecutable(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}
		PrependPath(b.t, binDir)
	}
}

// PrependPath puts dir at the front of PATH for the duration of the test.
func PrependPath(t testing.TB, dir string) {
	t.Helper()

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// WriteConfig encodes cfg as TOML into the test's base directory and returns
// the file path, for commands that load configuration themselves.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	return WriteFile(t, filepath.Join(BaseDir(cfg), "shortscout.toml"), string(data))
}
