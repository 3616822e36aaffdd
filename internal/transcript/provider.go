package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"shortscout/internal/config"
	"shortscout/internal/services"
)

// Provider returns the transcript text for a video id.
type Provider interface {
	Fetch(ctx context.Context, videoID, language string) (string, error)
}

// New builds the provider named by cfg.Provider.
func New(cfg config.Transcripts, logger *slog.Logger) (Provider, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.TranscriptProviderStub:
		return Stub{}, nil
	case config.TranscriptProviderYouTube, "":
		return NewYouTube(YouTubeOptions{Languages: cfg.Languages, Timeout: timeout}, logger), nil
	case config.TranscriptProviderYTDLP:
		return NewYTDLP(YTDLPOptions{Binary: cfg.YTDLPBinary, Languages: cfg.Languages, Timeout: timeout}, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcript", "select provider",
			fmt.Sprintf("unsupported provider %q", cfg.Provider), nil)
	}
}

// Stub never finds a transcript.
type Stub struct{}

// Fetch returns an empty transcript.
func (Stub) Fetch(context.Context, string, string) (string, error) {
	return "", nil
}

// ExtractVideoID returns the video id from watch, shorts, and youtu.be URLs.
// Any other URL yields an empty string.
func ExtractVideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtu.be":
		return segments[0]
	case "youtube.com", "music.youtube.com":
		if segments[0] == "watch" {
			return u.Query().Get("v")
		}
		if (segments[0] == "shorts" || segments[0] == "embed") && len(segments) > 1 {
			return segments[1]
		}
	}
	return ""
}

// preferredLanguages puts the requested language ahead of the configured ones.
func preferredLanguages(language string, configured []string) []string {
	seen := make(map[string]struct{}, len(configured)+1)
	out := make([]string, 0, len(configured)+1)
	for _, lang := range append([]string{language}, configured...) {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	if len(out) == 0 {
		out = append(out, "en")
	}
	return out
}

// joinLines collapses whitespace inside each line, drops blanks and
// consecutive repeats, and joins the rest with single spaces.
func joinLines(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if n := len(parts); n > 0 && parts[n-1] == line {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
