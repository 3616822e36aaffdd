package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"shortscout/internal/logging"
	"shortscout/internal/services"
)

const (
	defaultWatchBaseURL = "https://www.youtube.com"
	playerResponseMark  = "ytInitialPlayerResponse = "
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes        = 8 << 20
)

// YouTubeOptions configures the watch page scraper.
type YouTubeOptions struct {
	// BaseURL replaces https://www.youtube.com, mainly for tests.
	BaseURL    string
	Languages  []string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// YouTube reads caption tracks from the public watch page.
type YouTube struct {
	baseURL   string
	languages []string
	client    *http.Client
	logger    *slog.Logger
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type timedText struct {
	Lines      []string `xml:"text"`
	Paragraphs []string `xml:"body>p"`
}

// NewYouTube constructs the watch page provider.
func NewYouTube(opts YouTubeOptions, logger *slog.Logger) *YouTube {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultWatchBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &YouTube{
		baseURL:   base,
		languages: opts.Languages,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "transcript"),
	}
}

// Fetch downloads the watch page, picks the best caption track, and returns
// its text. Videos without captions yield an empty transcript.
func (y *YouTube) Fetch(ctx context.Context, videoID, language string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", services.Wrap(services.ErrValidation, "transcript", "fetch", "video id is required", nil)
	}
	langs := preferredLanguages(language, y.languages)

	watchURL := y.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := y.get(ctx, watchURL)
	if err != nil {
		return "", err
	}
	tracks, err := captionTracks(body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcript", "parse watch page", videoID, err)
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		y.logger.Debug("no caption tracks",
			logging.VideoID(videoID),
			logging.Int("track_count", len(tracks)),
		)
		return "", nil
	}

	trackURL, err := y.resolve(track.BaseURL)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcript", "resolve track", videoID, err)
	}
	raw, err := y.get(ctx, trackURL)
	if err != nil {
		return "", err
	}
	text, err := parseTimedText(raw)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcript", "parse timedtext", videoID, err)
	}
	y.logger.Debug("transcript fetched",
		logging.VideoID(videoID),
		logging.String("language", track.LanguageCode),
		logging.String("kind", track.Kind),
		logging.Int("chars", len(text)),
	)
	return text, nil
}

func (y *YouTube) resolve(ref string) (string, error) {
	base, err := url.Parse(y.baseURL + "/")
	if err != nil {
		return "", err
	}
	target, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(target).String(), nil
}

func (y *YouTube) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "build request", target, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := y.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "transcript", "http get", "", err)
		}
		return nil, services.Wrap(services.ErrTransient, "transcript", "http get", "", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "transcript", "http get", resp.Status, nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, services.Wrap(services.ErrTransient, "transcript", "http get", resp.Status, nil)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcript", "read body", "", err)
	}
	return body, nil
}

// captionTracks finds the inline player response script and decodes its
// caption track list.
func captionTracks(page []byte) ([]captionTrack, error) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	script := findScript(doc, playerResponseMark)
	if script == "" {
		return nil, nil
	}
	start := strings.Index(script, playerResponseMark) + len(playerResponseMark)
	var player playerResponse
	if err := json.NewDecoder(strings.NewReader(script[start:])).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return player.Captions.Renderer.CaptionTracks, nil
}

func findScript(n *html.Node, marker string) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		if text := sb.String(); strings.Contains(text, marker) {
			return text
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findScript(c, marker); found != "" {
			return found
		}
	}
	return ""
}

// pickBestTrack prefers manual captions in a preferred language, then
// auto-generated ones, then any English track, then the first usable track.
// Tracks that demand a proof-of-origin token are skipped.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL == "" || strings.Contains(t.BaseURL, "&exp=xpe") {
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if strings.EqualFold(t.LanguageCode, lang) && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if strings.EqualFold(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(strings.ToLower(t.LanguageCode), "en") {
			return t, true
		}
	}
	return usable[0], true
}

// parseTimedText reads both the legacy <transcript><text> layout and the
// srv3 <timedtext><body><p> layout. Entities are double-escaped upstream.
func parseTimedText(raw []byte) (string, error) {
	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	lines := append(doc.Lines, doc.Paragraphs...)
	for i, line := range lines {
		lines[i] = html.UnescapeString(line)
	}
	return joinLines(lines), nil
}
