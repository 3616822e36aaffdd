package transcript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"shortscout/internal/config"
	"shortscout/internal/services"
	"shortscout/internal/testsupport"
)

const watchPage = `<!DOCTYPE html><html><head><title>video</title>
<script>window.flags = {};</script>
<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
	`{"baseUrl":"/api/timedtext?v=abc123&lang=de","languageCode":"de","kind":""},` +
	`{"baseUrl":"/api/timedtext?v=abc123&lang=en&kind=asr","languageCode":"en","kind":"asr"}` +
	`]}},"videoDetails":{"title":"x {braces}"}};var meta = {"a":1};</script>
</head><body></body></html>`

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=abc123&t=10":           "abc123",
		"https://www.youtube.com/shorts/short987?feature=share": "short987",
		"https://youtu.be/qwerty":                               "qwerty",
		"https://m.youtube.com/watch?v=mobile1":                 "mobile1",
		"https://example.com/video":                             "",
		"not a url":                                             "",
		"":                                                      "",
	}
	for raw, want := range cases {
		if got := ExtractVideoID(raw); got != want {
			t.Fatalf("ExtractVideoID(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestYouTubeFetchPicksPreferredTrack(t *testing.T) {
	var timedTextLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			if r.URL.Query().Get("v") != "abc123" {
				t.Errorf("unexpected video id %q", r.URL.Query().Get("v"))
			}
			_, _ = w.Write([]byte(watchPage))
		case "/api/timedtext":
			timedTextLang = r.URL.Query().Get("lang")
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8" ?><transcript>` +
				`<text start="0" dur="1">hello &amp;amp; welcome</text>` +
				`<text start="1" dur="1">it&amp;#39;s   the world</text></transcript>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	provider := NewYouTube(YouTubeOptions{BaseURL: server.URL, Languages: []string{"en"}}, nil)
	text, err := provider.Fetch(context.Background(), "abc123", "en")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if timedTextLang != "en" {
		t.Fatalf("expected en track, got %q", timedTextLang)
	}
	if text != "hello & welcome it's the world" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestYouTubeFetchWithoutCaptionsReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><script>var ytInitialPlayerResponse = {"videoDetails":{}};</script></html>`))
	}))
	defer server.Close()

	provider := NewYouTube(YouTubeOptions{BaseURL: server.URL}, nil)
	text, err := provider.Fetch(context.Background(), "abc123", "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty transcript, got %q", text)
	}
}

func TestYouTubeFetchNotFoundIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	provider := NewYouTube(YouTubeOptions{BaseURL: server.URL}, nil)
	_, err := provider.Fetch(context.Background(), "gone", "en")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatalf("expected non-fatal error, got kind %s", services.KindOf(err))
	}
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1&exp=xpe", LanguageCode: "fr"},
		{BaseURL: "u2", LanguageCode: "de", Kind: "asr"},
		{BaseURL: "u3", LanguageCode: "en-GB"},
		{BaseURL: "u4", LanguageCode: "de"},
	}
	tests := []struct {
		name  string
		langs []string
		want  string
	}{
		{name: "manual preferred", langs: []string{"de"}, want: "u4"},
		{name: "po token skipped", langs: []string{"fr"}, want: "u3"},
		{name: "english fallback", langs: []string{"ja"}, want: "u3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickBestTrack(tracks, tt.langs)
			if !ok || got.BaseURL != tt.want {
				t.Fatalf("pickBestTrack = %+v (%v), want %s", got, ok, tt.want)
			}
		})
	}
	if _, ok := pickBestTrack([]captionTrack{{BaseURL: "x&exp=xpe"}}, []string{"en"}); ok {
		t.Fatal("expected no usable track")
	}
}

func TestParseVTT(t *testing.T) {
	raw := "WEBVTT\nKind: captions\nLanguage: en\n\n" +
		"1\n00:00:00.000 --> 00:00:01.000 align:start\n<c>hello</c> there\n\n" +
		"00:00:01.000 --> 00:00:02.000\nhello there\n\n" +
		"NOTE internal\n\n" +
		"00:00:02.000 --> 00:00:03.000\nfish &amp; chips\n"
	if got := parseVTT([]byte(raw)); got != "hello there fish & chips" {
		t.Fatalf("parseVTT = %q", got)
	}
}

func TestYTDLPFetchReadsSubtitleFile(t *testing.T) {
	script := `#!/bin/sh
out=""
while [ "$#" -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
dir=$(dirname "$out")
printf 'WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nbonjour\n' > "$dir/abc123.fr.vtt"
printf 'WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhello from ytdlp\n' > "$dir/abc123.en.vtt"
`
	binary := testsupport.WriteExecutable(t, filepath.Join(t.TempDir(), "yt-dlp"), script)

	provider := NewYTDLP(YTDLPOptions{Binary: binary, Languages: []string{"fr"}}, nil)
	text, err := provider.Fetch(context.Background(), "abc123", "en")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if text != "hello from ytdlp" {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestYTDLPFailureIsTransient(t *testing.T) {
	binary := testsupport.WriteExecutable(t, filepath.Join(t.TempDir(), "yt-dlp"), "#!/bin/sh\necho boom >&2\nexit 1\n")

	_, err := NewYTDLP(YTDLPOptions{Binary: binary}, nil).Fetch(context.Background(), "abc123", "en")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if services.KindOf(err) != services.KindTransient {
		t.Fatalf("expected transient kind, got %s", services.KindOf(err))
	}
}

func TestYTDLPMissingBinaryIsConfiguration(t *testing.T) {
	provider := NewYTDLP(YTDLPOptions{Binary: "shortscout-missing-ytdlp"}, nil)
	_, err := provider.Fetch(context.Background(), "abc123", "en")
	if services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	cases := map[string]string{
		config.TranscriptProviderStub:    "transcript.Stub",
		config.TranscriptProviderYouTube: "*transcript.YouTube",
		config.TranscriptProviderYTDLP:   "*transcript.YTDLP",
	}
	for name, want := range cases {
		provider, err := New(config.Transcripts{Provider: name}, nil)
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", name, err)
		}
		if got := typeName(provider); got != want {
			t.Fatalf("New(%q) = %s, want %s", name, got, want)
		}
	}
	if _, err := New(config.Transcripts{Provider: "whisper"}, nil); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func typeName(p Provider) string {
	switch p.(type) {
	case Stub:
		return "transcript.Stub"
	case *YouTube:
		return "*transcript.YouTube"
	case *YTDLP:
		return "*transcript.YTDLP"
	default:
		return "unknown"
	}
}
