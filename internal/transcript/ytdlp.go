package transcript

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"shortscout/internal/logging"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
)

var vttTag = regexp.MustCompile(`<[^>]*>`)

// YTDLPOptions configures the yt-dlp provider.
type YTDLPOptions struct {
	Binary    string
	Languages []string
	Timeout   time.Duration
}

// YTDLP asks yt-dlp to write subtitles for a video and reads them back.
type YTDLP struct {
	binary    string
	languages []string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewYTDLP constructs the yt-dlp provider.
func NewYTDLP(opts YTDLPOptions, logger *slog.Logger) *YTDLP {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLP{
		binary:    binary,
		languages: opts.Languages,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "transcript"),
	}
}

// Binary returns the configured executable name.
func (p *YTDLP) Binary() string {
	return p.binary
}

// Fetch runs yt-dlp with subtitle download flags in a scratch directory and
// returns the text of the best matching subtitle file.
func (p *YTDLP) Fetch(ctx context.Context, videoID, language string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", services.Wrap(services.ErrValidation, "transcript", "fetch", "video id is required", nil)
	}
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcript", "locate yt-dlp",
			fmt.Sprintf("binary %q not found; install yt-dlp or set transcripts.ytdlp_binary", p.binary), err)
	}

	dir, err := os.MkdirTemp("", "shortscout-subs-")
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcript", "scratch dir", "", err)
	}
	defer os.RemoveAll(dir)

	langs := preferredLanguages(language, p.languages)
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", strings.Join(langs, ","),
		"--sub-format", "vtt",
		"--no-warnings",
		"--quiet",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		shorts.WatchURL(videoID),
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "transcript", "run yt-dlp", videoID, err)
		}
		return "", services.Wrap(services.ErrExternalTool, "transcript", "run yt-dlp",
			strings.TrimSpace(stderr.String()), err)
	}

	file := pickSubtitleFile(dir, langs)
	if file == "" {
		p.logger.Debug("yt-dlp wrote no subtitles", logging.VideoID(videoID))
		return "", nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "transcript", "read subtitles", file, err)
	}
	return parseVTT(raw), nil
}

// pickSubtitleFile matches files named <id>.<lang>.vtt against the language
// preference order, falling back to the first file found.
func pickSubtitleFile(dir string, langs []string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	for _, lang := range langs {
		for _, m := range matches {
			if strings.HasSuffix(strings.ToLower(m), "."+lang+".vtt") {
				return m
			}
		}
	}
	return matches[0]
}

// parseVTT drops the header, cue identifiers, timing lines, and inline tags.
func parseVTT(raw []byte) string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	inHeader := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if inHeader {
			if line == "" {
				inHeader = false
			}
			continue
		}
		switch {
		case line == "":
			continue
		case strings.Contains(line, "-->"):
			continue
		case isCueNumber(line):
			continue
		case strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"):
			continue
		}
		lines = append(lines, html.UnescapeString(vttTag.ReplaceAllString(line, "")))
	}
	return joinLines(lines)
}

func isCueNumber(line string) bool {
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
