package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// maxConsoleValue caps string values on console lines. Transcripts and
// descriptions stay intact in the JSON format.
const maxConsoleValue = 160

// consoleHandler renders one human-readable line per record:
//
//	2026-10-18 09:12:44 INFO [3f2b8c1e/discovery] youtube: search query="cooking tips"
//
// The bracketed run/stage tag appears only when the record carries them.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	attrs     []slog.Attr
	prefix    string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		clone.attrs = appendFlat(clone.attrs, h.prefix, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFlat(fields, h.prefix, attr)
		return true
	})

	var component, runID, stage string
	rest := fields[:0:0]
	for _, field := range fields {
		switch field.Key {
		case FieldComponent:
			component = field.Value.String()
		case FieldRunID:
			runID = field.Value.String()
		case FieldStage:
			stage = field.Value.String()
		default:
			rest = append(rest, field)
		}
	}

	var buf bytes.Buffer
	if !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006-01-02 15:04:05"))
		buf.WriteByte(' ')
	}
	buf.WriteString(levelLabel(record.Level))
	if tag := runTag(runID, stage); tag != "" {
		buf.WriteString(" [")
		buf.WriteString(tag)
		buf.WriteByte(']')
	}
	buf.WriteByte(' ')
	if component != "" {
		buf.WriteString(component)
		buf.WriteString(": ")
	}
	buf.WriteString(record.Message)
	for _, field := range rest {
		buf.WriteByte(' ')
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(consoleValue(field.Value))
	}
	if h.addSource && record.PC != 0 {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// appendFlat expands groups into dotted keys and drops empty attrs.
func appendFlat(dst []slog.Attr, prefix string, attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendFlat(dst, inner, member)
		}
		return dst
	}
	attr.Key = prefix + attr.Key
	return append(dst, attr)
}

func runTag(runID, stage string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	switch {
	case runID != "" && stage != "":
		return runID + "/" + stage
	case runID != "":
		return runID
	default:
		return stage
	}
}

func consoleValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().Round(time.Millisecond).String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if utf8.RuneCountInString(s) > maxConsoleValue {
		runes := []rune(s)
		s = string(runes[:maxConsoleValue-3]) + "..."
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
