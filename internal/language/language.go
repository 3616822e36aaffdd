package language

import (
	"errors"
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases covers English word forms and ISO 639-2/B codes, which BCP 47
// parsing does not accept. Terminology codes (eng, deu, zho) parse natively.
var aliases = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"turkish":    "tr",
	"indonesian": "id",
	"fre":        "fr",
	"ger":        "de",
	"chi":        "zh",
	"dut":        "nl",
}

// Normalize converts a language code, English word, or BCP 47 tag into the
// ISO 639-1 code the search provider expects for relevance filtering.
func Normalize(code string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return "", errors.New("language code is empty")
	}
	if mapped, ok := aliases[key]; ok {
		return mapped, nil
	}
	tag, err := xlanguage.Parse(key)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", code, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// NormalizeList lowercases and deduplicates caption language preferences.
// Words and three-letter codes collapse to ISO 639-1; regional variants such
// as "en-gb" are kept because caption tracks are published per variant.
func NormalizeList(codes []string) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		key := strings.ToLower(strings.TrimSpace(code))
		if key == "" {
			continue
		}
		if !strings.Contains(key, "-") && len(key) > 2 {
			if mapped, err := Normalize(key); err == nil {
				key = mapped
			}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// DisplayName returns the English name of a language, or the upper-cased
// input when it cannot be parsed.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	normalized, err := Normalize(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	base, err := xlanguage.ParseBase(normalized)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

// NormalizeRegion validates an ISO 3166-1 country code and returns it upper-cased.
func NormalizeRegion(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", errors.New("region code is empty")
	}
	region, err := xlanguage.ParseRegion(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse region %q: %w", code, err)
	}
	if !region.IsCountry() {
		return "", fmt.Errorf("region %q is not a country code", code)
	}
	return region.String(), nil
}
