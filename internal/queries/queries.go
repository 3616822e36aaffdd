// Package queries builds the ordered search query list for a topic.
package queries

import "strings"

var expandSuffixes = []string{
	"shorts",
	"tips",
	"tutorial",
	"how to",
	"quick guide",
	"highlights",
	"examples",
}

var extendSuffixes = []string{
	"beginner",
	"advanced",
	"mistakes",
	"checklist",
	"2024",
	"2025",
}

// Expand returns the trimmed topic followed by its suffix variants. The
// language is accepted so callers can pass request parameters straight
// through; it does not change the output.
func Expand(topic, language string) []string {
	base := strings.TrimSpace(topic)
	if base == "" {
		return nil
	}
	variants := make([]string, 0, len(expandSuffixes)+1)
	variants = append(variants, base)
	for _, suffix := range expandSuffixes {
		variants = append(variants, base+" "+suffix)
	}
	return dedupe(variants)
}

// Extend appends the second round of variants to existing and removes
// duplicates, keeping first occurrences. Existing entries are never dropped
// or reordered.
func Extend(topic string, existing []string, language string) []string {
	base := strings.TrimSpace(topic)
	merged := make([]string, 0, len(existing)+len(extendSuffixes))
	merged = append(merged, existing...)
	if base != "" {
		for _, suffix := range extendSuffixes {
			merged = append(merged, base+" "+suffix)
		}
	}
	return dedupe(merged)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	unique := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
