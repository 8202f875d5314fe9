package nl2sql

import "strings"

const fence = "```"

// languageTags are the info strings models put after an opening fence.
var languageTags = map[string]bool{
	"sql":        true,
	"postgresql": true,
	"postgres":   true,
	"pgsql":      true,
	"psql":       true,
	"duckdb":     true,
}

// CleanSQL removes code fences (with an optional language tag), surrounding
// whitespace and a single trailing statement terminator.
func CleanSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(trimmed, fence); ok {
		trimmed = stripLanguageTag(rest)
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, fence))
	trimmed = strings.TrimSuffix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}

// stripLanguageTag drops a leading known tag. Anything else, including a bare
// SELECT on the fence line, is kept.
func stripLanguageTag(value string) string {
	word := value
	if end := strings.IndexAny(value, " \t\r\n`"); end >= 0 {
		word = value[:end]
	}
	if languageTags[strings.ToLower(word)] {
		return value[len(word):]
	}
	return value
}
