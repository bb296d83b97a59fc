package workbook

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSheetNameLength is the longest sheet name Excel accepts.
const MaxSheetNameLength = 31

var (
	invalidSheetChars = strings.NewReplacer(
		":", "_", "\\", "_", "/", "_", "?", "_",
		"*", "_", "[", "_", "]", "_",
	)
	nonWordChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// SafeSheetName turns base into a valid sheet name not already in existing.
// Forbidden characters become underscores. A name that is too long or taken
// is cut to 28 characters and, while still taken, suffixed with _1, _2, ...
// Comparison with existing names ignores case, as Excel does.
func SafeSheetName(base string, existing []string) string {
	base = strings.Trim(invalidSheetChars.Replace(base), "'")
	if base == "" {
		base = "Sheet"
	}

	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[strings.ToLower(name)] = true
	}

	if utf8.RuneCountInString(base) <= MaxSheetNameLength && !taken[strings.ToLower(base)] {
		return base
	}

	stem := truncate(base, MaxSheetNameLength-3)
	name := stem
	for i := 1; taken[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(stem, MaxSheetNameLength-len(suffix)) + suffix
	}
	return name
}

// WordsOnly strips every character outside [A-Za-z0-9_].
func WordsOnly(s string) string {
	return nonWordChars.ReplaceAllString(s, "")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
