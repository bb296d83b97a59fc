package temporal

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var repeatSuffixPattern = regexp.MustCompile(`^(.*\S) \((\d+)\)$`)

// RepeatHeader names the n-th occurrence (n >= 2) of a repeated header.
func RepeatHeader(name string, n int) string {
	return fmt.Sprintf("%s (%d)", name, n)
}

// BaseHeader strips the suffix added by RepeatHeader, returning name
// unchanged when it carries none.
func BaseHeader(name string) string {
	m := repeatSuffixPattern.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	if n, err := strconv.Atoi(m[2]); err != nil || n < 2 {
		return name
	}
	return m[1]
}

// NormalizeName folds a column, sheet or alias name into its lookup form:
// lowercase with all whitespace, underscores and hyphens removed, so
// "Vendor Name", "Vendor_Name" and "VendorName" fold together. All name
// matching in snapcli goes through it.
func NormalizeName(name string) string {
	joined := strings.Join(strings.Fields(strings.ToLower(name)), "")
	return strings.NewReplacer("_", "", "-", "").Replace(joined)
}

// SameName reports whether two names are equal under NormalizeName.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// FindColumn returns the first column in columns matching name under
// NormalizeName.
func FindColumn(columns []string, name string) (string, bool) {
	target := NormalizeName(name)
	for _, c := range columns {
		if NormalizeName(c) == target {
			return c, true
		}
	}
	return "", false
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func loggerOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discardLogger
	}
	return logger
}
