package files

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FilenameTimestampLayout is how a run timestamp is packed into file names:
// MMDDYYYY_HH_MM.
const FilenameTimestampLayout = "01022006_15_04"

var filenameTimestampPattern = regexp.MustCompile(`(\d{8})_(\d{2})_(\d{2})`)

// RecencySource says where a candidate's recency key came from.
type RecencySource string

const (
	RecencyFilename RecencySource = "filename"
	RecencyModTime  RecencySource = "mtime"
)

// Candidate is a file ranked by the selector.
type Candidate struct {
	FileInfo
	Recency time.Time
	Source  RecencySource
}

// ParseFilenameTimestamp extracts the first valid MMDDYYYY_HH_MM timestamp
// embedded in name, interpreted in loc.
func ParseFilenameTimestamp(name string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, m := range filenameTimestampPattern.FindAllString(name, -1) {
		ts, err := time.ParseInLocation(FilenameTimestampLayout, m, loc)
		if err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// IsIgnored reports whether name contains any of the ignore substrings,
// case-insensitively.
func IsIgnored(name string, ignore []string) bool {
	lower := strings.ToLower(name)
	for _, s := range ignore {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Selector picks the most recent eligible workbook of a group.
type Selector struct {
	ignore   []string
	location *time.Location
	logger   *slog.Logger
}

// NewSelector creates a selector. Names containing any ignore substring are
// treated as produced artifacts and never selected.
func NewSelector(ignore []string, loc *time.Location, logger *slog.Logger) *Selector {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{ignore: ignore, location: loc, logger: logger}
}

// Rank returns the eligible candidates ordered by descending recency.
// Candidates with an embedded timestamp always rank above mtime-only ones;
// within each class newer comes first and equal keys keep listing order.
func (s *Selector) Rank(files []FileInfo) []Candidate {
	var ranked []Candidate
	for _, f := range files {
		if IsIgnored(f.Name, s.ignore) {
			s.logger.Debug("Ignoring produced artifact",
				slog.String("file", f.Name))
			continue
		}
		c := Candidate{FileInfo: f, Recency: f.ModTime, Source: RecencyModTime}
		if ts, ok := ParseFilenameTimestamp(f.Name, s.location); ok {
			c.Recency = ts
			c.Source = RecencyFilename
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Source == RecencyFilename, ranked[j].Source == RecencyFilename
		if si != sj {
			return si
		}
		return ranked[i].Recency.After(ranked[j].Recency)
	})
	return ranked
}

// Pick returns the most recent eligible candidate.
func (s *Selector) Pick(files []FileInfo) (Candidate, bool) {
	ranked := s.Rank(files)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	best := ranked[0]
	s.logger.Debug("Selected latest workbook",
		slog.String("file", best.Name),
		slog.String("recency_source", string(best.Source)),
		slog.Time("recency", best.Recency),
		slog.Int("eligible", len(ranked)))
	return best, true
}

// PickLatest returns the most recent file not matching an ignore substring,
// using local time for embedded timestamps.
func PickLatest(files []FileInfo, ignore []string) (FileInfo, bool) {
	c, ok := NewSelector(ignore, time.Local, nil).Pick(files)
	return c.FileInfo, ok
}
