package temporal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// DateTokenLayout is the digit packing of the snapshot token: month, day, year.
const DateTokenLayout = "01022006"

// DisplayDateLayout is the layout used for chart labels.
const DisplayDateLayout = "01/02/2006"

var datedColumnPattern = regexp.MustCompile(`^\s*(\d{8})_(.+?)\s*$`)

// ColumnKind classifies a tagged column.
type ColumnKind int

const (
	KindOpaque ColumnKind = iota
	KindDated
	KindIdentity
)

func (k ColumnKind) String() string {
	switch k {
	case KindDated:
		return "dated"
	case KindIdentity:
		return "identity"
	default:
		return "opaque"
	}
}

// ColumnTag is the structured reading of one raw column name.
type ColumnTag struct {
	RawName string
	// Date and MetricID are set only for dated columns.
	Date     time.Time
	MetricID string
	// Token is the raw MMDDYYYY token of a dated column.
	Token      string
	IsIdentity bool
	// IdentitySlot is the index of the matched identity field in the
	// configured order, -1 when the column is not an identity column.
	IdentitySlot int
	// Position is the column's index in the source header.
	Position int
}

// Kind reports which of the three column classes the tag belongs to.
func (t ColumnTag) Kind() ColumnKind {
	switch {
	case t.MetricID != "":
		return KindDated
	case t.IsIdentity:
		return KindIdentity
	default:
		return KindOpaque
	}
}

// Dated reports whether the column carries a snapshot date and metric.
func (t ColumnTag) Dated() bool {
	return t.MetricID != ""
}

// MetricKey is the normalised metric identifier used to group columns.
func (t ColumnTag) MetricKey() string {
	return NormalizeName(t.MetricID)
}

// DisplayLabel renders the snapshot date as MM/DD/YYYY, or the raw name for
// columns without a date.
func (t ColumnTag) DisplayLabel() string {
	if !t.Dated() {
		return t.RawName
	}
	return t.Date.Format(DisplayDateLayout)
}

// IdentityField is one configured identity column with its accepted spellings.
type IdentityField struct {
	Name    string   `yaml:"name" validate:"required"`
	Aliases []string `yaml:"aliases"`
}

// Tagger parses raw column names into ColumnTags.
type Tagger struct {
	identity []IdentityField
	aliases  map[string]int
	logger   *slog.Logger
}

// NewTagger creates a tagger recognising the given identity fields. Each
// field matches its own name and every alias under NormalizeName.
func NewTagger(identity []IdentityField, logger *slog.Logger) *Tagger {
	aliases := make(map[string]int)
	for i, field := range identity {
		for _, name := range append([]string{field.Name}, field.Aliases...) {
			key := NormalizeName(name)
			if key == "" {
				continue
			}
			if _, taken := aliases[key]; !taken {
				aliases[key] = i
			}
		}
	}
	return &Tagger{
		identity: identity,
		aliases:  aliases,
		logger:   loggerOrDiscard(logger),
	}
}

// IdentityFields returns the configured identity fields in order.
func (t *Tagger) IdentityFields() []IdentityField {
	return t.identity
}

// Parse tags a single column name. An 8-digit prefix that is not a real
// calendar date leaves the column opaque; the event is logged as a warning.
// A repeated dated header ("01012024_LastWk (2)") is tagged with the metric
// of its first occurrence so the duplicate policy applies to it.
func (t *Tagger) Parse(name string) ColumnTag {
	tag := ColumnTag{RawName: name, IdentitySlot: -1}

	if m := datedColumnPattern.FindStringSubmatch(BaseHeader(name)); m != nil && strings.TrimSpace(m[2]) != "" {
		date, err := ParseDateToken(m[1])
		if err == nil {
			tag.Date = date
			tag.Token = m[1]
			tag.MetricID = strings.TrimSpace(m[2])
			return tag
		}
		t.logger.Warn("Column date token is not a calendar date, treating column as opaque",
			slog.String("column", name),
			slog.String("token", m[1]),
			slog.String("error", err.Error()))
		return tag
	}

	if slot, ok := t.aliases[NormalizeName(name)]; ok {
		tag.IsIdentity = true
		tag.IdentitySlot = slot
	}
	return tag
}

// TagAll parses every column of a header, recording header positions.
func (t *Tagger) TagAll(columns []string) []ColumnTag {
	tags := make([]ColumnTag, len(columns))
	for i, c := range columns {
		tag := t.Parse(c)
		tag.Position = i
		tags[i] = tag
	}
	return tags
}

// ParseDateToken decodes an MMDDYYYY token, rejecting impossible dates.
func ParseDateToken(token string) (time.Time, error) {
	if len(token) != 8 || strings.Trim(token, "0123456789") != "" {
		return time.Time{}, fmt.Errorf("date token %q is not 8 digits", token)
	}
	date, err := time.Parse(DateTokenLayout, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("date token %q: %w", token, err)
	}
	return date, nil
}

// FormatDateToken renders a date as an MMDDYYYY token.
func FormatDateToken(date time.Time) string {
	return date.Format(DateTokenLayout)
}

// DisplayLabel reformats a column's leading MMDDYYYY token as MM/DD/YYYY.
// Names without a valid token are returned unchanged.
func DisplayLabel(column string) string {
	m := datedColumnPattern.FindStringSubmatch(column)
	if m == nil {
		return column
	}
	date, err := ParseDateToken(m[1])
	if err != nil {
		return column
	}
	return date.Format(DisplayDateLayout)
}

// DatedColumnName builds the column name for a metric observed on date.
func DatedColumnName(date time.Time, metric string) string {
	return FormatDateToken(date) + "_" + metric
}
