package temporal

import (
	"fmt"
	"log/slog"
	"sort"
)

// DuplicatePolicy decides what happens when two columns of one source carry
// the same snapshot date and metric.
type DuplicatePolicy string

const (
	// KeepFirst keeps the first encountered column as the cluster member and
	// passes the later ones through as unclustered columns.
	KeepFirst DuplicatePolicy = "keep_first"
	// KeepLast keeps the last encountered column and passes earlier ones through.
	KeepLast DuplicatePolicy = "keep_last"
	// KeepAll keeps every duplicate in the cluster, in encounter order.
	KeepAll DuplicatePolicy = "keep_all"
)

// ParseDuplicatePolicy maps a configuration value to a policy. Empty selects KeepFirst.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case "", KeepFirst:
		return KeepFirst, nil
	case KeepLast, KeepAll:
		return DuplicatePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Cluster is the chronologically ordered set of columns measuring one metric.
type Cluster struct {
	MetricID string
	Members  []ColumnTag
}

// Key returns the normalised metric identifier.
func (c Cluster) Key() string {
	return NormalizeName(c.MetricID)
}

// Columns returns the member column names in ascending date order.
func (c Cluster) Columns() []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.RawName
	}
	return out
}

// Labels returns the MM/DD/YYYY label of each member.
func (c Cluster) Labels() []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.DisplayLabel()
	}
	return out
}

// Layout is the outcome of cluster assembly: the final column order plus the
// pieces it was built from.
type Layout struct {
	Order           []string
	IdentityColumns []string
	Clusters        []Cluster
	// Unclustered holds opaque columns and demoted duplicates in their
	// original relative order.
	Unclustered []string
}

// ClusterFor returns the cluster whose metric matches metric under NormalizeName.
func (l Layout) ClusterFor(metric string) (Cluster, bool) {
	key := NormalizeName(metric)
	for _, c := range l.Clusters {
		if c.Key() == key {
			return c, true
		}
	}
	return Cluster{}, false
}

type partition struct {
	metric  string
	members []ColumnTag
}

// Assemble groups dated tags into clusters and computes the column order:
// identity columns (configured order), then cluster members (clusters in
// priority order, unlisted metrics after them in first-encountered order,
// members ascending by date), then unclustered columns in original order.
// With no dated columns the input order is returned unchanged.
func Assemble(tags []ColumnTag, priority []string, policy DuplicatePolicy, logger *slog.Logger) Layout {
	logger = loggerOrDiscard(logger)

	var layout Layout
	var unclustered []ColumnTag
	var identity []ColumnTag
	partitions := make(map[string]*partition)
	var encounter []string

	for _, tag := range tags {
		switch tag.Kind() {
		case KindDated:
			key := tag.MetricKey()
			p, ok := partitions[key]
			if !ok {
				p = &partition{metric: tag.MetricID}
				partitions[key] = p
				encounter = append(encounter, key)
			}
			p.members = append(p.members, tag)
		case KindIdentity:
			identity = append(identity, tag)
		default:
			unclustered = append(unclustered, tag)
		}
	}

	sort.SliceStable(identity, func(i, j int) bool {
		return identity[i].IdentitySlot < identity[j].IdentitySlot
	})
	for _, tag := range identity {
		layout.IdentityColumns = append(layout.IdentityColumns, tag.RawName)
	}

	if len(partitions) == 0 {
		logger.Info("No dated columns found, keeping source column order",
			slog.Int("columns", len(tags)))
		for _, tag := range tags {
			layout.Order = append(layout.Order, tag.RawName)
		}
		for _, tag := range unclustered {
			layout.Unclustered = append(layout.Unclustered, tag.RawName)
		}
		return layout
	}

	emitted := make(map[string]bool, len(partitions))
	var keys []string
	for _, metric := range priority {
		key := NormalizeName(metric)
		if _, ok := partitions[key]; ok && !emitted[key] {
			keys = append(keys, key)
			emitted[key] = true
		}
	}
	for _, key := range encounter {
		if !emitted[key] {
			keys = append(keys, key)
			emitted[key] = true
		}
	}

	for _, key := range keys {
		p := partitions[key]
		sort.SliceStable(p.members, func(i, j int) bool {
			return p.members[i].Date.Before(p.members[j].Date)
		})
		members, demoted := resolveDuplicates(p.members, policy)
		for _, d := range demoted {
			logger.Warn("Duplicate snapshot column demoted to unclustered",
				slog.String("column", d.RawName),
				slog.String("metric", p.metric),
				slog.String("date_token", d.Token),
				slog.String("policy", string(policy)))
		}
		unclustered = append(unclustered, demoted...)
		layout.Clusters = append(layout.Clusters, Cluster{MetricID: p.metric, Members: members})
	}

	sort.SliceStable(unclustered, func(i, j int) bool {
		return unclustered[i].Position < unclustered[j].Position
	})
	for _, tag := range unclustered {
		layout.Unclustered = append(layout.Unclustered, tag.RawName)
	}

	layout.Order = append(layout.Order, layout.IdentityColumns...)
	for _, c := range layout.Clusters {
		layout.Order = append(layout.Order, c.Columns()...)
	}
	layout.Order = append(layout.Order, layout.Unclustered...)

	logger.Info("Clusters assembled",
		slog.Int("clusters", len(layout.Clusters)),
		slog.Int("identity_columns", len(layout.IdentityColumns)),
		slog.Int("unclustered_columns", len(layout.Unclustered)))
	return layout
}

// resolveDuplicates applies policy to members already sorted by date, where
// equal dates are adjacent and in encounter order.
func resolveDuplicates(members []ColumnTag, policy DuplicatePolicy) (kept, demoted []ColumnTag) {
	if policy == KeepAll {
		return members, nil
	}
	for start := 0; start < len(members); {
		end := start + 1
		for end < len(members) && members[end].Date.Equal(members[start].Date) {
			end++
		}
		winner := start
		if policy == KeepLast {
			winner = end - 1
		}
		for i := start; i < end; i++ {
			if i == winner {
				kept = append(kept, members[i])
			} else {
				demoted = append(demoted, members[i])
			}
		}
		start = end
	}
	return kept, demoted
}
