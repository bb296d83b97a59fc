package temporal

import (
	"log/slog"
)

// Options configures Build.
type Options struct {
	Identity   []IdentityField
	Priority   []string
	Duplicates DuplicatePolicy
	// DropBlank removes rows that are blank across BlankCluster.
	DropBlank bool
	// BlankCluster names the metric used by DropBlank. Empty selects the
	// first priority metric present, else the first cluster.
	BlankCluster string
	// SortKey names the column rows are sorted by. Empty leaves row order.
	SortKey string
}

// Table is an assembled snapshot table ready to be written or charted.
type Table struct {
	Layout
	Rows  []Row
	Flags StaleFlags
}

// Columns returns the final column order.
func (t *Table) Columns() []string {
	return t.Layout.Order
}

// Values returns row i as positional strings in column order. Null cells are
// returned as the empty string.
func (t *Table) Values(i int) []string {
	out := make([]string, len(t.Order))
	for j, c := range t.Order {
		out[j] = t.Rows[i].Get(c).String()
	}
	return out
}

// Build runs the full column model over one sheet: tag, assemble clusters,
// optionally drop rows blank in the designated cluster, sort rows, and
// detect stale cells. Input rows are not modified.
func Build(columns []string, rows []Row, opts Options, logger *slog.Logger) *Table {
	logger = loggerOrDiscard(logger)

	policy := opts.Duplicates
	if policy == "" {
		policy = KeepFirst
	}

	tags := NewTagger(opts.Identity, logger).TagAll(columns)
	layout := Assemble(tags, opts.Priority, policy, logger)

	out := append([]Row(nil), rows...)
	if opts.DropBlank {
		if cluster, ok := blankCluster(layout, opts); ok {
			out = DropBlankInCluster(out, cluster, logger)
		} else {
			logger.Info("No cluster available for blank row removal, rows kept")
		}
	}

	out = SortRows(out, layout.Order, opts.SortKey, logger)

	return &Table{
		Layout: layout,
		Rows:   out,
		Flags:  DetectStale(out, layout.Clusters, logger),
	}
}

func blankCluster(layout Layout, opts Options) (Cluster, bool) {
	if opts.BlankCluster != "" {
		return layout.ClusterFor(opts.BlankCluster)
	}
	for _, metric := range opts.Priority {
		if c, ok := layout.ClusterFor(metric); ok {
			return c, true
		}
	}
	if len(layout.Clusters) > 0 {
		return layout.Clusters[0], true
	}
	return Cluster{}, false
}
