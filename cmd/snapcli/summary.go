package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"snapcli/pkg/contracts/domain"
)

// printSummary writes the per-group outcome of a run
func printSummary(w io.Writer, format string, rep *domain.RunReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)
	table.SetHeader([]string{"Group", "Status", "Sheets", "Rows", "Dropped", "Stale", "Series", "Skipped", "Output / Reason"})

	for _, g := range rep.Groups {
		detail := g.Output
		if g.Status == domain.GroupStatusFailed || g.Status == domain.GroupStatusSkipped {
			detail = g.Error
		}
		table.Append([]string{
			g.Group,
			string(g.Status),
			strconv.Itoa(g.Counts.Sheets),
			strconv.Itoa(g.Counts.Rows),
			strconv.Itoa(g.Counts.RowsDropped),
			strconv.Itoa(g.Counts.StaleCells),
			strconv.Itoa(g.Counts.Series),
			strconv.Itoa(g.Counts.SeriesSkipped),
			detail,
		})
	}

	totals := rep.Totals()
	counts := rep.StatusCounts()
	table.SetFooter([]string{
		fmt.Sprintf("%d groups", len(rep.Groups)),
		fmt.Sprintf("%d failed", counts[domain.GroupStatusFailed]),
		strconv.Itoa(totals.Sheets),
		strconv.Itoa(totals.Rows),
		strconv.Itoa(totals.RowsDropped),
		strconv.Itoa(totals.StaleCells),
		strconv.Itoa(totals.Series),
		strconv.Itoa(totals.SeriesSkipped),
		"",
	})
	table.Render()

	if rep.DryRun {
		_, err := fmt.Fprintln(w, "dry run: no file was written")
		return err
	}
	return nil
}
