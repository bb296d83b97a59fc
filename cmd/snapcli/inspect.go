package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"snapcli/internal/report"
)

// inspectRow is one group's source choice
type inspectRow struct {
	Group    string    `json:"group"`
	Workbook string    `json:"workbook,omitempty"`
	From     string    `json:"recency_source,omitempty"`
	Recency  time.Time `json:"recency,omitempty"`
	Eligible int       `json:"eligible"`
	Note     string    `json:"note,omitempty"`
}

func newInspectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show which workbook each group would be built from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.shutdown()

			gen := report.New(a.cfg, a.logger)
			groups, err := gen.Groups()
			if err != nil {
				return err
			}

			loc, _ := a.cfg.Location()
			var rows []inspectRow
			for _, sel := range gen.Inspect(groups) {
				if !a.selected(sel.Group.Name) {
					continue
				}
				row := inspectRow{Group: sel.Group.Name, Eligible: sel.Eligible}
				if sel.Found {
					row.Workbook = sel.Candidate.Name
					row.From = string(sel.Candidate.Source)
					row.Recency = sel.Candidate.Recency.In(loc)
				} else if sel.Err != nil {
					row.Note = sel.Err.Error()
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			if a.opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			table := tablewriter.NewWriter(out)
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeader([]string{"Group", "Workbook", "Recency", "From", "Eligible", "Note"})
			for _, row := range rows {
				recency := ""
				if !row.Recency.IsZero() {
					recency = row.Recency.Format("2006-01-02 15:04")
				}
				table.Append([]string{row.Group, row.Workbook, recency, row.From, strconv.Itoa(row.Eligible), row.Note})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&a.opts.Groups, "group", "g", nil, "only inspect the named groups (repeatable)")
	return cmd
}
