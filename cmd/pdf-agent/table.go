package main

import (
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/pipeline"
)

// renderSummary lays out one row per processed file plus status totals.
func renderSummary(sum pipeline.Summary) string {
	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"File", "Status", "Category", "Destination", "Reason"})

	for _, o := range sum.Outcomes {
		dest := o.New
		if dest == "" {
			dest = "-"
		}
		tw.AppendRow(table.Row{filepath.Base(o.Original), string(o.Status), o.Category, dest, string(o.Reason)})
	}

	totals := fmt.Sprintf("%d organized, %d skipped, %d failed",
		sum.Count(constants.StatusOrganized),
		sum.Count(constants.StatusSkipped),
		sum.Count(constants.StatusFailed),
	)
	if sum.Interrupted {
		totals += " (interrupted)"
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d files", len(sum.Outcomes)), totals, "", "", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AlignHeader: text.AlignLeft},
		{Number: 2, AlignHeader: text.AlignLeft},
		{Number: 4, AlignHeader: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}
