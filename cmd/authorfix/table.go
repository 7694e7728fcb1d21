package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"authorfix/internal/validation"
)

// renderIssueTable formats a job's unresolved issues for the terminal.
// Profile ids are right-aligned so runs over large id ranges line up.
func renderIssueTable(issues []validation.Issue) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Profile", "Issue", "Candidates", "Detail"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	for _, issue := range issues {
		tw.AppendRow(table.Row{
			strconv.FormatInt(issue.ProfileID, 10),
			string(issue.Kind),
			formatIDs(issue.CandidateIDs),
			issue.Detail,
		})
	}
	return tw.Render()
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
