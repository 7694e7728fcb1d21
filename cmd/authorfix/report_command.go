package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"authorfix/internal/validation"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var jobID string
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the audit report of a validation run",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, release, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer release()

			report, err := validation.LoadReport(cmd.Context(), st, jobID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				return report.WriteYAML(out)
			}

			fmt.Fprintf(out, "Job %s (%s): %d total, %d completed, %d not validated\n",
				report.JobID, report.Status, report.Total, report.Completed, report.NotValidated)
			if len(report.Issues) == 0 {
				return nil
			}

			fmt.Fprintln(out, renderIssueTable(report.Issues))
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Job id to report on (defaults to the most recent)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Emit the report as YAML")
	return cmd
}
