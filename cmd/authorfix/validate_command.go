package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"authorfix/internal/validation"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var resume bool
	var force bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run or resume a full reconciliation pass over all author profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			provider, err := ctx.decisionProvider()
			if err != nil {
				return err
			}
			st, release, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer release()

			runner := validation.NewRunner(st, validation.Options{
				SlugPrefix:      cfg.Reconcile.SlugPrefix,
				Provider:        provider,
				Logger:          logger,
				Resume:          resume,
				Force:           force,
				AllowStandalone: cfg.Reconcile.AllowStandalone,
			})
			state, runErr := runner.Run(cmd.Context())

			out := cmd.OutOrStdout()
			if state != nil {
				fmt.Fprintf(out, "Job %s: %s\n", state.JobID, state.Status)
				fmt.Fprintf(out, "Completed %d of %d profiles, %d not validated\n",
					len(state.CompletedIDs), state.Total, len(state.NotValidatedIDs))
				if reportPath != "" {
					if err := writeReportFile(state, reportPath); err != nil {
						return err
					}
					fmt.Fprintf(out, "Report written to %s\n", reportPath)
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Resume an interrupted run instead of starting fresh")
	cmd.Flags().BoolVar(&force, "force", false, "Re-validate profiles that already carry the validated tag")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML report of the run to this path")
	return cmd
}

func writeReportFile(state *validation.State, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()
	return validation.BuildReport(state).WriteYAML(file)
}
