package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"authorfix/internal/validation"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	var profileID int64
	var groupID int64
	var accountID int64
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Apply one targeted binding outside the full pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			if profileID <= 0 {
				return errors.New("--profile-id is required")
			}
			if groupID <= 0 {
				return errors.New("--group-id is required")
			}

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
				AllowStandalone: cfg.Reconcile.AllowStandalone,
			})
			plan, err := runner.RepairBinding(cmd.Context(), profileID, groupID, accountID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if plan.Empty() {
				fmt.Fprintf(out, "Profile %d already consistent; nothing to repair\n", profileID)
				return nil
			}
			fmt.Fprintf(out, "Repaired profile %d: %d field changes, %d relationship inserts, %d relationship deletes\n",
				profileID, len(plan.Changes), len(plan.InsertRelationships), len(plan.DeleteRelationships))
			if showDiff {
				fmt.Fprintln(out, plan.Unified())
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&profileID, "profile-id", 0, "Author profile to repair")
	cmd.Flags().Int64Var(&groupID, "group-id", 0, "Display group to bind the profile to")
	cmd.Flags().Int64Var(&accountID, "account-id", 0, "Optional account to include in the binding")
	cmd.Flags().BoolVar(&showDiff, "show-diff", false, "Print the applied field diff")
	return cmd
}
