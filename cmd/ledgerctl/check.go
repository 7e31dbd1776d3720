package main

import (
	"encoding/json"
	"fmt"

	"github.com/mmdatafocus/travel_backend/workflow"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Ledger integrity commands",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify debits equal credits and invoices agree with their receipts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := workflow.RunReconciliationChecks(cmd.Context(), env.DB, env.Logger)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		if !report.OK() {
			return fmt.Errorf("reconciliation found %d invoice mismatch(es), balanced=%t",
				len(report.InvoiceMismatches), report.Balanced)
		}
		return nil
	},
}

func init() {
	ledgerCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(ledgerCmd)
}
