package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/workflow"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Invoice status maintenance",
}

var markOverdueCmd = &cobra.Command{
	Use:   "mark-overdue",
	Short: "Flag unpaid invoices whose due date has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOfStr, _ := cmd.Flags().GetString("as-of")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		if batchSize <= 0 {
			return fmt.Errorf("batch size must be positive")
		}
		asOf := time.Now().UTC()
		if asOfStr != "" {
			parsed, err := time.Parse("2006-01-02", asOfStr)
			if err != nil {
				return fmt.Errorf("invalid --as-of, use YYYY-MM-DD: %w", err)
			}
			asOf = parsed
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ledger := workflow.NewLedger(env)
		total := 0
		for {
			n, err := ledger.MarkOverdueInvoices(cmd.Context(), asOf, batchSize)
			if err != nil {
				return err
			}
			total += n
			if n < batchSize {
				break
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", total)
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute INVOICE_ID",
	Short: "Re-derive an invoice's total paid and status from its receipts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid invoice id %q", args[0])
		}
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		invoice, err := workflow.NewLedger(env).RecomputeInvoiceStatus(cmd.Context(), models.SystemScope(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, paid %s of %s\n",
			invoice.InvoiceNumber, invoice.Status, invoice.TotalPaid, invoice.TotalAmount)
		return nil
	},
}

func init() {
	markOverdueCmd.Flags().String("as-of", "", "Due-date cutoff (YYYY-MM-DD, default: now)")
	markOverdueCmd.Flags().Int("batch-size", 200, "Invoices updated per transaction")
	invoicesCmd.AddCommand(markOverdueCmd, recomputeCmd)
	rootCmd.AddCommand(invoicesCmd)
}
