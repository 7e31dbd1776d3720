// ledgerctl runs ledger maintenance against the configured database: manual
// currency rate updates, the overdue sweep and the reconciliation checks.
//
// Usage (same DB_* / REDIS_* env as the server):
//
//	go run ./cmd/ledgerctl rates set USD=3.6725 EUR=4.02
//	go run ./cmd/ledgerctl invoices mark-overdue
//	go run ./cmd/ledgerctl ledger check
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Maintenance commands for the travel ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// openEnv connects to the database and redis from the environment.
func openEnv(cmd *cobra.Command) (*config.Env, error) {
	config.LoadDotEnv()
	env, err := config.Open(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open environment: %w", err)
	}
	return env, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}
