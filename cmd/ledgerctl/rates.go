package main

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Inspect or change currency rates (base currency per unit)",
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the stored rate table",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := models.ListCurrencyRates(cmd.Context(), env.DB)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.Code, r.Rate.String(), r.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var ratesSetCmd = &cobra.Command{
	Use:     "set CODE=RATE...",
	Short:   "Manually update one or more rates",
	Example: "  ledgerctl rates set USD=3.6725 EUR=4.02",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseRateArgs(args)
		if err != nil {
			return err
		}
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := models.UpdateCurrencyRates(cmd.Context(), env.DB, env.Cache, 0, input)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", r.Code, r.Rate.String())
		}
		return nil
	},
}

func parseRateArgs(args []string) ([]models.NewCurrencyRate, error) {
	input := make([]models.NewCurrencyRate, 0, len(args))
	for _, arg := range args {
		code, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected CODE=RATE, got %q", arg)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", code, err)
		}
		input = append(input, models.NewCurrencyRate{Code: strings.ToUpper(strings.TrimSpace(code)), Rate: rate})
	}
	return input, nil
}

func init() {
	ratesCmd.AddCommand(ratesListCmd, ratesSetCmd)
	rootCmd.AddCommand(ratesCmd)
}
