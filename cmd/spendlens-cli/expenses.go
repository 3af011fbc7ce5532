package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spendlens/internal/analytics"
	"spendlens/internal/receipt"
	"spendlens/internal/services"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Record expenses from free text, e.g. \"pizza 700 uber 300\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := userID()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			created, err := a.expenses.AddFromText(cmd.Context(), user, strings.Join(args, " "), viper.GetString("add.date"))
			if errors.Is(err, services.ErrNothingParsed) {
				warn("Could not understand any expense in the input.\n")
				return nil
			}
			if err != nil {
				return err
			}
			printExpenses(created, a.aggregator.Ceilings().Currency)
			return nil
		},
	}
	cmd.Flags().String("date", "", "backdate the expenses (YYYY-MM-DD)")
	_ = viper.BindPFlag("add.date", cmd.Flags().Lookup("date"))
	return cmd
}

func receiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipt <image-or-text-file>",
		Short: "Record the items of a receipt image (OCR) or of its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := userID()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var ocr receipt.TextExtractor = receipt.NewTesseract(a.cfg.TesseractPath, a.cfg.OCRTimeout)
			if viper.GetBool("receipt.text") {
				ocr = receipt.StaticText(data)
			}
			res, err := services.NewReceiptService(a.expenses, ocr).ProcessImage(cmd.Context(), user, data)
			if errors.Is(err, services.ErrNothingParsed) {
				warn("No amounts found on the receipt, nothing recorded.\n")
				return nil
			}
			if err != nil {
				return err
			}
			if res.Fallback {
				warn("No line items recognised, recorded the receipt total.\n")
			}
			printExpenses(res.Expenses, a.aggregator.Ceilings().Currency)
			return nil
		},
	}
	cmd.Flags().Bool("text", false, "the file already holds the receipt text")
	_ = viper.BindPFlag("receipt.text", cmd.Flags().Lookup("text"))
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarise the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := userID()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			sum, err := a.aggregator.Summary(cmd.Context(), user)
			if err != nil {
				return err
			}
			printSummary(sum, a.aggregator.Ceilings().Currency)
			return nil
		},
	}
}

func printSummary(sum analytics.Summary, currency string) {
	heading("Spending for " + sum.Month)
	fmt.Printf("Total:    %s %s\n", currency, sum.Total.Grouped())
	fmt.Printf("Forecast: %s %s\n\n", currency, sum.Forecast.Grouped())

	for _, row := range sum.Breakdown {
		fmt.Printf("%s %s %s\n", catLabel(" %-22s ", row.Category), currency, row.Amount.Grouped())
	}

	if len(sum.Anomalies) > 0 {
		fmt.Println()
		heading("Unusual expenses")
		for _, a := range sum.Anomalies {
			warn("  %s\n", a)
		}
	}

	fmt.Println()
	heading("Suggestions")
	for _, s := range sum.Suggestions {
		if strings.HasPrefix(s, "Alert") || strings.HasPrefix(s, "Warning") {
			warn("  %s\n", s)
			continue
		}
		fmt.Printf("  %s\n", s)
	}
}
