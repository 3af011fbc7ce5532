package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"spendlens/internal/cli"
	"spendlens/internal/segment"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <description>",
		Short: "Predict the category of a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			clf, err := cli.NewClassifier(cfg, nil)
			if err != nil {
				return err
			}
			defer clf.Close()

			p := clf.Predict(cmd.Context(), strings.Join(args, " "))
			fmt.Printf("%s  confidence %.2f  (%s", catLabel(" %s ", p.Category), p.Confidence, p.Source)
			if p.Rule != "" {
				fmt.Printf(": %s", p.Rule)
			}
			fmt.Println(")")
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how free text splits into expense items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			items := segment.Parse(strings.Join(args, " "))
			if len(items) == 0 {
				warn("Could not understand any expense in the input.\n")
				return nil
			}
			for i, it := range items {
				fmt.Printf("%2d. %s %s\n", i+1, padRight(it.Description, 30), it.Amount)
			}
			return nil
		},
	}
}
