package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"spendlens/internal/cli"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Retrain the classifier from the embedded corpus and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("training "+cfg.ModelKind),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			clf, err := cli.NewClassifier(cfg, func(class, epoch int) {
				bar.Describe(fmt.Sprintf("training %s: class %d, epoch %d", cfg.ModelKind, class+1, epoch+1))
				_ = bar.Add(1)
			})
			if err != nil {
				return err
			}
			defer clf.Close()

			start := time.Now()
			a, err := clf.Retrain(cmd.Context())
			_ = bar.Finish()
			if err != nil {
				return err
			}
			fmt.Printf("Trained %s model on %d examples in %s, saved to %s\n",
				a.Kind, a.Examples, time.Since(start).Round(time.Millisecond), cfg.ModelPath)
			return nil
		},
	}
}
