// Command spendlens-cli trains the classifier and runs the expense
// workflows from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spendlens/internal/cli"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "spendlens-cli",
		Short: "Track, classify and analyse expenses from the terminal",
		Long: `spendlens-cli records expenses from free text and receipts, classifies
them into spending categories and reports on the current month.

Settings come from flags, SPENDLENS_* environment variables, an optional
config file, and finally the server's own environment (.env included).`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./spendlens.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().Int64P("user", "u", 1, "user id the expenses belong to")
	rootCmd.PersistentFlags().String("model", "", "model artifact path (overrides MODEL_PATH)")
	rootCmd.PersistentFlags().String("model-kind", "", "model kind: sgd or bayes (overrides MODEL_KIND)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides SQLITE_DB_PATH)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	_ = viper.BindPFlag("model.path", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("model.kind", rootCmd.PersistentFlags().Lookup("model-kind"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(receiptCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(chatCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		errorf(" %v \n", err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("spendlens")
	}
	viper.SetEnvPrefix("SPENDLENS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cli.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format"))
	return nil
}
