package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spendlens/internal/assistant"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the budget assistant, e.g. \"how much did I spend on food\"",
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

			router := assistant.NewRouter(a.aggregator, a.aggregator.Ceilings().Currency)
			reply, err := router.Reply(cmd.Context(), user, os.Getenv("USER"), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(reply.Text)
			return nil
		},
	}
}
