package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "heavenctl",
		Short:        "Landlord Heaven admin and case console",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation prompt")
	root.PersistentFlags().StringVar(&a.token, "token", "", "bearer token (overrides HEAVEN_CONSOLE_TOKEN)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL (overrides HEAVEN_CONSOLE_BASE_URL)")

	root.AddCommand(
		accessCommand(a),
		ordersCommand(a),
		caseCommand(a),
		eventCommand(a),
	)
	return root
}
