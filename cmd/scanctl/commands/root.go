package commands

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	token     string
	timeout   time.Duration

	api *client
)

func Execute() error {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "scanctl",
		Short:         "Operator CLI for the ScanCheckout service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			api = newClient(serverURL, token, timeout)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("SCANCTL_SERVER", "http://localhost:3000"), "service base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("SCANCTL_TOKEN"), "terminal access token (default $SCANCTL_TOKEN)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(tokenCmd(), catalogCmd(), terminalCmd(), sessionCmd(), receiptCmd(), feedCmd(), watchCmd())
	return root.Execute()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
