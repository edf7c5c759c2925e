package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "token <terminal-id>",
		Short: "Exchange a terminal secret for an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res struct {
				AccessToken string `json:"access_token"`
				ExpiresAt   int64  `json:"expires_at"`
			}

			err := api.post("/auth/token", map[string]string{
				"terminal_id": args[0],
				"secret":      secret,
			}, &res, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.AccessToken)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(res.ExpiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", envOr("SCANCTL_TERMINAL_SECRET", ""), "terminal secret (default $SCANCTL_TERMINAL_SECRET)")
	return cmd
}

func terminalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Manage checkout terminals",
	}

	var secret, adminKey string
	register := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a new terminal (requires the admin key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			err := api.post("/auth/terminals", map[string]string{
				"name":   args[0],
				"secret": secret,
			}, &res, map[string]string{"X-Admin-Key": adminKey})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	register.Flags().StringVar(&secret, "secret", "", "secret the terminal will log in with")
	register.Flags().StringVar(&adminKey, "admin-key", envOr("ADMIN_API_KEY", ""), "admin key (default $ADMIN_API_KEY)")
	_ = register.MarkFlagRequired("secret")

	cmd.AddCommand(register)
	return cmd
}
