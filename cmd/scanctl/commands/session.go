package commands

import (
	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage checkout sessions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return api.requireToken()
		},
	}

	var source string
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			if err := api.post("/checkout/sessions", map[string]string{"source": source}, &res, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	start.Flags().StringVar(&source, "source", "push", "frame source: push or snapshot")

	list := &cobra.Command{
		Use:   "list",
		Short: "List live sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			if err := api.get("/checkout/sessions", &res); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			if err := api.get("/checkout/sessions/"+args[0], &res); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	var bank string
	pay := &cobra.Command{
		Use:   "pay <session-id>",
		Short: "Pay the running total and reset the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			if err := api.post("/checkout/sessions/"+args[0]+"/pay", map[string]string{"bank": bank}, &res, nil); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	pay.Flags().StringVar(&bank, "bank", "", "issue a virtual account at this bank")

	stop := &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Tear a session down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res interface{}
			if err := api.delete("/checkout/sessions/"+args[0], &res); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.AddCommand(start, list, show, pay, stop)
	return cmd
}

func receiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <receipt-id>",
		Short: "Show a stored receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.requireToken(); err != nil {
				return err
			}
			var res interface{}
			if err := api.get("/checkout/receipts/"+args[0], &res); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
