package commands

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type catalogItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [name]",
		Short: "List the catalog or show one product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var item catalogItem
				if err := api.get("/catalog/"+url.PathEscape(args[0]), &item); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), item)
			}

			var res struct {
				Products []catalogItem `json:"products"`
			}
			if err := api.get("/catalog", &res); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tPRICE")
			for _, p := range res.Products {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Name, p.Category, p.Price)
			}
			return w.Flush()
		},
	}
}
