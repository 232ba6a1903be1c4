package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HamletTheHamster/curvify/internal/library"
)

func newModelsCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the preset models",
		Long: `List the preset models in catalog order.

With --match, report which preset an expression corresponds to. Whitespace
is ignored when comparing.

Examples:
  curvify models
  curvify models --match "a*x+b"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("match") {
				i := library.FindModel(match)
				if i == library.NotFound {
					fmt.Fprintln(out, "no preset matches")
					return nil
				}
				e, _ := library.At(i)
				fmt.Fprintf(out, "%d\t%s\n", i, e.Name)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, e := range library.Entries() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i, e.Name, e.Expression)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "expression to look up among the presets")
	return cmd
}
