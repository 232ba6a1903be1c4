package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HamletTheHamster/curvify/internal/model"
)

func newEvalCmd() *cobra.Command {
	var (
		xs   []float64
		sets map[string]string
	)

	cmd := &cobra.Command{
		Use:   "eval EXPRESSION",
		Short: "Evaluate a model expression",
		Long: `Compile EXPRESSION and print its value at each --x.

Parameters start at 1 unless set with --set, which accepts numbers and
multiples of pi.

Examples:
  curvify eval "a * sin(b * x)" --x 0,0.5,1 --set a=2,b=pi`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.Compile(args[0])
			if err != nil {
				return err
			}
			for name, v := range sets {
				if _, ok := m.Params().Get(name); !ok {
					return fmt.Errorf("unknown parameter %q", name)
				}
				if !m.Params().SetValueString(name, v) {
					return fmt.Errorf("invalid value %q for %s", v, name)
				}
			}

			out := cmd.OutOrStdout()
			for _, x := range xs {
				fmt.Fprintf(out, "%g\t%g\n", x, m.Eval(x))
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&xs, "x", []float64{0}, "points to evaluate at")
	cmd.Flags().StringToStringVar(&sets, "set", nil, "parameter values, name=value")
	return cmd
}
