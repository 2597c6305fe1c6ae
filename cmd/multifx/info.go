package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/cwbudde/algo-multifx/dsp/effectchain"
	"github.com/cwbudde/algo-multifx/internal/params"
	"github.com/spf13/cobra"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the automation parameters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMIN\tMAX\tSTEP\tDEFAULT\tUNIT")

		for _, p := range params.Layout() {
			if p.Kind == params.KindChoice {
				fmt.Fprintf(w, "%s\t%s\t%s\t\t%s\t\n",
					p.ID, p.Choices[0], p.Choices[len(p.Choices)-1], p.Format(p.Default))
				continue
			}

			fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%s\n",
				p.ID, p.Range.Min, p.Range.Max, p.Range.Step, p.Default, p.Unit)
		}

		return w.Flush()
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the effect names usable in orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, opt := range effectchain.Effects() {
			fmt.Fprintln(out, opt)
		}

		_, err := fmt.Fprintf(out, "default order: %s\n", effectchain.DefaultOrder())

		return err
	},
}
