package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/spf13/cobra"
)

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the available styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCAPTION\tFILE")
			for _, s := range cartoon.DefaultRegistry().Styles() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID(), s.Caption, s.Filename())
			}
			return tw.Flush()
		},
	}
}
