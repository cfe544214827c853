package main

import "github.com/spf13/cobra"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Breadth-first web crawler",
		Long: `crawler visits pages breadth-first from a set of start URLs, runs a page
function on every loaded page and follows the links it discovers, bounded by
depth, links per page and an optional page budget.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
