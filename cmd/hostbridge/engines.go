package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the embedded runtimes and their module extensions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			for _, name := range a.engines.List() {
				e, _ := a.engines.Get(name)
				fmt.Fprintf(a.stdout, "%-6s %s\n", CmdStyle.Render(name), SubtitleStyle.Render("*"+e.Extension()))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hostbridge", versionString())
		},
	}
}
