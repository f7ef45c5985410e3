package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/programs"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in sample programs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, s := range programs.All() {
		fmt.Fprintf(out, "%s %s %s\n", nameColor.Sprintf("%-10s", s.Name), s.Description,
			dimColor.Sprintf("(n=%d)", s.DefaultN))
	}
	return nil
}
