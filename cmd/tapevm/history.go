package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [flags] [program]",
	Short: "Show recorded benchmark results",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of results to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	program := ""
	if len(args) == 1 {
		program = args[0]
	}

	path := cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "no history at %s\n", path)
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), program, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no results recorded")
		return nil
	}

	t := &table{}
	t.add("started", "run", "program", "n", "strategy", "iters", "per iter", "result")
	for _, e := range entries {
		t.add(e.Started.Local().Format(time.DateTime), shortID(e.RunID), e.Program,
			strconv.Itoa(e.N), string(e.Strategy), strconv.Itoa(e.Iterations),
			e.PerIteration().String(), e.Result)
	}
	t.render(cmd.OutOrStdout(), !isTerminal(os.Stdout))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
