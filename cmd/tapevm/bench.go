package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/bench"
	"github.com/chazu/tapevm/pkg/history"
	"github.com/chazu/tapevm/pkg/programs"
)

var benchCmd = &cobra.Command{
	Use:   "bench [flags] [program...]",
	Short: "Time the execution strategies on sample programs",
	Long: `Bench runs every selected strategy on each named sample (all samples
when none are named), checks that each produced the native result and
prints a comparison table. Results are stored in the history database
unless --record=false or history is disabled in tapevm.toml.`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Int("n", 0, "sample size (default from tapevm.toml, then the sample's own)")
	benchCmd.Flags().Int("iterations", 0, "executions per strategy (default from tapevm.toml)")
	benchCmd.Flags().Int("workers", 0, "goroutines per strategy (default from tapevm.toml, then GOMAXPROCS)")
	benchCmd.Flags().StringSlice("strategy", nil, "strategies to run (native,closure,tape)")
	benchCmd.Flags().Bool("record", true, "store results in the history database")
}

func runBench(cmd *cobra.Command, args []string) error {
	opts, err := benchOptions(cmd)
	if err != nil {
		return err
	}
	record, _ := cmd.Flags().GetBool("record")
	record = record && cfg.History.Enabled

	samples, err := selectSamples(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var all []bench.Result
	for _, s := range samples {
		results, err := bench.Run(ctx, s, opts)
		if err != nil {
			return err
		}
		all = append(all, results...)
	}

	renderResults(cmd, all)

	if record && len(all) > 0 {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Record(ctx, all); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dimColor.Sprintf("recorded run %s in %s", all[0].RunID, store.Path()))
	}
	return nil
}

// benchOptions merges flags over the tapevm.toml defaults.
func benchOptions(cmd *cobra.Command) (bench.Options, error) {
	opts := bench.Options{
		N:          cfg.Bench.N,
		Iterations: cfg.Bench.Iterations,
		Workers:    cfg.Bench.Workers,
	}
	flags := cmd.Flags()
	if flags.Changed("n") {
		opts.N, _ = flags.GetInt("n")
	}
	if flags.Changed("iterations") {
		opts.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("workers") {
		opts.Workers, _ = flags.GetInt("workers")
	}

	names := cfg.Bench.Strategies
	if flags.Changed("strategy") {
		names, _ = flags.GetStringSlice("strategy")
	}
	strategies, err := bench.ParseStrategies(names)
	if err != nil {
		return opts, err
	}
	opts.Strategies = strategies
	return opts, nil
}

func selectSamples(names []string) ([]programs.Sample, error) {
	if len(names) == 0 {
		return programs.All(), nil
	}
	samples := make([]programs.Sample, 0, len(names))
	for _, name := range names {
		s, ok := programs.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown program %q", name)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// renderResults prints one row per result. The fastest strategy of each
// program is highlighted; ratios are relative to that program's first
// strategy.
func renderResults(cmd *cobra.Command, results []bench.Result) {
	t := &table{}
	t.add("program", "n", "strategy", "iters", "workers", "compile", "per iter", "ratio", "result")

	baseline := map[string]time.Duration{}
	fastest := map[string]int{}
	for i, r := range results {
		if _, ok := baseline[r.Program]; !ok {
			baseline[r.Program] = r.PerIteration()
		}
		if j, ok := fastest[r.Program]; !ok || r.PerIteration() < results[j].PerIteration() {
			fastest[r.Program] = i
		}
	}

	for i, r := range results {
		ratio := "-"
		if base := baseline[r.Program]; base > 0 {
			ratio = strconv.FormatFloat(float64(r.PerIteration())/float64(base), 'f', 2, 64) + "x"
		}
		t.add(r.Program, strconv.Itoa(r.N), string(r.Strategy),
			strconv.Itoa(r.Iterations), strconv.Itoa(r.Workers),
			r.Compile.String(), r.PerIteration().String(), ratio, r.Value.String())
		if fastest[r.Program] == i {
			t.mark(i+1, 6)
		}
	}
	t.render(cmd.OutOrStdout(), !isTerminal(os.Stdout))
}
