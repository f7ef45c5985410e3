package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/closure"
	"github.com/chazu/tapevm/pkg/value"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] (program|image.tvi)",
	Short: "Execute a sample program or image",
	Long: `Run executes a built-in sample or a compiled image and prints its
result followed by the final value of every global.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("n", 0, "sample size (default: the sample's own)")
	runCmd.Flags().String("strategy", "tape", "execution strategy (tape|closure)")
	runCmd.Flags().Bool("trace", false, "trace every dispatched opcode to stderr")
	runCmd.Flags().Bool("time", false, "print execution time")
}

func runRun(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("n")
	strategy, _ := cmd.Flags().GetString("strategy")
	trace, _ := cmd.Flags().GetBool("trace")
	showTime, _ := cmd.Flags().GetBool("time")

	src, err := loadSource(args[0], n)
	if err != nil {
		return err
	}

	var (
		result  value.Value
		globals []value.Value
		names   []string
	)
	started := time.Now()

	switch strategy {
	case "tape":
		ctx := src.program.NewContext()
		if trace {
			ctx.SetTrace(os.Stderr)
		}
		result, err = ctx.Execute()
		globals, names = ctx.Globals(), src.program.Globals

	case "closure":
		if src.tree == nil {
			return fmt.Errorf("the closure strategy needs a sample program, not an image")
		}
		if trace {
			return fmt.Errorf("--trace is only supported by the tape strategy")
		}
		var p *closure.Program
		p, err = closure.Compile(src.tree)
		if err != nil {
			return err
		}
		f := p.NewFrame()
		result, err = p.Exec(f)
		globals, names = f.Globals(), p.Globals()

	default:
		return fmt.Errorf("unknown strategy %q (want tape or closure)", strategy)
	}
	elapsed := time.Since(started)
	if err != nil {
		return fmt.Errorf("%s: %w", src.name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resultColor.Sprint(result))
	printGlobals(out, names, globals)
	if showTime {
		fmt.Fprintln(out, dimColor.Sprintf("%s in %s", strategy, elapsed))
	}
	return nil
}
