// tapevm runs, compiles, disassembles and benchmarks programs for the tape VM.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"github.com/chazu/tapevm/manifest"
)

// cfg is the loaded tapevm.toml, or the defaults.
var cfg = manifest.Default()

var rootCmd = &cobra.Command{
	Use:           "tapevm",
	Short:         "Tape-compiled expression VM",
	Long:          `tapevm compiles expression programs onto a flat tape and executes them with typed jump tables`,
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: setup,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.PersistentFlags().String("config", "", "directory containing tapevm.toml (default: search upward from cwd)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprint(os.Stderr, "Error:")
		fmt.Fprintf(os.Stderr, " %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	flags := cmd.Root().PersistentFlags()

	colorFlag, _ := flags.GetString("color")
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("unknown color mode %q (want auto, on or off)", colorFlag)
	}

	configDir, _ := flags.GetString("config")
	var err error
	if configDir != "" {
		cfg, err = manifest.Load(configDir)
	} else {
		cfg, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return err
	}

	verbosity, _ := flags.GetCount("verbose")
	commonlog.Configure(cfg.Log.Verbosity+verbosity, cfg.LogFile())
	return nil
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
