package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] (program|image.tvi)",
	Short: "Disassemble a sample program or image",
	Long: `Disasm decodes the tape back into source form. With --listing it
prints one instruction per line with tape offsets instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	disasmCmd.Flags().Bool("listing", false, "print an offset listing instead of source")
	disasmCmd.Flags().Int("n", 0, "sample size (default: the sample's own)")
}

func runDisasm(cmd *cobra.Command, args []string) error {
	listing, _ := cmd.Flags().GetBool("listing")
	n, _ := cmd.Flags().GetInt("n")

	src, err := loadSource(args[0], n)
	if err != nil {
		return err
	}

	var text string
	if listing {
		text, err = bytecode.Listing(src.program)
	} else {
		text, err = bytecode.Disassemble(src.program)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
