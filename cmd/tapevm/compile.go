package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/tapevm/pkg/image"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] program",
	Short: "Compile a sample program to an image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "output path (default: <program>.tvi)")
	compileCmd.Flags().String("format", "", "image encoding (cbor|msgpack, default from tapevm.toml)")
	compileCmd.Flags().Int("n", 0, "sample size (default: the sample's own)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	n, _ := cmd.Flags().GetInt("n")

	if formatName == "" {
		formatName = cfg.Image.Format
	}
	format, err := image.ParseFormat(formatName)
	if err != nil {
		return err
	}

	src, err := loadSource(args[0], n)
	if err != nil {
		return err
	}
	if src.tree == nil {
		return fmt.Errorf("%s is already an image", src.name)
	}

	if output == "" {
		output = filepath.Base(src.name) + ".tvi"
	}
	if err := image.Save(output, src.program, format); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d words, %d globals, %s)\n",
		output, len(src.program.Code), len(src.program.Globals), format)
	return nil
}
