package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ebbc/internal/lir"
	"ebbc/internal/mir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <input>",
	Short: "Print a MIR or LIR program as text",
	Long: `Print a MIR program (.json or .mp) in its text form.
With --lir the input is a msgpack LIR program written by "ebbc lower --format msgpack".`,
	Args: cobra.ExactArgs(1),
	RunE: dumpExecution,
}

func init() {
	dumpCmd.Flags().Bool("lir", false, "input is an LIR msgpack program")
}

func dumpExecution(cmd *cobra.Command, args []string) error {
	isLIR, err := cmd.Flags().GetBool("lir")
	if err != nil {
		return err
	}
	path := args[0]

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()
	if isLIR {
		prog, err := lir.Decode(in)
		if err != nil {
			return err
		}
		return lir.Dump(out, prog)
	}

	format := mir.FormatJSON
	if path != "-" {
		if format, err = mir.FormatFromPath(path); err != nil {
			return err
		}
	}
	prog, err := mir.Decode(in, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return mir.Dump(out, prog)
}
