package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/skdltmxn/demangle-go/demangle"
	"github.com/spf13/cobra"
)

var (
	outputFile string
	output     io.Writer

	noMicrosoft bool
	strict      bool
)

var rootCmd = &cobra.Command{
	Use:   "undecorate [flags] [name ...]",
	Short: "Demangle compiler-mangled symbol names",
	Long: `undecorate converts mangled linker symbol names back into
human-readable signatures.

It recognizes the Itanium C++, Rust v0, D, and Microsoft C++ mangling
schemes. Names are taken from the command line, or from stdin (one per
line) when no arguments are given. Unrecognized names are echoed
unchanged unless --strict is set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runNames(args)
		}
		return runReader(os.Stdin)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.Flags().BoolVar(&noMicrosoft, "no-ms", false, "skip the Microsoft C++ scheme")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "fail on names that do not demangle")
}

func runNames(names []string) error {
	for _, name := range names {
		if err := emit(name); err != nil {
			return err
		}
	}
	return nil
}

func runReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := emit(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func emit(name string) error {
	var out string
	if noMicrosoft {
		out = demangle.TryNonMicrosoft(name)
	} else {
		out = demangle.Demangle(name)
	}
	if strict && out == name {
		return fmt.Errorf("cannot demangle %q", name)
	}
	_, err := fmt.Fprintln(output, out)
	return err
}
