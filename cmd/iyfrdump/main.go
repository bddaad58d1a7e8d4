// Command iyfrdump inspects serialized profiler result bundles: its dump
// subcommand loads one or more .iyfr files and prints the human-readable
// report spec.md §6.2 describes, and its tags subcommand loads and prints a
// tag table file on its own.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iyfrdump",
	Short: "Inspect IYFThreading profiler result bundles",
	Long:  `iyfrdump loads serialized .iyfr result bundles and renders them as text.`,
}

func main() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(tagsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
