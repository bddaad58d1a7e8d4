package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/manvis/IYFThreading/pkg/tagconfig"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <file.toml>",
	Short: "Load and print a tag table",
	Args:  cobra.ExactArgs(1),
	RunE:  runTags,
}

func runTags(cmd *cobra.Command, args []string) error {
	provider, err := tagconfig.Load(args[0])
	if err != nil {
		return err
	}

	useColor := resolveColor(cmd)

	for _, t := range provider.Entries() {
		line := fmt.Sprintf("%3d  %-20s  #%02x%02x%02x%02x", t.ID, t.Name, t.R, t.G, t.B, t.A)
		if useColor && t.A != 0 {
			swatch := color.New(nearestColorAttribute(t.R, t.G, t.B), color.Bold)
			swatch.Fprintln(os.Stdout, line)
		} else {
			fmt.Fprintln(os.Stdout, line)
		}
	}
	return nil
}
