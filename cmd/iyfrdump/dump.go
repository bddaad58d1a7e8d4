package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/manvis/IYFThreading/pkg/profiler"
	"github.com/manvis/IYFThreading/pkg/resultio"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>...",
	Short: "Render one or more .iyfr result bundles as text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("unit", "us", "duration unit: ns|us|ms")
}

func runDump(cmd *cobra.Command, args []string) error {
	unit, err := durationUnit(cmd)
	if err != nil {
		return err
	}
	useColor := resolveColor(cmd)

	bundles := make([]*profiler.Bundle, len(args))

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(len(args), 8))
	for i, path := range args {
		g.Go(func(i int, path string) func() error {
			return func() error {
				b, err := resultio.LoadFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				bundles[i] = b
				return nil
			}
		}(i, path))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	headerColor := color.New(color.FgCyan, color.Bold)
	for i, path := range args {
		if useColor {
			headerColor.Fprintf(os.Stdout, "### %s\n", path)
		} else {
			fmt.Fprintf(os.Stdout, "### %s\n", path)
		}

		textOpts := []resultio.TextOption{resultio.WithDurationUnit(unit)}
		if useColor {
			textOpts = append(textOpts, resultio.WithColorize(buildColorizer(bundles[i].Tags())))
		}
		if err := resultio.WriteText(os.Stdout, bundles[i], textOpts...); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func durationUnit(cmd *cobra.Command) (resultio.DurationUnit, error) {
	s, _ := cmd.Flags().GetString("unit")
	switch s {
	case "ns":
		return resultio.Nanoseconds, nil
	case "ms":
		return resultio.Milliseconds, nil
	case "us", "":
		return resultio.Microseconds, nil
	default:
		return 0, fmt.Errorf("unknown --unit %q", s)
	}
}
