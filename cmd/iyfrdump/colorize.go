package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manvis/IYFThreading/pkg/profiler"
)

// resolveColor interprets the --color flag: "auto" enables color only when
// stdout is a terminal, mirroring cmd/surge's --color handling. The result
// is also applied to fatih/color's global switch, so "on" colors output
// even when stdout is not a terminal.
func resolveColor(cmd *cobra.Command) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	var on bool
	switch mode {
	case "on":
		on = true
	case "off":
		on = false
	default:
		on = isTerminal(os.Stdout)
	}
	color.NoColor = !on
	return on
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ansiPalette maps the 16 terminal colors fatih/color exposes as named
// attributes to their approximate RGB values, so an application-assigned
// tag RGBA can be matched to the nearest one a non-true-color terminal can
// actually render.
var ansiPalette = []struct {
	attr color.Attribute
	r, g, b byte
}{
	{color.FgBlack, 0, 0, 0},
	{color.FgRed, 128, 0, 0},
	{color.FgGreen, 0, 128, 0},
	{color.FgYellow, 128, 128, 0},
	{color.FgBlue, 0, 0, 128},
	{color.FgMagenta, 128, 0, 128},
	{color.FgCyan, 0, 128, 128},
	{color.FgWhite, 192, 192, 192},
	{color.FgHiBlack, 128, 128, 128},
	{color.FgHiRed, 255, 0, 0},
	{color.FgHiGreen, 0, 255, 0},
	{color.FgHiYellow, 255, 255, 0},
	{color.FgHiBlue, 0, 0, 255},
	{color.FgHiMagenta, 255, 0, 255},
	{color.FgHiCyan, 0, 255, 255},
	{color.FgHiWhite, 255, 255, 255},
}

// nearestColorAttribute returns the ansiPalette entry closest to r/g/b by
// squared Euclidean distance.
func nearestColorAttribute(r, g, b byte) color.Attribute {
	best := ansiPalette[0]
	bestDist := colorDistance(r, g, b, best.r, best.g, best.b)
	for _, c := range ansiPalette[1:] {
		d := colorDistance(r, g, b, c.r, c.g, c.b)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.attr
}

func colorDistance(r1, g1, b1, r2, g2, b2 byte) int {
	dr := int(r1) - int(r2)
	dg := int(g1) - int(g2)
	db := int(b1) - int(b2)
	return dr*dr + dg*dg + db*db
}

// buildColorizer returns a resultio.WithColorize hook that renders a
// scope's name in the terminal color nearest its tag's RGBA. Tags with
// zero alpha (profiler's "no color assigned" convention) are left
// uncolored.
func buildColorizer(tags []profiler.TagInfo) func(name string, tag int32) string {
	byTag := make(map[int32]*color.Color, len(tags))
	for _, t := range tags {
		if t.A == 0 {
			continue
		}
		c := color.New(nearestColorAttribute(t.R, t.G, t.B))
		c.EnableColor()
		byTag[t.ID] = c
	}

	return func(name string, tag int32) string {
		c, ok := byTag[tag]
		if !ok {
			return name
		}
		return c.Sprint(name)
	}
}
