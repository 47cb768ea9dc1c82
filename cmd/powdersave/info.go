package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/powdersave/internal/elements"
	"github.com/vovakirdan/powdersave/internal/gamesave"
	"github.com/vovakirdan/powdersave/internal/platform/tui"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Describe a save",
	Long: `Decode a save and print its format, version, canvas size, contents
and simulation options. Use "-" to read from stdin.

Examples:
  powdersave info bridge.cps
  cat bridge.cps | powdersave info -`,
	Args: cobra.ExactArgs(1),
	Run:  runInfo,
}

func runInfo(_ *cobra.Command, args []string) {
	gs, data, err := loadSave(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
		if data != nil {
			fmt.Fprintf(os.Stderr, "Result: %s\n", gamesave.ParseResultOf(err))
		}
		os.Exit(1)
	}
	describeSave(os.Stdout, gs, table, gamesave.DetectFormat(data), len(data))
}

// describeSave prints a human-readable summary of gs.
func describeSave(w io.Writer, gs *gamesave.GameSave, tbl *elements.Table, format gamesave.Format, size int) {
	px := gs.PixelSize()
	fmt.Fprintf(w, "Format:     %s (%d bytes)\n", format, size)
	version := gs.Version.String()
	if gs.FromNewerVersion {
		version += " (newer than this program)"
	}
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Canvas:     %dx%d blocks, %dx%d pixels\n", gs.BlockSize.X, gs.BlockSize.Y, px.X, px.Y)
	fmt.Fprintf(w, "Particles:  %d\n", len(gs.Particles))
	fmt.Fprintf(w, "Signs:      %d\n", len(gs.Signs))

	var present []string
	for _, f := range []struct {
		name string
		on   bool
	}{
		{"pressure", gs.HasPressure},
		{"ambient-heat", gs.HasAmbientHeat},
		{"block-air", gs.HasBlockAirMaps},
		{"gravity", gs.HasGravityMaps},
		{"rng", gs.HasRNGState},
		{"stkm", gs.Stkm.HasData()},
	} {
		if f.on {
			present = append(present, f.name)
		}
	}
	if len(present) == 0 {
		present = []string{"none"}
	}
	fmt.Fprintf(w, "Optional:   %s\n", strings.Join(present, ", "))

	fmt.Fprintf(w, "Options:    paused=%t gravity=%t ambient-heat=%t water-equalisation=%t\n",
		gs.Paused, gs.GravityEnable, gs.AHeatEnable, gs.WaterEEnabled)
	fmt.Fprintf(w, "            gravity-mode=%d air-mode=%d edge-mode=%d ambient-temp=%.2fK frame=%d\n",
		gs.GravityMode, gs.AirMode, gs.EdgeMode, gs.AmbientAirTemp, gs.FrameCount)

	if names := gs.MissingElements.Names(); len(names) > 0 {
		fmt.Fprintf(w, "Missing:    %s\n", strings.Join(names, ", "))
	}
	if len(gs.Authors) > 0 {
		keys := make([]string, 0, len(gs.Authors))
		for k := range gs.Authors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "Authors:    %s\n", strings.Join(keys, ", "))
	}

	counts := tui.PaletteCounts(gs, tbl)
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12s  %s\n", "Element", "Count")
	fmt.Fprintf(w, "  %-12s  %s\n", "-------", "-----")
	for _, c := range counts {
		name := c.Name
		if c.Missing {
			name += "?"
		}
		fmt.Fprintf(w, "  %-12s  %d\n", name, c.Count)
	}
}
