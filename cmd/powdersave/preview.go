package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/powdersave/internal/gamesave"
	"github.com/vovakirdan/powdersave/internal/platform/tui"
)

var (
	flagFromLibrary bool
	flagScale       int
)

var previewCmd = &cobra.Command{
	Use:   "preview <file|name>",
	Short: "Show a save in the terminal",
	Long: `Draw a save as a character map next to its element counts.
Rotations and flips in the preview do not touch the file.

Keys:
  r / R   rotate clockwise / counter-clockwise
  h / v   flip horizontally / vertically
  0       reset
  q       quit

Examples:
  powdersave preview bridge.cps
  powdersave preview --lib bridge`,
	Args: cobra.ExactArgs(1),
	Run:  runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&flagFromLibrary, "lib", false, "Read the save from the library by name")
	previewCmd.Flags().IntVar(&flagScale, "scale", 0, "Blocks per character (default from settings)")
}

func runPreview(_ *cobra.Command, args []string) {
	var gs *gamesave.GameSave
	if flagFromLibrary {
		store := openLibrary()
		entry, data, err := store.GetSave(args[0])
		store.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
			os.Exit(1)
		}
		if entry == nil {
			fmt.Fprintf(os.Stderr, "Error: no save named %q\n", args[0])
			os.Exit(1)
		}
		gs, err = gamesave.Decode(data, table, decodeOptions(settings, logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding save: %v\n", err)
			os.Exit(1)
		}
	} else {
		var err error
		gs, _, err = loadSave(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
			os.Exit(1)
		}
	}

	scale := flagScale
	if scale <= 0 {
		scale = settings.Preview.BlocksPerChar
	}
	width, height := terminalSize()
	if err := tui.RunPreview(gs, table, args[0], scale, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error running preview: %v\n", err)
		os.Exit(1)
	}
}
