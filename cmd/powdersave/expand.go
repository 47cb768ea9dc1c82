package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/powdersave/internal/core"
)

var (
	flagWidth  int
	flagHeight int
)

var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Grow the canvas of a save",
	Long: `Enlarge a save's canvas to the given size in blocks. Existing content
keeps its position; new area is empty. Sizes smaller than the current
canvas are rejected, and so are sizes past the canvas limits in the
settings (canvas.max_block_width, canvas.max_block_height), since the
result could not be read back. An omitted dimension keeps its current value.

Examples:
  powdersave expand bridge.cps --width 150 --height 90 -o big.cps`,
	Args: cobra.ExactArgs(1),
	Run:  runExpand,
}

func init() {
	expandCmd.Flags().IntVar(&flagWidth, "width", 0, "New width in blocks")
	expandCmd.Flags().IntVar(&flagHeight, "height", 0, "New height in blocks")
	addEncodeFlags(expandCmd)
}

// expandedSize fills unset dimensions from the current size.
func expandedSize(current core.Vec2, width, height int) core.Vec2 {
	if width <= 0 {
		width = current.X
	}
	if height <= 0 {
		height = current.Y
	}
	return core.V(width, height)
}

func runExpand(_ *cobra.Command, args []string) {
	gs, _, err := loadSave(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
		os.Exit(1)
	}
	size := expandedSize(gs.BlockSize, flagWidth, flagHeight)
	if err := gs.Expand(size); err != nil {
		fmt.Fprintf(os.Stderr, "Error expanding save: %v\n", err)
		os.Exit(1)
	}
	if err := storeSave(gs, flagOutput, flagTarget, flagLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing save: %v\n", err)
		os.Exit(1)
	}
	logger.Info("expanded", "size", size)
}
