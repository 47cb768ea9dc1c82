package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/powdersave/internal/gamesave"
)

var clipboardCmd = &cobra.Command{
	Use:   "clipboard-format",
	Short: "Print the clipboard format name for saves",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(gamesave.ClipboardFormatName)
	},
}
