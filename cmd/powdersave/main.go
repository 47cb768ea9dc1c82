// powdersave inspects, converts and edits saved simulation states.
//
// Usage:
//
//	powdersave info <file>                  - Describe a save
//	powdersave convert <file> -o <out>      - Re-encode, upgrading legacy saves
//	powdersave transform <file> -o <out>    - Rotate, flip or nudge a save
//	powdersave expand <file> -o <out>       - Grow the canvas
//	powdersave library put|list|get|rm      - Manage the save library
//	powdersave preview <file>               - Show a save in the terminal
//	powdersave serve                        - Browse the library over SSH
//	powdersave clipboard-format             - Print the clipboard MIME type
//
// Global flags:
//
//	--config <path>     - Settings YAML (default search: ~/.powdersave, ./configs)
//	--elements <path>   - Element table YAML
//	--db <path>         - Library database (default from settings)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig   string
	flagElements string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "powdersave",
	Short: "Inspect, convert and edit simulation saves",
	Long: `powdersave reads legacy (PSv) and tagged (OPS1) saves, writes tagged
saves, and applies rotations, flips, nudges and canvas expansion.

Available commands:
  info              - Describe a save
  convert           - Re-encode a save
  transform         - Rotate, flip or nudge a save
  expand            - Grow the canvas of a save
  library           - Store and fetch saves in the local library
  preview           - Show a save in the terminal
  serve             - Serve the library browser over SSH
  clipboard-format  - Print the clipboard format name

Examples:
  powdersave info bridge.cps
  powdersave convert old.psv -o new.cps
  powdersave transform bridge.cps --op rot90 -o bridge-rot.cps
  powdersave library put bridge.cps
  powdersave serve`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadEnv()
	},
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to settings YAML")
	rootCmd.PersistentFlags().StringVar(&flagElements, "elements", "", "Path to element table YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to library database (default from settings)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clipboardCmd)
}
