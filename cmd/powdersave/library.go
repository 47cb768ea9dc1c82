package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/powdersave/internal/platform/tui"
	"github.com/vovakirdan/powdersave/internal/storage"
)

var (
	flagName  string
	flagLimit int
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Store and fetch saves in the local library",
	Long: `The library keeps encoded saves in a SQLite database together with a
summary of each one. Saves are checked by decoding before they are stored.

Examples:
  powdersave library put bridge.cps
  powdersave library put bridge.cps --name "suspension bridge"
  powdersave library list
  powdersave library get bridge -o bridge.cps
  powdersave library rm bridge
  powdersave library browse`,
}

var libraryPutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Add a save to the library",
	Args:  cobra.ExactArgs(1),
	Run:   runLibraryPut,
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored saves",
	Args:  cobra.NoArgs,
	Run:   runLibraryList,
}

var libraryGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Write a stored save to a file",
	Args:  cobra.ExactArgs(1),
	Run:   runLibraryGet,
}

var libraryRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a stored save",
	Args:  cobra.ExactArgs(1),
	Run:   runLibraryRm,
}

var libraryBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library interactively",
	Args:  cobra.NoArgs,
	Run:   runLibraryBrowse,
}

func init() {
	libraryPutCmd.Flags().StringVar(&flagName, "name", "", "Name to store the save under (default: file name)")
	libraryListCmd.Flags().IntVar(&flagLimit, "limit", 50, "Maximum number of saves to list")
	libraryGetCmd.Flags().StringVarP(&flagOutput, "output", "o", "", `Output path ("-" for stdout)`)
	//nolint:errcheck // flag is registered above
	libraryGetCmd.MarkFlagRequired("output")

	libraryCmd.AddCommand(libraryPutCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryGetCmd)
	libraryCmd.AddCommand(libraryRmCmd)
	libraryCmd.AddCommand(libraryBrowseCmd)
}

// saveName derives a library name from a file path.
func saveName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func openLibrary() *storage.Store {
	store, err := storage.Open(dbPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening save library: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runLibraryPut(_ *cobra.Command, args []string) {
	name := flagName
	if name == "" {
		if args[0] == "-" {
			fmt.Fprintln(os.Stderr, "Error: --name is required when reading from stdin")
			os.Exit(1)
		}
		name = saveName(args[0])
	}

	gs, data, err := loadSave(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
		os.Exit(1)
	}

	store := openLibrary()
	defer store.Close()

	id, err := store.PutSave(name, data, storage.NewSaveMeta(gs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error storing save: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("stored", "name", name, "id", id, "bytes", len(data))
}

func runLibraryList(_ *cobra.Command, _ []string) {
	store := openLibrary()
	defer store.Close()

	entries, err := store.ListSaves(flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing saves: %v\n", err)
		store.Close()
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No saves stored yet.")
		fmt.Println()
		fmt.Println("Add one with 'powdersave library put <file>'.")
		return
	}

	// Print header
	fmt.Printf("  %-24s  %-9s  %-9s  %-7s  %-8s  %s\n", "Name", "Blocks", "Particles", "Version", "Bytes", "Added")
	fmt.Printf("  %-24s  %-9s  %-9s  %-7s  %-8s  %s\n", "----", "------", "---------", "-------", "-----", "-----")

	for _, e := range entries {
		version := e.Version
		if e.FromNewer {
			version += "+"
		}
		fmt.Printf("  %-24s  %-9s  %-9d  %-7s  %-8d  %s\n",
			e.Name, fmt.Sprintf("%dx%d", e.BlockW, e.BlockH), e.Particles, version, e.Size,
			e.CreatedAt.Format("2006-01-02 15:04"))
		if len(e.Missing) > 0 {
			fmt.Printf("  %-24s  missing: %s\n", "", strings.Join(e.Missing, ", "))
		}
	}

	if stats, err := store.GetStats(); err == nil && stats.Count > len(entries) {
		fmt.Println()
		fmt.Printf("Showing %d of %d saves (%d bytes total)\n", len(entries), stats.Count, stats.TotalBytes)
	}
}

func runLibraryGet(_ *cobra.Command, args []string) {
	store := openLibrary()
	defer store.Close()

	entry, data, err := store.GetSave(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading save: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	if entry == nil {
		fmt.Fprintf(os.Stderr, "Error: no save named %q\n", args[0])
		store.Close()
		os.Exit(1)
	}
	if err := writeOutput(flagOutput, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing save: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	logger.Debug("fetched", "name", entry.Name, "bytes", entry.Size)
}

func runLibraryRm(_ *cobra.Command, args []string) {
	store := openLibrary()
	defer store.Close()

	deleted, err := store.DeleteSave(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error removing save: %v\n", err)
		store.Close()
		os.Exit(1)
	}
	if !deleted {
		fmt.Fprintf(os.Stderr, "Error: no save named %q\n", args[0])
		store.Close()
		os.Exit(1)
	}
	logger.Info("removed", "name", args[0])
}

func runLibraryBrowse(_ *cobra.Command, _ []string) {
	store := openLibrary()
	defer store.Close()

	width, height := terminalSize()
	if err := tui.RunLibrary(store, viewerConfig(), width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error running browser: %v\n", err)
	}
}

// viewerConfig builds the browser settings from the loaded environment.
func viewerConfig() tui.ViewerConfig {
	return tui.ViewerConfig{
		Elements:      table,
		Decode:        decodeOptions(settings, logger),
		BlocksPerChar: settings.Preview.BlocksPerChar,
	}
}

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}
