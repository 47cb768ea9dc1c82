package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/powdersave/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library browser over SSH",
	Long: `Start an SSH server that lets users browse and preview the save
library. Sessions are read-only: nothing can be added or removed.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.powdersave/host_key

Examples:
  powdersave serve                           # Listen on the configured address
  powdersave serve --ssh :2222               # Listen on port 2222
  powdersave serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from settings)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes (default from settings)")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := tui.DefaultSSHServerConfig()
	cfg.DBPath = dbPath()
	cfg.Viewer = viewerConfig()
	cfg.Logger = logger.WithPrefix("powdersave-ssh")

	if settings.Preview.SSHAddress != "" {
		cfg.Address = settings.Preview.SSHAddress
	}
	if flagSSHAddr != "" {
		cfg.Address = flagSSHAddr
	}
	cfg.HostKeyPath = settings.Preview.HostKeyPath
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	idle := settings.Preview.IdleTimeoutMinutes
	if flagIdleTimeout > 0 {
		idle = flagIdleTimeout
	}
	if idle > 0 {
		cfg.IdleTimeout = time.Duration(idle) * time.Minute
	}

	server, err := tui.NewSSHServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Serving save library %s on %s\n", cfg.DBPath, server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
