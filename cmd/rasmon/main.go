// Command rasmon watches RAS connections, raises notifications for state
// changes and serves connection status to rasctl over a named pipe.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rasbridge/internal/core"
	"rasbridge/internal/winsvc"
)

// Build info, injected via ldflags at compile time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var opts = &options{}

type options struct {
	ConfigPath  string
	ServiceMode bool
	StartType   string
}

var rootCommand = &cobra.Command{
	Use:           "rasmon",
	Short:         "Monitor RAS connections and serve their status",
	Version:       fmt.Sprintf("%s (commit=%s, built=%s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		configPath := resolveRelativeToExe(opts.ConfigPath)
		if opts.ServiceMode || winsvc.IsWindowsService() {
			return runAsService(configPath)
		}
		return runConsole(cmd.Context(), configPath)
	},
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "rasmon.yaml",
		"Path to configuration file, relative paths resolve against the executable")
	rootCommand.Flags().BoolVar(&opts.ServiceMode, "service", false,
		"Run as Windows Service (used by SCM)")

	rootCommand.AddCommand(installCommand, uninstallCommand, startCommand, stopCommand, reloadCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		core.Log.Errorf("Core", "%v", err)
		_ = core.Log.Sync()
		os.Exit(1)
	}
}

// resolveRelativeToExe resolves a relative path against the directory containing
// the running executable. Absolute paths are returned unchanged.
func resolveRelativeToExe(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		core.Log.Warnf("Core", "Cannot determine executable path, using %q as-is: %v", path, err)
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}
