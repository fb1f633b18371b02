package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rasbridge/internal/winsvc"
)

var installCommand = &cobra.Command{
	Use:   "install",
	Short: "Register rasmon with the Windows Service Control Manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		start, err := winsvc.ParseStartType(opts.StartType)
		if err != nil {
			return err
		}
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("cannot determine executable path: %w", err)
		}
		configPath := ""
		if cmd.Flags().Changed("config") {
			configPath = resolveRelativeToExe(opts.ConfigPath)
		}
		if err := winsvc.InstallService(exePath, configPath, start); err != nil {
			return err
		}
		cmd.Printf("Service %s installed (start=%s).\n", winsvc.ServiceName, start)
		return nil
	},
}

var uninstallCommand = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := winsvc.UninstallService(); err != nil {
			return err
		}
		cmd.Println("Service uninstalled.")
		return nil
	},
}

var startCommand = &cobra.Command{
	Use:   "start",
	Short: "Start the installed service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := winsvc.StartService(); err != nil {
			return err
		}
		cmd.Println("Service started.")
		return nil
	},
}

var stopCommand = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := winsvc.StopService(); err != nil {
			return err
		}
		cmd.Println("Service stopped.")
		return nil
	},
}

var reloadCommand = &cobra.Command{
	Use:   "reload",
	Short: "Ask the running service to re-read its configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, running := winsvc.ServiceState(); !running {
			return fmt.Errorf("service %s is not running", winsvc.ServiceName)
		}
		if err := winsvc.ReloadService(); err != nil {
			return err
		}
		cmd.Println("Reload requested.")
		return nil
	},
}

func init() {
	installCommand.Flags().StringVar(&opts.StartType, "start-type", "auto",
		"Service start type: auto, manual or disabled")
}
