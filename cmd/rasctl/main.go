// Command rasctl inspects and controls Windows RAS connections and phone-book
// entries, either directly or through a running rasmon.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"rasbridge/internal/core"
	"rasbridge/internal/ipc"
	"rasbridge/internal/native"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

type options struct {
	ConfigPath string
	PhoneBook  string
	Output     string
	Verbose    bool
}

// cli holds the state shared by all commands of one invocation.
type cli struct {
	opts       options
	fs         afero.Fs
	newAPI     func() native.API
	dialRemote func(ctx context.Context, pipe string, timeout time.Duration) (*ipc.Client, error)

	cfg    core.Config
	client *core.RASClient
}

func newCLI() *cli {
	return &cli{fs: afero.NewOsFs(), newAPI: native.Default, dialRemote: ipc.DialWithTimeout}
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "rasctl",
		Short:         "Inspect and control Windows RAS connections",
		Version:       fmt.Sprintf("%s (commit=%s, built=%s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.ConfigPath, "config", "",
		"Path to a rasmon configuration file. Built-in defaults are used if empty.")
	flags.StringVar(&c.opts.PhoneBook, "phonebook", "",
		"Phone-book file. Overrides ras.phonebook; empty selects the system phone book.")
	flags.StringVarP(&c.opts.Output, "output", "o", formatTable,
		"Output format: table, yaml or json")
	flags.BoolVarP(&c.opts.Verbose, "verbose", "v", false,
		"Log every native call")

	root.AddCommand(
		c.connectionsCommand(),
		c.statusCommand(),
		c.statsCommand(),
		c.hangUpCommand(),
		c.projectionCommand(),
		c.dialCommand(),
		c.devicesCommand(),
		c.entriesCommand(),
		c.entryCommand(),
		c.credentialsCommand(),
		c.countriesCommand(),
		c.errorCommand(),
		c.remoteCommand(),
	)
	return root
}

// setup loads the configuration and builds the RAS client.
func (c *cli) setup() error {
	if err := checkFormat(c.opts.Output); err != nil {
		return err
	}

	quiet := core.LogConfig{Level: "warn"}
	if c.opts.Verbose {
		quiet.Level = "debug"
	}
	core.Log.SetConfig(quiet)

	fsys, path := c.fs, c.opts.ConfigPath
	if path == "" {
		fsys, path = afero.NewMemMapFs(), "rasctl.yaml"
	} else if ok, err := afero.Exists(fsys, path); err != nil || !ok {
		return fmt.Errorf("config file %s not found", path)
	}
	cm := core.NewConfigManager(fsys, path, nil)
	if err := cm.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cm.Get()
	if c.opts.PhoneBook != "" {
		c.cfg.RAS.PhoneBook = c.opts.PhoneBook
	}

	logCfg := c.cfg.Logging
	if c.opts.Verbose {
		logCfg.Level = "debug"
		c.cfg.RAS.TraceNativeCalls = true
	} else if logCfg.Level == "" {
		logCfg.Level = "warn"
	}
	core.Log.SetConfig(logCfg)

	c.client = core.NewRASClient(c.newAPI(), c.cfg.RAS, core.Log)
	return nil
}

func (c *cli) phoneBook() string { return c.cfg.RAS.PhoneBook }

func main() {
	root := newRootCommand(newCLI())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = core.Log.Sync()
		os.Exit(1)
	}
}
