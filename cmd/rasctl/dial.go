package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"rasbridge/internal/ras"
)

type dialOptions struct {
	User        string
	Password    string
	Domain      string
	Number      string
	Saved       bool
	Sync        bool
	NoReconnect bool
}

func (c *cli) dialCommand() *cobra.Command {
	var o dialOptions
	cmd := &cobra.Command{
		Use:   "dial <entry>",
		Short: "Connect a phone-book entry",
		Long: `Dial establishes a connection for a phone-book entry and prints each
state the connection passes through. Ctrl+C aborts the dial and hangs up.

Usage examples:

1. Dial with the credentials saved for the entry:

	rasctl dial "Office VPN" --saved

2. Dial with explicit credentials:

	rasctl dial "Office VPN" --user alice --domain CORP --password secret
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := c.dialParams(args[0], o)
			if err != nil {
				return err
			}
			var ext *ras.DialExtensions
			if o.NoReconnect {
				ext = &ras.DialExtensions{Options: ras.DialDisableReconnect | ras.DialDisableReconnectUI}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var progress ras.DialProgress
			if !o.Sync {
				progress = dialPrinter(ctx, cmd)
			}
			h, err := c.client.Dial(c.phoneBook(), params, ext, progress)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected %s (handle %s).\n", args[0], h)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&o.User, "user", "u", "", "User name")
	flags.StringVar(&o.Password, "password", "", "Password")
	flags.StringVar(&o.Domain, "domain", "", "Logon domain")
	flags.StringVar(&o.Number, "number", "", "Override the phone number or VPN server")
	flags.BoolVar(&o.Saved, "saved", false, "Start from the dial parameters saved for the entry")
	flags.BoolVar(&o.Sync, "sync", false, "Dial synchronously without progress output")
	flags.BoolVar(&o.NoReconnect, "no-reconnect", false, "Disable automatic redial on link failure")
	return cmd
}

func (c *cli) dialParams(entry string, o dialOptions) (ras.DialParams, error) {
	p := ras.DialParams{EntryName: entry}
	if o.Saved {
		saved, _, err := c.client.DialParams(c.phoneBook(), entry)
		if err != nil {
			return ras.DialParams{}, fmt.Errorf("load saved dial parameters: %w", err)
		}
		p = saved
		p.EntryName = entry
	}
	if o.User != "" {
		p.UserName = o.User
	}
	if o.Password != "" {
		p.Password = o.Password
	}
	if o.Domain != "" {
		p.Domain = o.Domain
	}
	if o.Number != "" {
		p.PhoneNumber = o.Number
	}
	return p, nil
}

// dialPrinter reports each dial state and aborts the dial once ctx is done.
// Notifications may arrive on any thread.
func dialPrinter(ctx context.Context, cmd *cobra.Command) ras.DialProgress {
	var mu sync.Mutex
	return func(ev ras.DialEvent) bool {
		mu.Lock()
		defer mu.Unlock()
		w := cmd.OutOrStdout()
		switch {
		case ev.Err != nil:
			fmt.Fprintf(w, "  %-24s failed: %v\n", ev.State, ev.Err)
		case ev.SubEntry > 1:
			fmt.Fprintf(w, "  %-24s (link %d)\n", ev.State, ev.SubEntry)
		default:
			fmt.Fprintf(w, "  %s\n", ev.State)
		}
		return ctx.Err() == nil
	}
}
