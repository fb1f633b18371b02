package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"rasbridge/internal/ipc"
)

type remoteOptions struct {
	Pipe    string
	Timeout time.Duration
}

func (c *cli) remoteCommand() *cobra.Command {
	var o remoteOptions
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Query a running rasmon over its named pipe",
	}
	cmd.PersistentFlags().StringVar(&o.Pipe, "pipe", "", "rasmon pipe name (default from ipc.pipe)")
	cmd.PersistentFlags().DurationVar(&o.Timeout, "timeout", 5*time.Second, "Connect and call timeout")

	// call dials rasmon and runs fn with a deadline.
	call := func(cmd *cobra.Command, fn func(ctx context.Context, m *ipc.MonitorClient) error) error {
		pipe := o.Pipe
		if pipe == "" {
			pipe = c.cfg.IPC.Pipe
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
		defer cancel()
		client, err := c.dialRemote(ctx, pipe, o.Timeout)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := fn(ctx, client.Monitor); err != nil {
			if st, ok := status.FromError(err); ok {
				return fmt.Errorf("rasmon: %s", st.Message())
			}
			return err
		}
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List connections tracked by rasmon",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd, func(ctx context.Context, m *ipc.MonitorClient) error {
					resp, err := m.ListConnections(ctx)
					if err != nil {
						return err
					}
					return c.printRemoteList(cmd, resp)
				})
			},
		},
		&cobra.Command{
			Use:   "stats <entry>",
			Short: "Show counters of a connection tracked by rasmon",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd, func(ctx context.Context, m *ipc.MonitorClient) error {
					resp, err := m.Statistics(ctx, args[0])
					if err != nil {
						return err
					}
					return c.printRemote(cmd, resp)
				})
			},
		},
		&cobra.Command{
			Use:   "hangup <entry>",
			Short: "Ask rasmon to terminate a connection",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd, func(ctx context.Context, m *ipc.MonitorClient) error {
					if err := m.HangUp(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s disconnected.\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "projections <entry>",
			Short: "Show projections of a connection tracked by rasmon",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return call(cmd, func(ctx context.Context, m *ipc.MonitorClient) error {
					resp, err := m.Projections(ctx, args[0])
					if err != nil {
						return err
					}
					return c.printRemote(cmd, resp)
				})
			},
		},
	)
	return cmd
}

func (c *cli) printRemote(cmd *cobra.Command, s *structpb.Struct) error {
	format := c.opts.Output
	if format == formatTable {
		format = formatYAML
	}
	_, err := writeStructured(cmd.OutOrStdout(), format, s.AsMap())
	return err
}

func (c *cli) printRemoteList(cmd *cobra.Command, s *structpb.Struct) error {
	m := s.AsMap()
	if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, m); done {
		return err
	}
	list, _ := m["connections"].([]any)
	t := newTable(cmd.OutOrStdout(), 24, 28, 10, 10)
	t.header("ENTRY", "DEVICE", "TX", "RX", "SINCE")
	for _, item := range list {
		cn, _ := item.(map[string]any)
		tx, rx := "-", "-"
		if v, ok := cn["speed_tx"].(float64); ok {
			tx = humanRate(int64(v))
		}
		if v, ok := cn["speed_rx"].(float64); ok {
			rx = humanRate(int64(v))
		}
		since, _ := cn["since"].(string)
		name, _ := cn["entry_name"].(string)
		device, _ := cn["device_name"].(string)
		t.row(name, device, tx, rx, orDash(since))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d active\n", len(list))
	return nil
}
