package main

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rasbridge/internal/ipc"
	"rasbridge/internal/monitor"
	"rasbridge/internal/ras"
)

func (c *cli) connectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "connections",
		Aliases: []string{"ls"},
		Short:   "List active connections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conns, err := c.client.Connections()
			if err != nil {
				return err
			}
			list := make([]any, 0, len(conns))
			for _, cn := range conns {
				list = append(list, ipc.ConnectionFields(monitor.ConnectionStats{Connection: cn}))
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, map[string]any{"connections": list}); done {
				return err
			}

			t := newTable(cmd.OutOrStdout(), 24, 10, 28)
			t.header("ENTRY", "TYPE", "DEVICE", "HANDLE")
			for _, cn := range conns {
				t.row(cn.EntryName, cn.DeviceType, cn.DeviceName, cn.Handle.String())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d active\n", len(conns))
			return nil
		},
	}
}

// connection resolves an active connection by entry name.
func (c *cli) connection(name string) (ras.Connection, error) {
	return c.client.ConnectionByName(name)
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <entry>",
		Short: "Show the state of an active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connection(args[0])
			if err != nil {
				return err
			}
			st, err := c.client.Status(cn.Handle)
			if err != nil {
				return err
			}
			m := map[string]any{
				"entry_name":      cn.EntryName,
				"state":           st.State.String(),
				"error_code":      uint32(st.ErrorCode),
				"device_type":     st.DeviceType,
				"device_name":     st.DeviceName,
				"phone_number":    st.PhoneNumber,
				"local_endpoint":  endpoint(st.LocalEndpoint),
				"remote_endpoint": endpoint(st.RemoteEndpoint),
				"sub_state":       st.SubState,
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, m); done {
				return err
			}
			errText := "none"
			if st.ErrorCode != 0 {
				errText = c.describe(st.ErrorCode)
			}
			fields(cmd.OutOrStdout(), 16,
				"Entry", cn.EntryName,
				"State", st.State.String(),
				"Error", errText,
				"Device", st.DeviceName+" ("+st.DeviceType+")",
				"Phone number", orDash(st.PhoneNumber),
				"Local endpoint", orDash(endpoint(st.LocalEndpoint)),
				"Remote endpoint", orDash(endpoint(st.RemoteEndpoint)),
			)
			return nil
		},
	}
}

func endpoint(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func (c *cli) statsCommand() *cobra.Command {
	var (
		link  int
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "stats <entry>",
		Short: "Show or reset traffic counters of an active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connection(args[0])
			if err != nil {
				return err
			}
			if reset {
				if link > 0 {
					err = c.client.ClearLinkStatistics(cn.Handle, uint32(link))
				} else {
					err = c.client.ClearStatistics(cn.Handle)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Statistics of %s cleared.\n", cn.EntryName)
				return nil
			}

			var st ras.Statistics
			if link > 0 {
				st, err = c.client.LinkStatistics(cn.Handle, uint32(link))
			} else {
				st, err = c.client.Statistics(cn.Handle)
			}
			if err != nil {
				return err
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, ipc.StatisticsFields(st)); done {
				return err
			}
			printStatistics(cmd, cn.EntryName, st)
			return nil
		},
	}
	cmd.Flags().IntVar(&link, "link", 0, "Sub-entry index for per-link counters")
	cmd.Flags().BoolVar(&reset, "clear", false, "Reset the counters instead of printing them")
	return cmd
}

func printStatistics(cmd *cobra.Command, entry string, st ras.Statistics) {
	w := cmd.OutOrStdout()
	fields(w, 14,
		"Entry", entry,
		"Connected", humanDuration(st.ConnectDuration),
		"Link speed", humanBits(st.LinkSpeed),
		"Sent", fmt.Sprintf("%s in %d frames", humanBytes(st.BytesTransmitted), st.FramesTransmitted),
		"Received", fmt.Sprintf("%s in %d frames", humanBytes(st.BytesReceived), st.FramesReceived),
		"Compression", fmt.Sprintf("in %d%%, out %d%%", st.CompressionRatioIn, st.CompressionRatioOut),
		"Errors", fmt.Sprintf("crc=%d timeout=%d alignment=%d framing=%d overrun=%d/%d",
			st.CRCErrors, st.TimeoutErrors, st.AlignmentErrors, st.FramingErrors,
			st.HardwareOverrunErrors, st.BufferOverrunErrors),
	)
}

func (c *cli) hangUpCommand() *cobra.Command {
	var single bool
	cmd := &cobra.Command{
		Use:   "hangup <entry>",
		Short: "Terminate an active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connection(args[0])
			if err != nil {
				return err
			}
			closeAll := c.cfg.HangUp.CloseAllEnabled() && !single
			if err := c.client.HangUp(cn.Handle, c.cfg.HangUp.PollInterval.Std(), closeAll); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s disconnected.\n", cn.EntryName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "Issue one hang-up call instead of repeating until the handle is gone")
	return cmd
}

// parseProtocol accepts a protocol name such as "ip" or a numeric code.
func parseProtocol(s string) (ras.Protocol, error) {
	for _, p := range ras.AllProtocols() {
		if strings.EqualFold(p.String(), s) {
			return p, nil
		}
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return ras.Protocol(n), nil
	}
	return 0, fmt.Errorf("unknown protocol %q", s)
}

func (c *cli) projectionCommand() *cobra.Command {
	var protocol string
	cmd := &cobra.Command{
		Use:   "projection <entry>",
		Short: "Show negotiated protocol projections of an active connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cn, err := c.connection(args[0])
			if err != nil {
				return err
			}

			var projections []ras.Projection
			if protocol != "" {
				p, err := parseProtocol(protocol)
				if err != nil {
					return err
				}
				pr, err := c.client.Projection(cn.Handle, p)
				if err != nil {
					return err
				}
				if pr != nil {
					projections = append(projections, pr)
				}
			} else {
				if projections, err = c.client.Projections(cn.Handle); err != nil {
					return err
				}
				ex, err := c.client.ProjectionEx(cn.Handle)
				if err != nil && !errors.Is(err, ras.ErrNotSupported) {
					return err
				}
				if ex != nil {
					projections = append(projections, ex)
				}
			}

			list := make([]any, 0, len(projections))
			for _, p := range projections {
				list = append(list, ipc.ProjectionFields(p))
			}
			out := map[string]any{"entry_name": cn.EntryName, "projections": list}
			if c.opts.Output == formatTable {
				// Projections are nested; YAML is the readable table form.
				_, err = writeStructured(cmd.OutOrStdout(), formatYAML, out)
				return err
			}
			_, err = writeStructured(cmd.OutOrStdout(), c.opts.Output, out)
			return err
		},
	}
	cmd.Flags().StringVarP(&protocol, "protocol", "p", "", "Only this protocol (AMB, NBF, IPX, IP, CCP, LCP, SLIP, IPv6)")
	return cmd
}
