package main

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rasbridge/internal/native"
	"rasbridge/internal/ras"
)

var entryTypes = map[uint32]string{
	ras.EntryTypePhone:     "phone",
	ras.EntryTypeVPN:       "vpn",
	ras.EntryTypeDirect:    "direct",
	ras.EntryTypeInternet:  "internet",
	ras.EntryTypeBroadband: "broadband",
}

func (c *cli) devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List RAS-capable devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devs, err := c.client.Devices()
			if err != nil {
				return err
			}
			list := make([]any, 0, len(devs))
			for _, d := range devs {
				list = append(list, map[string]any{"type": d.Type, "name": d.Name})
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, map[string]any{"devices": list}); done {
				return err
			}
			t := newTable(cmd.OutOrStdout(), 12)
			t.header("TYPE", "NAME")
			for _, d := range devs {
				t.row(d.Type, d.Name)
			}
			return nil
		},
	}
}

func (c *cli) entriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "List phone-book entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := c.client.EntryNames(c.phoneBook())
			if err != nil {
				return err
			}
			list := make([]any, 0, len(names))
			for _, n := range names {
				list = append(list, map[string]any{"name": n.Name, "flags": n.Flags, "phone_book": n.PhoneBookPath})
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, map[string]any{"entries": list}); done {
				return err
			}
			t := newTable(cmd.OutOrStdout(), 32, 6)
			t.header("NAME", "FLAGS", "PHONE BOOK")
			for _, n := range names {
				t.row(n.Name, fmt.Sprintf("%#x", n.Flags), orDash(n.PhoneBookPath))
			}
			return nil
		},
	}
}

func (c *cli) entryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Show and manage one phone-book entry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print the properties of an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := c.client.Entry(c.phoneBook(), args[0])
				if err != nil {
					return err
				}
				m := entryFields(args[0], e)
				for i := uint32(1); i <= e.SubEntries; i++ {
					s, err := c.client.SubEntry(c.phoneBook(), args[0], i)
					if err != nil {
						return fmt.Errorf("sub-entry %d: %w", i, err)
					}
					m["sub_entries"] = append(m["sub_entries"].([]any), map[string]any{
						"index":       i,
						"device_type": s.DeviceType,
						"device_name": s.DeviceName,
						"phone":       s.PhoneNumber,
					})
				}
				format := c.opts.Output
				if format == formatTable {
					format = formatYAML
				}
				_, err = writeStructured(cmd.OutOrStdout(), format, m)
				return err
			},
		},
		&cobra.Command{
			Use:   "validate <name>",
			Short: "Check that a new entry could be created under name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.client.ValidateEntryName(c.phoneBook(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%q is available.\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <old> <new>",
			Short: "Rename an entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.client.RenameEntry(c.phoneBook(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q.\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete an entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.client.DeleteEntry(c.phoneBook(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func entryFields(name string, e ras.Entry) map[string]any {
	typ, ok := entryTypes[e.Type]
	if !ok {
		typ = strconv.FormatUint(uint64(e.Type), 10)
	}
	alternates := make([]any, 0, len(e.AlternatePhoneNumbers))
	for _, a := range e.AlternatePhoneNumbers {
		alternates = append(alternates, a)
	}
	return map[string]any{
		"name":            name,
		"id":              e.ID.String(),
		"type":            typ,
		"options":         fmt.Sprintf("%#08x", e.Options),
		"device":          map[string]any{"type": e.DeviceType, "name": e.DeviceName},
		"phone_number":    e.PhoneNumber,
		"area_code":       e.AreaCode,
		"country_id":      e.CountryID,
		"alternates":      alternates,
		"ip_address":      endpoint(e.IPAddress),
		"dns":             addrList(e.DNSAddress, e.DNSAddressAlt, e.IPv6DNSAddress, e.IPv6DNSAddressAlt),
		"wins":            addrList(e.WINSAddress, e.WINSAddressAlt),
		"dns_suffix":      e.DNSSuffix,
		"encryption_type": e.EncryptionType,
		"vpn_strategy":    e.VpnStrategy,
		"redial":          map[string]any{"count": e.RedialCount, "pause_seconds": e.RedialPause},
		"idle_disconnect": e.IdleDisconnectSeconds,
		"sub_entries":     []any{},
	}
}

func addrList(as ...netip.Addr) []any {
	out := []any{}
	for _, a := range as {
		if a.IsValid() && !a.IsUnspecified() {
			out = append(out, a.String())
		}
	}
	return out
}

func (c *cli) credentialsCommand() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "credentials <entry>",
		Short: "Show or clear saved credentials of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				mask := ras.CredUserName | ras.CredPassword | ras.CredDomain
				if err := c.client.ClearCredentials(c.phoneBook(), args[0], mask); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Credentials of %q cleared.\n", args[0])
				return nil
			}
			cr, err := c.client.Credentials(c.phoneBook(), args[0])
			if err != nil {
				return err
			}
			m := map[string]any{
				"entry_name":     args[0],
				"user_name":      cr.UserName,
				"domain":         cr.Domain,
				"password_saved": cr.Mask&ras.CredPassword != 0 && cr.Password != "",
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, m); done {
				return err
			}
			fields(cmd.OutOrStdout(), 10,
				"Entry", args[0],
				"User", orDash(cr.UserName),
				"Domain", orDash(cr.Domain),
				"Password", strconv.FormatBool(m["password_saved"].(bool)),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "Remove the saved user name, password and domain")
	return cmd
}

func (c *cli) countriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "countries [id]",
		Short: "List dialing country codes, or show one by TAPI id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var countries []ras.Country
			if len(args) == 1 {
				id, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid country id %q", args[0])
				}
				ct, err := c.client.Country(uint32(id))
				if err != nil {
					return err
				}
				countries = append(countries, ct)
			} else {
				var err error
				if countries, err = c.client.Countries(); err != nil {
					return err
				}
			}
			list := make([]any, 0, len(countries))
			for _, ct := range countries {
				list = append(list, map[string]any{"id": ct.ID, "code": ct.Code, "name": ct.Name})
			}
			if done, err := writeStructured(cmd.OutOrStdout(), c.opts.Output, map[string]any{"countries": list}); done {
				return err
			}
			t := newTable(cmd.OutOrStdout(), 6, 6)
			t.header("ID", "CODE", "NAME")
			for _, ct := range countries {
				t.row(strconv.FormatUint(uint64(ct.ID), 10), "+"+strconv.FormatUint(uint64(ct.Code), 10), ct.Name)
			}
			return nil
		},
	}
}

func (c *cli) errorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "error <code>",
		Short: "Print the system message for a RAS error code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(strings.TrimSpace(args[0]), 0, 32)
			if err != nil {
				return fmt.Errorf("invalid error code %q", args[0])
			}
			msg, err := c.client.ErrorString(native.ResultCode(n))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", n, msg)
			return nil
		},
	}
}

// describe renders a result code with its system message when available.
func (c *cli) describe(code native.ResultCode) string {
	msg, err := c.client.ErrorString(code)
	if err != nil || msg == "" {
		return code.String()
	}
	return fmt.Sprintf("%d (%s)", uint32(code), msg)
}
