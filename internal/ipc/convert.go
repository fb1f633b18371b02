package ipc

import (
	"encoding/hex"
	"net/netip"
	"time"

	"rasbridge/internal/monitor"
	"rasbridge/internal/ras"
)

// Field maps hold only values structpb.NewStruct accepts: strings, bools,
// integers, nested maps and []any.

// ─── Connections ────────────────────────────────────────────────────

// ConnectionFields flattens one monitored connection.
func ConnectionFields(cs monitor.ConnectionStats) map[string]any {
	cn := cs.Connection
	m := map[string]any{
		"entry_name":  cn.EntryName,
		"handle":      uint64(cn.Handle.Raw()),
		"device_type": cn.DeviceType,
		"device_name": cn.DeviceName,
		"phone_book":  cn.PhoneBook,
		"sub_entry":   cn.SubEntry,
		"entry_id":    cn.EntryID.String(),
		"flags":       cn.Flags,
		"luid":        cn.LUID,
	}
	if !cs.Since.IsZero() {
		m["since"] = cs.Since.UTC().Format(time.RFC3339)
	}
	if cs.HasStats {
		m["statistics"] = StatisticsFields(cs.Stats)
		m["speed_tx"] = cs.SpeedTx
		m["speed_rx"] = cs.SpeedRx
	}
	return m
}

// StatisticsFields flattens RAS_STATS.
func StatisticsFields(st ras.Statistics) map[string]any {
	return map[string]any{
		"bytes_transmitted":       st.BytesTransmitted,
		"bytes_received":          st.BytesReceived,
		"frames_transmitted":      st.FramesTransmitted,
		"frames_received":         st.FramesReceived,
		"crc_errors":              st.CRCErrors,
		"timeout_errors":          st.TimeoutErrors,
		"alignment_errors":        st.AlignmentErrors,
		"hardware_overrun_errors": st.HardwareOverrunErrors,
		"framing_errors":          st.FramingErrors,
		"buffer_overrun_errors":   st.BufferOverrunErrors,
		"compression_ratio_in":    st.CompressionRatioIn,
		"compression_ratio_out":   st.CompressionRatioOut,
		"link_speed":              st.LinkSpeed,
		"connect_duration_ms":     st.ConnectDuration.Milliseconds(),
	}
}

// ─── Projections ────────────────────────────────────────────────────

func addr(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func addrs(as []netip.Addr) []any {
	out := make([]any, 0, len(as))
	for _, a := range as {
		out = append(out, a.String())
	}
	return out
}

// ProjectionFields flattens any projection variant. The "kind" key names
// the variant.
func ProjectionFields(p ras.Projection) map[string]any {
	m := map[string]any{"kind": p.Kind().String()}
	switch p := p.(type) {
	case *ras.AmbProjection:
		m["error"] = uint32(p.ErrorCode)
		m["netbios_error"] = p.NetBiosError
		m["lana"] = uint32(p.Lana)
	case *ras.NbfProjection:
		m["error"] = uint32(p.ErrorCode)
		m["netbios_error"] = p.NetBiosError
		m["workstation_name"] = p.WorkstationName
		m["lana"] = uint32(p.Lana)
	case *ras.IPXProjection:
		m["error"] = uint32(p.ErrorCode)
		m["ipx_address"] = p.IPXAddress
	case *ras.IPProjection:
		m["error"] = uint32(p.ErrorCode)
		m["ip_address"] = addr(p.IPAddress)
		m["server_ip_address"] = addr(p.ServerIPAddress)
		m["options"] = p.Options
		m["server_options"] = p.ServerOptions
	case *ras.CCPProjection:
		m["error"] = uint32(p.ErrorCode)
		m["compression_algorithm"] = p.CompressionAlgorithm
		m["server_compression_algorithm"] = p.ServerCompressionAlgorithm
	case *ras.LCPProjection:
		m["error"] = uint32(p.ErrorCode)
		m["bundled"] = p.Bundled
		m["multilink"] = p.Multilink
		m["authentication_protocol"] = p.AuthenticationProtocol
		m["eap_type_id"] = p.EapTypeID
		m["terminate_reason"] = p.TerminateReason
		m["reply_message"] = p.ReplyMessage
	case *ras.SlipProjection:
		m["error"] = uint32(p.ErrorCode)
		m["ip_address"] = addr(p.IPAddress)
	case *ras.IPv6Projection:
		m["error"] = uint32(p.ErrorCode)
		m["local_interface_id"] = hex.EncodeToString(p.LocalInterfaceID[:])
		m["peer_interface_id"] = hex.EncodeToString(p.PeerInterfaceID[:])
	case *ras.PPPProjection:
		m["ipv4_error"] = uint32(p.IPv4NegotiationError)
		m["ipv4_address"] = addr(p.IPv4Address)
		m["ipv4_server_address"] = addr(p.IPv4ServerAddress)
		m["ipv6_error"] = uint32(p.IPv6NegotiationError)
		m["interface_id"] = hex.EncodeToString(p.InterfaceID[:])
		m["bundled"] = p.Bundled
		m["multilink"] = p.Multilink
		m["authentication_protocol"] = p.AuthenticationProtocol
		m["ccp_error"] = uint32(p.CCPError)
		m["ccp_compression_algorithm"] = p.CCPCompressionAlgorithm
	case *ras.IKEv2Projection:
		m["ipv4_error"] = uint32(p.IPv4NegotiationError)
		m["ipv4_address"] = addr(p.IPv4Address)
		m["ipv4_server_address"] = addr(p.IPv4ServerAddress)
		m["ipv6_error"] = uint32(p.IPv6NegotiationError)
		m["ipv6_address"] = addr(p.IPv6Address)
		m["ipv6_server_address"] = addr(p.IPv6ServerAddress)
		m["prefix_length"] = p.PrefixLength
		m["authentication_protocol"] = p.AuthenticationProtocol
		m["eap_type_id"] = p.EapTypeID
		m["flags"] = p.Flags
		m["encryption_method"] = p.EncryptionMethod
		m["ipv4_server_addresses"] = addrs(p.IPv4ServerAddresses)
		m["ipv6_server_addresses"] = addrs(p.IPv6ServerAddresses)
	}
	return m
}
