package ras

import (
	"net/netip"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// RAS_PROJECTION_INFO type values.
const (
	projectionTypePPP   = 1
	projectionTypeIKEv2 = 2
)

// RASAPIVERSION values written into RAS_PROJECTION_INFO.version.
const (
	apiVersion500 = 1
	apiVersion501 = 2
	apiVersion600 = 3
	apiVersion601 = 4
)

// PPPProjection is RASPPP_PROJECTION_INFO: the combined IPv4, IPv6, LCP and
// CCP results of a PPP connection.
type PPPProjection struct {
	IPv4NegotiationError native.ResultCode
	IPv4Address          netip.Addr
	IPv4ServerAddress    netip.Addr
	IPv4Options          uint32
	IPv4ServerOptions    uint32

	IPv6NegotiationError native.ResultCode
	InterfaceID          [8]byte
	ServerInterfaceID    [8]byte

	Bundled                      bool
	Multilink                    bool
	AuthenticationProtocol       uint32
	AuthenticationData           uint32
	ServerAuthenticationProtocol uint32
	ServerAuthenticationData     uint32
	EapTypeID                    uint32
	ServerEapTypeID              uint32
	LCPOptions                   uint32
	LCPServerOptions             uint32

	CCPError                      native.ResultCode
	CCPCompressionAlgorithm       uint32
	CCPServerCompressionAlgorithm uint32
	CCPOptions                    uint32
	CCPServerOptions              uint32
}

// IKEv2Projection is RASIKEV2_PROJECTION_INFO.
type IKEv2Projection struct {
	IPv4NegotiationError   native.ResultCode
	IPv4Address            netip.Addr
	IPv4ServerAddress      netip.Addr
	IPv6NegotiationError   native.ResultCode
	IPv6Address            netip.Addr
	IPv6ServerAddress      netip.Addr
	PrefixLength           uint32
	AuthenticationProtocol uint32
	EapTypeID              uint32
	Flags                  uint32
	EncryptionMethod       uint32
	IPv4ServerAddresses    []netip.Addr
	IPv6ServerAddresses    []netip.Addr
}

func (*PPPProjection) Kind() ProjectionKind   { return KindPPP }
func (*IKEv2Projection) Kind() ProjectionKind { return KindIKEv2 }
func (*PPPProjection) isProjection()          {}
func (*IKEv2Projection) isProjection()        {}

func decodePPPProjection(r layout.Record) *PPPProjection {
	return &PPPProjection{
		IPv4NegotiationError: native.ResultCode(r.U32("dwIPv4NegotiationError")),
		IPv4Address:          ipv4At(r, "ipv4Address"),
		IPv4ServerAddress:    ipv4At(r, "ipv4ServerAddress"),
		IPv4Options:          r.U32("dwIPv4Options"),
		IPv4ServerOptions:    r.U32("dwIPv4ServerOptions"),

		IPv6NegotiationError: native.ResultCode(r.U32("dwIPv6NegotiationError")),
		InterfaceID:          [8]byte(r.Bytes("bInterfaceIdentifier")),
		ServerInterfaceID:    [8]byte(r.Bytes("bServerInterfaceIdentifier")),

		Bundled:                      r.Bool("fBundled"),
		Multilink:                    r.Bool("fMultilink"),
		AuthenticationProtocol:       r.U32("dwAuthenticationProtocol"),
		AuthenticationData:           r.U32("dwAuthenticationData"),
		ServerAuthenticationProtocol: r.U32("dwServerAuthenticationProtocol"),
		ServerAuthenticationData:     r.U32("dwServerAuthenticationData"),
		EapTypeID:                    r.U32("dwEapTypeId"),
		ServerEapTypeID:              r.U32("dwServerEapTypeId"),
		LCPOptions:                   r.U32("dwLcpOptions"),
		LCPServerOptions:             r.U32("dwLcpServerOptions"),

		CCPError:                      native.ResultCode(r.U32("dwCcpError")),
		CCPCompressionAlgorithm:       r.U32("dwCcpCompressionAlgorithm"),
		CCPServerCompressionAlgorithm: r.U32("dwCcpServerCompressionAlgorithm"),
		CCPOptions:                    r.U32("dwCcpOptions"),
		CCPServerOptions:              r.U32("dwCcpServerOptions"),
	}
}

// decodeIKEv2Projection reads the record and, where the native layer
// pointed them into buf, its server address arrays.
func decodeIKEv2Projection(r layout.Record, buf *native.Buffer) *IKEv2Projection {
	p := &IKEv2Projection{
		IPv4NegotiationError:   native.ResultCode(r.U32("dwIPv4NegotiationError")),
		IPv4Address:            ipv4At(r, "ipv4Address"),
		IPv4ServerAddress:      ipv4At(r, "ipv4ServerAddress"),
		IPv6NegotiationError:   native.ResultCode(r.U32("dwIPv6NegotiationError")),
		IPv6Address:            ipv6At(r, "ipv6Address"),
		IPv6ServerAddress:      ipv6At(r, "ipv6ServerAddress"),
		PrefixLength:           r.U32("dwPrefixLength"),
		AuthenticationProtocol: r.U32("dwAuthenticationProtocol"),
		EapTypeID:              r.U32("dwEapTypeId"),
		Flags:                  r.U32("dwFlags"),
		EncryptionMethod:       r.U32("dwEncryptionMethod"),
	}
	if n := uint64(r.U32("numIPv4ServerAddresses")); n > 0 {
		if b, ok := bufferSlice(buf, r.Ptr("ipv4ServerAddresses"), 4*n); ok {
			for i := uint64(0); i < n; i++ {
				p.IPv4ServerAddresses = append(p.IPv4ServerAddresses, netip.AddrFrom4([4]byte(b[4*i:4*i+4])))
			}
		}
	}
	if n := uint64(r.U32("numIPv6ServerAddresses")); n > 0 {
		if b, ok := bufferSlice(buf, r.Ptr("ipv6ServerAddresses"), 16*n); ok {
			for i := uint64(0); i < n; i++ {
				p.IPv6ServerAddresses = append(p.IPv6ServerAddresses, netip.AddrFrom16([16]byte(b[16*i:16*i+16])))
			}
		}
	}
	return p
}

// apiVersion is the RASAPIVERSION matching the client's release.
func (c *Client) apiVersion() uint32 {
	switch {
	case c.version.AtLeast(layout.Win7):
		return apiVersion601
	case c.version.AtLeast(layout.WinVista):
		return apiVersion600
	case c.version.AtLeast(layout.WinXP):
		return apiVersion501
	default:
		return apiVersion500
	}
}

// projectionExSize is the size of RAS_PROJECTION_INFO: the header plus the
// larger union member, rounded to pointer alignment.
func (c *Client) projectionExSize() int {
	ppp := c.layoutOf(defRASPPPPROJECTIONINFO)
	ike := c.layoutOf(defRASIKEV2PROJECTIONINFO)
	n := max(ppp.Size, ike.Size)
	a := c.arch.PtrSize
	return projectionUnionOffset + (n+a-1)/a*a
}

// ProjectionEx returns the PPP or IKEv2 projection of a connection, as
// reported in the header of the native result. It returns nil when the
// connection has no projection information or reports an unknown type.
func (c *Client) ProjectionEx(h *Handle) (Projection, error) {
	const op = "ProjectionEx"
	if err := c.use(op, h); err != nil {
		return nil, err
	}
	var out Projection
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(c.projectionExSize()),
		prepare: func(buf *native.Buffer) error {
			rec, err := c.record(defRASPROJECTIONINFO, buf)
			if err != nil {
				return err
			}
			rec.SetU32("version", c.apiVersion())
			return nil
		},
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			return c.call("RasGetProjectionInfoEx", func() native.ResultCode {
				return c.api.GetProjectionInfoEx(h.raw, buf, size)
			}, h.raw)
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			hdr, err := c.record(defRASPROJECTIONINFO, buf)
			if err != nil {
				return err
			}
			payload := buf.Bytes()[projectionUnionOffset:]
			switch hdr.U32("type") {
			case projectionTypePPP:
				rec, err := layout.NewRecord(c.layoutOf(defRASPPPPROJECTIONINFO), payload)
				if err != nil {
					return err
				}
				out = decodePPPProjection(rec)
			case projectionTypeIKEv2:
				rec, err := layout.NewRecord(c.layoutOf(defRASIKEV2PROJECTIONINFO), payload)
				if err != nil {
					return err
				}
				out = decodeIKEv2Projection(rec, buf)
			}
			return nil
		},
		empty: projectionAbsent,
		fail:  c.handleFail(op, h),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
