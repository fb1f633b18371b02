package ras

import (
	"fmt"
	"net/netip"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// Protocol is a RASPROJECTION value selecting one legacy projection record.
type Protocol uint32

const (
	ProtocolAmb  Protocol = 0x10000
	ProtocolNbf  Protocol = 0x803F
	ProtocolIPX  Protocol = 0x802B
	ProtocolIP   Protocol = 0x8021
	ProtocolCCP  Protocol = 0x80FD
	ProtocolLCP  Protocol = 0xC021
	ProtocolSlip Protocol = 0x20000
	ProtocolIPv6 Protocol = 0x8057
)

// AllProtocols returns every protocol Projection can decode.
func AllProtocols() []Protocol {
	return []Protocol{
		ProtocolAmb, ProtocolNbf, ProtocolIPX, ProtocolIP,
		ProtocolCCP, ProtocolLCP, ProtocolSlip, ProtocolIPv6,
	}
}

func (p Protocol) String() string {
	if codec, ok := projectionCodecs[p]; ok {
		return codec.kind.String()
	}
	return fmt.Sprintf("Protocol(%#x)", uint32(p))
}

// ProjectionKind identifies the variant held by a Projection.
type ProjectionKind int

const (
	KindAmb ProjectionKind = iota + 1
	KindNbf
	KindIPX
	KindIP
	KindCCP
	KindLCP
	KindSlip
	KindIPv6
	KindPPP
	KindIKEv2
)

var kindNames = map[ProjectionKind]string{
	KindAmb:   "AMB",
	KindNbf:   "NBF",
	KindIPX:   "IPX",
	KindIP:    "IP",
	KindCCP:   "CCP",
	KindLCP:   "LCP",
	KindSlip:  "SLIP",
	KindIPv6:  "IPv6",
	KindPPP:   "PPP",
	KindIKEv2: "IKEv2",
}

func (k ProjectionKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ProjectionKind(%d)", int(k))
}

// Projection is the result of one protocol negotiation. The concrete type
// is one of the *Projection structs in this package, selected by Kind.
type Projection interface {
	Kind() ProjectionKind
	isProjection()
}

type AmbProjection struct {
	ErrorCode    native.ResultCode
	NetBiosError string
	Lana         uint8
}

type NbfProjection struct {
	ErrorCode        native.ResultCode
	NetBiosErrorCode uint32
	NetBiosError     string
	WorkstationName  string
	Lana             uint8
}

type IPXProjection struct {
	ErrorCode  native.ResultCode
	IPXAddress string
}

type IPProjection struct {
	ErrorCode       native.ResultCode
	IPAddress       netip.Addr
	ServerIPAddress netip.Addr
	Options         uint32
	ServerOptions   uint32
}

type CCPProjection struct {
	ErrorCode                  native.ResultCode
	CompressionAlgorithm       uint32
	Options                    uint32
	ServerCompressionAlgorithm uint32
	ServerOptions              uint32
}

type LCPProjection struct {
	Bundled                      bool
	ErrorCode                    native.ResultCode
	AuthenticationProtocol       uint32
	AuthenticationData           uint32
	EapTypeID                    uint32
	ServerAuthenticationProtocol uint32
	ServerAuthenticationData     uint32
	ServerEapTypeID              uint32
	Multilink                    bool
	TerminateReason              uint32
	ServerTerminateReason        uint32
	ReplyMessage                 string
	Options                      uint32
	ServerOptions                uint32
}

type SlipProjection struct {
	ErrorCode native.ResultCode
	IPAddress netip.Addr
}

type IPv6Projection struct {
	ErrorCode                native.ResultCode
	LocalInterfaceID         [8]byte
	PeerInterfaceID          [8]byte
	LocalCompressionProtocol [2]byte
	PeerCompressionProtocol  [2]byte
}

func (*AmbProjection) Kind() ProjectionKind  { return KindAmb }
func (*NbfProjection) Kind() ProjectionKind  { return KindNbf }
func (*IPXProjection) Kind() ProjectionKind  { return KindIPX }
func (*IPProjection) Kind() ProjectionKind   { return KindIP }
func (*CCPProjection) Kind() ProjectionKind  { return KindCCP }
func (*LCPProjection) Kind() ProjectionKind  { return KindLCP }
func (*SlipProjection) Kind() ProjectionKind { return KindSlip }
func (*IPv6Projection) Kind() ProjectionKind { return KindIPv6 }

func (*AmbProjection) isProjection()  {}
func (*NbfProjection) isProjection()  {}
func (*IPXProjection) isProjection()  {}
func (*IPProjection) isProjection()   {}
func (*CCPProjection) isProjection()  {}
func (*LCPProjection) isProjection()  {}
func (*SlipProjection) isProjection() {}
func (*IPv6Projection) isProjection() {}

// projectionCodec ties a protocol to the record requested for it and the
// decoder applied to the result. Both come from the same entry so they can
// never disagree.
type projectionCodec struct {
	kind   ProjectionKind
	def    *layout.Def
	decode func(rec layout.Record) Projection
}

var projectionCodecs = map[Protocol]projectionCodec{
	ProtocolAmb: {KindAmb, defRASAMB, func(r layout.Record) Projection {
		return &AmbProjection{
			ErrorCode:    native.ResultCode(r.U32("dwError")),
			NetBiosError: r.String("szNetBiosError"),
			Lana:         r.U8("bLana"),
		}
	}},
	ProtocolNbf: {KindNbf, defRASPPPNBF, func(r layout.Record) Projection {
		return &NbfProjection{
			ErrorCode:        native.ResultCode(r.U32("dwError")),
			NetBiosErrorCode: r.U32("dwNetBiosError"),
			NetBiosError:     r.String("szNetBiosError"),
			WorkstationName:  r.String("szWorkstationName"),
			Lana:             r.U8("bLana"),
		}
	}},
	ProtocolIPX: {KindIPX, defRASPPPIPX, func(r layout.Record) Projection {
		return &IPXProjection{
			ErrorCode:  native.ResultCode(r.U32("dwError")),
			IPXAddress: r.String("szIpxAddress"),
		}
	}},
	ProtocolIP: {KindIP, defRASPPPIP, func(r layout.Record) Projection {
		return &IPProjection{
			ErrorCode:       native.ResultCode(r.U32("dwError")),
			IPAddress:       parseAddr(r, "szIpAddress"),
			ServerIPAddress: parseAddr(r, "szServerIpAddress"),
			Options:         r.U32("dwOptions"),
			ServerOptions:   r.U32("dwServerOptions"),
		}
	}},
	ProtocolCCP: {KindCCP, defRASPPPCCP, func(r layout.Record) Projection {
		return &CCPProjection{
			ErrorCode:                  native.ResultCode(r.U32("dwError")),
			CompressionAlgorithm:       r.U32("dwCompressionAlgorithm"),
			Options:                    r.U32("dwOptions"),
			ServerCompressionAlgorithm: r.U32("dwServerCompressionAlgorithm"),
			ServerOptions:              r.U32("dwServerOptions"),
		}
	}},
	ProtocolLCP: {KindLCP, defRASPPPLCP, func(r layout.Record) Projection {
		return &LCPProjection{
			Bundled:                      r.Bool("fBundled"),
			ErrorCode:                    native.ResultCode(r.U32("dwError")),
			AuthenticationProtocol:       r.U32("dwAuthenticationProtocol"),
			AuthenticationData:           r.U32("dwAuthenticationData"),
			EapTypeID:                    r.U32("dwEapTypeId"),
			ServerAuthenticationProtocol: r.U32("dwServerAuthenticationProtocol"),
			ServerAuthenticationData:     r.U32("dwServerAuthenticationData"),
			ServerEapTypeID:              r.U32("dwServerEapTypeId"),
			Multilink:                    r.Bool("fMultilink"),
			TerminateReason:              r.U32("dwTerminateReason"),
			ServerTerminateReason:        r.U32("dwServerTerminateReason"),
			ReplyMessage:                 r.String("szReplyMessage"),
			Options:                      r.U32("dwOptions"),
			ServerOptions:                r.U32("dwServerOptions"),
		}
	}},
	ProtocolSlip: {KindSlip, defRASSLIP, func(r layout.Record) Projection {
		return &SlipProjection{
			ErrorCode: native.ResultCode(r.U32("dwError")),
			IPAddress: parseAddr(r, "szIpAddress"),
		}
	}},
	ProtocolIPv6: {KindIPv6, defRASPPPIPV6, func(r layout.Record) Projection {
		return &IPv6Projection{
			ErrorCode:                native.ResultCode(r.U32("dwError")),
			LocalInterfaceID:         [8]byte(r.Bytes("bLocalInterfaceIdentifier")),
			PeerInterfaceID:          [8]byte(r.Bytes("bPeerInterfaceIdentifier")),
			LocalCompressionProtocol: [2]byte(r.Bytes("bLocalCompressionProtocol")),
			PeerCompressionProtocol:  [2]byte(r.Bytes("bPeerCompressionProtocol")),
		}
	}},
}

// projectionAbsent are the codes that mean the protocol was not negotiated.
var projectionAbsent = []native.ResultCode{native.ErrorInvalidParameter, native.ErrorProtocolNotConfigured}

// Projection returns the negotiation result for one protocol, or nil when
// the protocol was not negotiated on this connection. Unknown protocols
// return nil without calling the native layer.
func (c *Client) Projection(h *Handle, p Protocol) (Projection, error) {
	const op = "Projection"
	if err := c.use(op, h); err != nil {
		return nil, err
	}
	codec, ok := projectionCodecs[p]
	if !ok {
		return nil, nil
	}
	l := c.layoutOf(codec.def)
	var out Projection
	err := c.negotiate(negotiation{
		op:      op,
		initial: uint32(l.Size),
		prepare: c.sizedPrepare(codec.def),
		invoke: func(buf *native.Buffer, size, _ *uint32) native.ResultCode {
			return c.call("RasGetProjectionInfo", func() native.ResultCode {
				return c.api.GetProjectionInfo(h.raw, uint32(p), buf, size)
			}, h.raw, p)
		},
		consume: func(buf *native.Buffer, _, _ uint32) error {
			rec, err := layout.NewRecord(l, buf.Bytes())
			if err != nil {
				return err
			}
			out = codec.decode(rec)
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

// Projections returns every negotiated legacy projection of a connection.
func (c *Client) Projections(h *Handle) ([]Projection, error) {
	var out []Projection
	for _, p := range AllProtocols() {
		pr, err := c.Projection(h, p)
		if err != nil {
			return nil, err
		}
		if pr != nil {
			out = append(out, pr)
		}
	}
	return out, nil
}
