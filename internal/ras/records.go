package ras

import "rasbridge/internal/layout"

// Fixed array lengths from ras.h, including the terminating NUL.
const (
	maxEntryName    = 256 + 1
	maxDeviceType   = 16 + 1
	maxDeviceName   = 128 + 1
	maxPhoneNumber  = 128 + 1
	maxCallback     = 128 + 1
	maxAreaCode     = 10 + 1
	maxPadType      = 32 + 1
	maxX25Address   = 200 + 1
	maxFacilities   = 200 + 1
	maxUserData     = 200 + 1
	maxUserName     = 256 + 1
	maxPassword     = 256 + 1
	maxDomain       = 15 + 1
	maxPath         = 260
	maxDnsSuffix    = 256
	maxIPAddress    = 15 + 1
	maxIpxAddress   = 21 + 1
	maxNetBiosName  = 16 + 1
	maxReplyMessage = 1024
)

var (
	defRASCONN = layout.NewDef("RASCONN",
		layout.U32("dwSize"),
		layout.Ptr("hrasconn"),
		layout.WChars("szEntryName", maxEntryName),
		layout.WChars("szDeviceType", maxDeviceType),
		layout.WChars("szDeviceName", maxDeviceName),
		layout.WChars("szPhonebook", maxPath),
		layout.U32("dwSubEntry"),
		layout.GUID("guidEntry").From(layout.Win2000),
		layout.U32("dwFlags").From(layout.WinXP),
		layout.LUID("luid").From(layout.WinXP),
		layout.GUID("guidCorrelationId").From(layout.WinVista),
	)

	defRASDEVINFO = layout.NewDef("RASDEVINFO",
		layout.U32("dwSize"),
		layout.WChars("szDeviceType", maxDeviceType),
		layout.WChars("szDeviceName", maxDeviceName),
	)

	defRASENTRYNAME = layout.NewDef("RASENTRYNAME",
		layout.U32("dwSize"),
		layout.WChars("szEntryName", maxEntryName),
		layout.U32("dwFlags").From(layout.Win2000),
		layout.WChars("szPhonebookPath", maxPath+1).From(layout.Win2000),
	)

	defRASENTRY = layout.NewDef("RASENTRY",
		layout.U32("dwSize"),
		layout.U32("dwfOptions"),
		layout.U32("dwCountryID"),
		layout.U32("dwCountryCode"),
		layout.WChars("szAreaCode", maxAreaCode),
		layout.WChars("szLocalPhoneNumber", maxPhoneNumber),
		layout.U32("dwAlternateOffset"),
		layout.Bytes("ipaddr", 4),
		layout.Bytes("ipaddrDns", 4),
		layout.Bytes("ipaddrDnsAlt", 4),
		layout.Bytes("ipaddrWins", 4),
		layout.Bytes("ipaddrWinsAlt", 4),
		layout.U32("dwFrameSize"),
		layout.U32("dwfNetProtocols"),
		layout.U32("dwFramingProtocol"),
		layout.WChars("szScript", maxPath),
		layout.WChars("szAutodialDll", maxPath),
		layout.WChars("szAutodialFunc", maxPath),
		layout.WChars("szDeviceType", maxDeviceType),
		layout.WChars("szDeviceName", maxDeviceName),
		layout.WChars("szX25PadType", maxPadType),
		layout.WChars("szX25Address", maxX25Address),
		layout.WChars("szX25Facilities", maxFacilities),
		layout.WChars("szX25UserData", maxUserData),
		layout.U32("dwChannels"),
		layout.U32("dwReserved1"),
		layout.U32("dwReserved2"),
		layout.U32("dwSubEntries"),
		layout.U32("dwDialMode"),
		layout.U32("dwDialExtraPercent"),
		layout.U32("dwDialExtraSampleSeconds"),
		layout.U32("dwHangUpExtraPercent"),
		layout.U32("dwHangUpExtraSampleSeconds"),
		layout.U32("dwIdleDisconnectSeconds"),
		layout.U32("dwType").From(layout.Win2000),
		layout.U32("dwEncryptionType").From(layout.Win2000),
		layout.U32("dwCustomAuthKey").From(layout.Win2000),
		layout.GUID("guidId").From(layout.Win2000),
		layout.WChars("szCustomDialDll", maxPath).From(layout.Win2000),
		layout.U32("dwVpnStrategy").From(layout.Win2000),
		layout.U32("dwfOptions2").From(layout.WinXP),
		layout.U32("dwfOptions3").From(layout.WinXP),
		layout.WChars("szDnsSuffix", maxDnsSuffix).From(layout.WinXP),
		layout.U32("dwTcpWindowSize").From(layout.WinXP),
		layout.WChars("szPrerequisitePbk", maxPath).From(layout.WinXP),
		layout.WChars("szPrerequisiteEntry", maxEntryName).From(layout.WinXP),
		layout.U32("dwRedialCount").From(layout.WinXP),
		layout.U32("dwRedialPause").From(layout.WinXP),
		layout.Bytes("ipv6addrDns", 16).From(layout.WinVista),
		layout.Bytes("ipv6addrDnsAlt", 16).From(layout.WinVista),
		layout.U32("dwIPv4InterfaceMetric").From(layout.WinVista),
		layout.U32("dwIPv6InterfaceMetric").From(layout.WinVista),
		layout.Bytes("ipv6addr", 16).From(layout.Win7),
		layout.U32("dwIPv6PrefixLength").From(layout.Win7),
		layout.U32("dwNetworkOutageTime").From(layout.Win7),
	)

	defRASSUBENTRY = layout.NewDef("RASSUBENTRY",
		layout.U32("dwSize"),
		layout.U32("dwfFlags"),
		layout.WChars("szDeviceType", maxDeviceType),
		layout.WChars("szDeviceName", maxDeviceName),
		layout.WChars("szLocalPhoneNumber", maxPhoneNumber),
		layout.U32("dwAlternateOffset"),
	)

	defRASDIALPARAMS = layout.NewDef("RASDIALPARAMS",
		layout.U32("dwSize"),
		layout.WChars("szEntryName", maxEntryName),
		layout.WChars("szPhoneNumber", maxPhoneNumber),
		layout.WChars("szCallbackNumber", maxCallback),
		layout.WChars("szUserName", maxUserName),
		layout.WChars("szPassword", maxPassword),
		layout.WChars("szDomain", maxDomain),
		layout.U32("dwSubEntry"),
		layout.Ptr("dwCallbackId"),
		layout.U32("dwIfIndex").From(layout.Win7),
	)

	defRASEAPINFO = layout.NewDef("RASEAPINFO",
		layout.U32("dwSizeofEapInfo"),
		layout.Ptr("pbEapInfo"),
	)

	defRASDEVSPECIFICINFO = layout.NewDef("RASDEVSPECIFICINFO",
		layout.U32("dwSize"),
		layout.Ptr("pbDevSpecificInfo"),
	)

	defRASDIALEXTENSIONS = layout.NewDef("RASDIALEXTENSIONS",
		layout.U32("dwSize"),
		layout.U32("dwfOptions"),
		layout.Ptr("hwndParent"),
		layout.Ptr("reserved"),
		layout.Ptr("reserved1").From(layout.Win2000),
		layout.Struct("RasEapInfo", defRASEAPINFO).From(layout.Win2000),
		layout.Bool("fSkipPppAuth").From(layout.Win7),
		layout.Struct("RasDevSpecificInfo", defRASDEVSPECIFICINFO).From(layout.Win7),
	)

	defRASTUNNELENDPOINT = layout.NewDef("RASTUNNELENDPOINT",
		layout.U32("dwType"),
		layout.Bytes("addr", 16),
	)

	defRASCONNSTATUS = layout.NewDef("RASCONNSTATUS",
		layout.U32("dwSize"),
		layout.U32("rasconnstate"),
		layout.U32("dwError"),
		layout.WChars("szDeviceType", maxDeviceType),
		layout.WChars("szDeviceName", maxDeviceName),
		layout.WChars("szPhoneNumber", maxPhoneNumber),
		layout.Struct("localEndPoint", defRASTUNNELENDPOINT).From(layout.Win7),
		layout.Struct("remoteEndPoint", defRASTUNNELENDPOINT).From(layout.Win7),
		layout.U32("rasconnsubstate").From(layout.Win7),
	)

	defRASSTATS = layout.NewDef("RAS_STATS",
		layout.U32("dwSize"),
		layout.U32("dwBytesXmited"),
		layout.U32("dwBytesRcved"),
		layout.U32("dwFramesXmited"),
		layout.U32("dwFramesRcved"),
		layout.U32("dwCrcErr"),
		layout.U32("dwTimeoutErr"),
		layout.U32("dwAlignmentErr"),
		layout.U32("dwHardwareOverrunErr"),
		layout.U32("dwFramingErr"),
		layout.U32("dwBufferOverrunErr"),
		layout.U32("dwCompressionRatioIn"),
		layout.U32("dwCompressionRatioOut"),
		layout.U32("dwBps"),
		layout.U32("dwConnectDuration"),
	)

	defRASCREDENTIALS = layout.NewDef("RASCREDENTIALS",
		layout.U32("dwSize"),
		layout.U32("dwMask"),
		layout.WChars("szUserName", maxUserName),
		layout.WChars("szPassword", maxPassword),
		layout.WChars("szDomain", maxDomain),
	)

	defRASCTRYINFO = layout.NewDef("RASCTRYINFO",
		layout.U32("dwSize"),
		layout.U32("dwCountryID"),
		layout.U32("dwNextCountryID"),
		layout.U32("dwCountryCode"),
		layout.U32("dwCountryNameOffset"),
	)
)

// Projection records.
var (
	defRASAMB = layout.NewDef("RASAMB",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.WChars("szNetBiosError", maxNetBiosName),
		layout.U8("bLana"),
	)

	defRASPPPNBF = layout.NewDef("RASPPPNBF",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.U32("dwNetBiosError"),
		layout.WChars("szNetBiosError", maxNetBiosName),
		layout.WChars("szWorkstationName", maxNetBiosName),
		layout.U8("bLana"),
	)

	defRASPPPIPX = layout.NewDef("RASPPPIPX",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.WChars("szIpxAddress", maxIpxAddress),
	)

	defRASPPPIP = layout.NewDef("RASPPPIP",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.WChars("szIpAddress", maxIPAddress),
		layout.WChars("szServerIpAddress", maxIPAddress),
		layout.U32("dwOptions").From(layout.Win2000),
		layout.U32("dwServerOptions").From(layout.Win2000),
	)

	defRASPPPCCP = layout.NewDef("RASPPPCCP",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.U32("dwCompressionAlgorithm"),
		layout.U32("dwOptions"),
		layout.U32("dwServerCompressionAlgorithm"),
		layout.U32("dwServerOptions"),
	)

	defRASPPPLCP = layout.NewDef("RASPPPLCP",
		layout.U32("dwSize"),
		layout.Bool("fBundled"),
		layout.U32("dwError").From(layout.Win2000),
		layout.U32("dwAuthenticationProtocol").From(layout.Win2000),
		layout.U32("dwAuthenticationData").From(layout.Win2000),
		layout.U32("dwEapTypeId").From(layout.Win2000),
		layout.U32("dwServerAuthenticationProtocol").From(layout.Win2000),
		layout.U32("dwServerAuthenticationData").From(layout.Win2000),
		layout.U32("dwServerEapTypeId").From(layout.Win2000),
		layout.Bool("fMultilink").From(layout.Win2000),
		layout.U32("dwTerminateReason").From(layout.Win2000),
		layout.U32("dwServerTerminateReason").From(layout.Win2000),
		layout.WChars("szReplyMessage", maxReplyMessage).From(layout.Win2000),
		layout.U32("dwOptions").From(layout.Win2000),
		layout.U32("dwServerOptions").From(layout.Win2000),
	)

	defRASSLIP = layout.NewDef("RASSLIP",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.WChars("szIpAddress", maxIPAddress),
	)

	defRASPPPIPV6 = layout.NewDef("RASPPPIPV6",
		layout.U32("dwSize"),
		layout.U32("dwError"),
		layout.Bytes("bLocalInterfaceIdentifier", 8),
		layout.Bytes("bPeerInterfaceIdentifier", 8),
		layout.Bytes("bLocalCompressionProtocol", 2),
		layout.Bytes("bPeerCompressionProtocol", 2),
	)

	// RAS_PROJECTION_INFO without its union; the payload starts at
	// projectionUnionOffset.
	defRASPROJECTIONINFO = layout.NewDef("RAS_PROJECTION_INFO",
		layout.U32("version"),
		layout.U32("type"),
	)

	defRASPPPPROJECTIONINFO = layout.NewDef("RASPPP_PROJECTION_INFO",
		layout.U32("dwIPv4NegotiationError"),
		layout.Bytes("ipv4Address", 4),
		layout.Bytes("ipv4ServerAddress", 4),
		layout.U32("dwIPv4Options"),
		layout.U32("dwIPv4ServerOptions"),
		layout.U32("dwIPv6NegotiationError"),
		layout.Bytes("bInterfaceIdentifier", 8),
		layout.Bytes("bServerInterfaceIdentifier", 8),
		layout.Bool("fBundled"),
		layout.Bool("fMultilink"),
		layout.U32("dwAuthenticationProtocol"),
		layout.U32("dwAuthenticationData"),
		layout.U32("dwServerAuthenticationProtocol"),
		layout.U32("dwServerAuthenticationData"),
		layout.U32("dwEapTypeId"),
		layout.U32("dwServerEapTypeId"),
		layout.U32("dwLcpOptions"),
		layout.U32("dwLcpServerOptions"),
		layout.U32("dwCcpError"),
		layout.U32("dwCcpCompressionAlgorithm"),
		layout.U32("dwCcpServerCompressionAlgorithm"),
		layout.U32("dwCcpOptions"),
		layout.U32("dwCcpServerOptions"),
	)

	defRASIKEV2PROJECTIONINFO = layout.NewDef("RASIKEV2_PROJECTION_INFO",
		layout.U32("dwIPv4NegotiationError"),
		layout.Bytes("ipv4Address", 4),
		layout.Bytes("ipv4ServerAddress", 4),
		layout.U32("dwIPv6NegotiationError"),
		layout.Bytes("ipv6Address", 16),
		layout.Bytes("ipv6ServerAddress", 16),
		layout.U32("dwPrefixLength"),
		layout.U32("dwAuthenticationProtocol"),
		layout.U32("dwEapTypeId"),
		layout.U32("dwFlags"),
		layout.U32("dwEncryptionMethod"),
		layout.U32("numIPv4ServerAddresses").From(layout.Win8),
		layout.Ptr("ipv4ServerAddresses").From(layout.Win8),
		layout.U32("numIPv6ServerAddresses").From(layout.Win8),
		layout.Ptr("ipv6ServerAddresses").From(layout.Win8),
	)
)

// projectionUnionOffset is where the RASPPP/RASIKEV2 payload starts inside
// RAS_PROJECTION_INFO. The union holds pointer-aligned members, so the
// offset is 8 on both 32- and 64-bit Windows.
const projectionUnionOffset = 8

// RecordType names a native record for RequiredSize.
type RecordType string

const (
	RecordConnection     RecordType = "RASCONN"
	RecordDevice         RecordType = "RASDEVINFO"
	RecordEntryName      RecordType = "RASENTRYNAME"
	RecordEntry          RecordType = "RASENTRY"
	RecordSubEntry       RecordType = "RASSUBENTRY"
	RecordDialParams     RecordType = "RASDIALPARAMS"
	RecordDialExtensions RecordType = "RASDIALEXTENSIONS"
	RecordConnStatus     RecordType = "RASCONNSTATUS"
	RecordStatistics     RecordType = "RAS_STATS"
	RecordCredentials    RecordType = "RASCREDENTIALS"
	RecordCountry        RecordType = "RASCTRYINFO"
)

var recordDefs = map[RecordType]*layout.Def{
	RecordConnection:     defRASCONN,
	RecordDevice:         defRASDEVINFO,
	RecordEntryName:      defRASENTRYNAME,
	RecordEntry:          defRASENTRY,
	RecordSubEntry:       defRASSUBENTRY,
	RecordDialParams:     defRASDIALPARAMS,
	RecordDialExtensions: defRASDIALEXTENSIONS,
	RecordConnStatus:     defRASCONNSTATUS,
	RecordStatistics:     defRASSTATS,
	RecordCredentials:    defRASCREDENTIALS,
	RecordCountry:        defRASCTRYINFO,
}

// RequiredSize returns the size the native API expects in dwSize for a
// record on release v of the host architecture, including the built-in size
// corrections. It returns -1 for an unknown record type.
func RequiredSize(rt RecordType, v layout.Version) int {
	return requiredSize(rt, v, layout.HostArch, layout.DefaultEntryCorrections)
}

func requiredSize(rt RecordType, v layout.Version, a layout.Arch, corr layout.CorrectionTable) int {
	def, ok := recordDefs[rt]
	if !ok {
		return -1
	}
	size := def.Resolve(v, a).Size
	if rt == RecordEntry {
		size = corr.Apply(v, size)
	}
	return size
}
