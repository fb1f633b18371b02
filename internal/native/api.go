// Package native declares the rasapi32 call surface.
//
// Every method mirrors one exported rasapi32 function: buffers are passed as
// caller-allocated Buffers, in/out sizes and counts as pointers, and the raw
// result code is returned untranslated. Translation into Go errors happens in
// package ras.
package native

import "unsafe"

// Handle is a raw HRASCONN value.
type Handle uintptr

// PointerSize is the size of a native pointer on the running architecture.
const PointerSize = int(unsafe.Sizeof(uintptr(0)))

// DialNotifier receives RasDialFunc2 notifications. It may be called on an
// arbitrary OS thread and must return quickly; returning false asks the
// native layer to stop sending notifications for this dial.
type DialNotifier func(subEntry uint32, h Handle, state uint32, code ResultCode, extended uint32) bool

// API is the set of rasapi32 entry points used by the bridge.
//
// String arguments are converted to wide strings by the implementation; an
// empty phoneBook selects the system default phone book.
type API interface {
	// RasDialW. ext may be nil. A nil notifier dials synchronously;
	// otherwise callbackID must equal the dwCallbackId written into params
	// and notifications are routed to notify until a terminal state.
	Dial(ext *Buffer, phoneBook string, params *Buffer, callbackID uintptr, notify DialNotifier, h *Handle) ResultCode
	// RasHangUpW.
	HangUp(h Handle) ResultCode
	// RasGetConnectStatusW. status.dwSize must be set.
	GetConnectStatus(h Handle, status *Buffer) ResultCode
	// RasEnumConnectionsW.
	EnumConnections(buf *Buffer, size *uint32, count *uint32) ResultCode
	// RasEnumDevicesW.
	EnumDevices(buf *Buffer, size *uint32, count *uint32) ResultCode
	// RasEnumEntriesW.
	EnumEntries(phoneBook string, buf *Buffer, size *uint32, count *uint32) ResultCode
	// RasGetEntryPropertiesW (device-specific info is not requested).
	GetEntryProperties(phoneBook, entry string, buf *Buffer, size *uint32) ResultCode
	// RasSetEntryPropertiesW.
	SetEntryProperties(phoneBook, entry string, buf *Buffer, size uint32) ResultCode
	// RasValidateEntryNameW.
	ValidateEntryName(phoneBook, entry string) ResultCode
	// RasDeleteEntryW.
	DeleteEntry(phoneBook, entry string) ResultCode
	// RasRenameEntryW.
	RenameEntry(phoneBook, oldName, newName string) ResultCode
	// RasGetSubEntryPropertiesW.
	GetSubEntryProperties(phoneBook, entry string, index uint32, buf *Buffer, size *uint32) ResultCode
	// RasSetSubEntryPropertiesW.
	SetSubEntryProperties(phoneBook, entry string, index uint32, buf *Buffer, size uint32) ResultCode
	// RasGetCredentialsW. creds.dwSize and dwMask must be set.
	GetCredentials(phoneBook, entry string, creds *Buffer) ResultCode
	// RasSetCredentialsW.
	SetCredentials(phoneBook, entry string, creds *Buffer, clear bool) ResultCode
	// RasGetEntryDialParamsW.
	GetEntryDialParams(phoneBook string, params *Buffer, hasPassword *bool) ResultCode
	// RasSetEntryDialParamsW.
	SetEntryDialParams(phoneBook string, params *Buffer, removePassword bool) ResultCode
	// RasGetSubEntryHandleW.
	GetSubEntryHandle(h Handle, index uint32, sub *Handle) ResultCode
	// RasGetConnectionStatistics.
	GetConnectionStatistics(h Handle, stats *Buffer) ResultCode
	// RasClearConnectionStatistics.
	ClearConnectionStatistics(h Handle) ResultCode
	// RasGetLinkStatistics.
	GetLinkStatistics(h Handle, subEntry uint32, stats *Buffer) ResultCode
	// RasClearLinkStatistics.
	ClearLinkStatistics(h Handle, subEntry uint32) ResultCode
	// RasGetProjectionInfoW.
	GetProjectionInfo(h Handle, protocol uint32, buf *Buffer, size *uint32) ResultCode
	// RasGetProjectionInfoEx.
	GetProjectionInfoEx(h Handle, buf *Buffer, size *uint32) ResultCode
	// RasGetCountryInfoW. The dwCountryID of the first record selects the country.
	GetCountryInfo(buf *Buffer, size *uint32) ResultCode
	// RasGetErrorStringW. size is in bytes and is not updated by the native call.
	GetErrorString(code uint32, buf *Buffer) ResultCode
}
