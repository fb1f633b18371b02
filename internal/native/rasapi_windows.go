//go:build windows

package native

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modRasAPI32 = windows.NewLazySystemDLL("rasapi32.dll")

	procRasDialW                     = modRasAPI32.NewProc("RasDialW")
	procRasHangUpW                   = modRasAPI32.NewProc("RasHangUpW")
	procRasGetConnectStatusW         = modRasAPI32.NewProc("RasGetConnectStatusW")
	procRasEnumConnectionsW          = modRasAPI32.NewProc("RasEnumConnectionsW")
	procRasEnumDevicesW              = modRasAPI32.NewProc("RasEnumDevicesW")
	procRasEnumEntriesW              = modRasAPI32.NewProc("RasEnumEntriesW")
	procRasGetEntryPropertiesW       = modRasAPI32.NewProc("RasGetEntryPropertiesW")
	procRasSetEntryPropertiesW       = modRasAPI32.NewProc("RasSetEntryPropertiesW")
	procRasValidateEntryNameW        = modRasAPI32.NewProc("RasValidateEntryNameW")
	procRasDeleteEntryW              = modRasAPI32.NewProc("RasDeleteEntryW")
	procRasRenameEntryW              = modRasAPI32.NewProc("RasRenameEntryW")
	procRasGetSubEntryPropertiesW    = modRasAPI32.NewProc("RasGetSubEntryPropertiesW")
	procRasSetSubEntryPropertiesW    = modRasAPI32.NewProc("RasSetSubEntryPropertiesW")
	procRasGetCredentialsW           = modRasAPI32.NewProc("RasGetCredentialsW")
	procRasSetCredentialsW           = modRasAPI32.NewProc("RasSetCredentialsW")
	procRasGetEntryDialParamsW       = modRasAPI32.NewProc("RasGetEntryDialParamsW")
	procRasSetEntryDialParamsW       = modRasAPI32.NewProc("RasSetEntryDialParamsW")
	procRasGetSubEntryHandleW        = modRasAPI32.NewProc("RasGetSubEntryHandleW")
	procRasGetConnectionStatistics   = modRasAPI32.NewProc("RasGetConnectionStatistics")
	procRasClearConnectionStatistics = modRasAPI32.NewProc("RasClearConnectionStatistics")
	procRasGetLinkStatistics         = modRasAPI32.NewProc("RasGetLinkStatistics")
	procRasClearLinkStatistics       = modRasAPI32.NewProc("RasClearLinkStatistics")
	procRasGetProjectionInfoW        = modRasAPI32.NewProc("RasGetProjectionInfoW")
	procRasGetProjectionInfoEx       = modRasAPI32.NewProc("RasGetProjectionInfoEx")
	procRasGetCountryInfoW           = modRasAPI32.NewProc("RasGetCountryInfoW")
	procRasGetErrorStringW           = modRasAPI32.NewProc("RasGetErrorStringW")
)

// RasDial notifier type for RasDialFunc2.
const notifierRasDialFunc2 = 2

// Terminal RASCONNSTATE values (RASCS_DONE and RASCS_Disconnected).
const (
	stateConnected    = 0x2000
	stateDisconnected = 0x2001
)

// Windows implements API on top of rasapi32.dll.
type Windows struct{}

// NewWindows returns the rasapi32-backed call surface.
func NewWindows() *Windows { return &Windows{} }

// call invokes p, reporting a missing export as ERROR_PROC_NOT_FOUND so the
// caller sees one "unsupported" condition regardless of the entry point.
func call(p *windows.LazyProc, args ...uintptr) ResultCode {
	if err := p.Find(); err != nil {
		return ErrorProcNotFound
	}
	r, _, _ := p.Call(args...)
	return ResultCode(r)
}

// wide converts s to a NUL-terminated UTF-16 pointer; "" maps to NULL.
func wide(s string) (*uint16, bool) {
	if s == "" {
		return nil, true
	}
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil, false
	}
	return p, true
}

func bufPtr(b *Buffer) unsafe.Pointer {
	if b == nil || len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

func boolArg(v bool) uintptr {
	if v {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// RasDialFunc2 trampoline
// ---------------------------------------------------------------------------

var (
	dialMu        sync.Mutex
	dialNotifiers = make(map[uintptr]DialNotifier)

	dialCallbackOnce sync.Once
	dialCallback     uintptr
)

// rasDialFunc2 is the single native callback shared by all dials; the
// callback id routes each notification to its registered notifier.
func rasDialFunc2(id, subEntry, h, msg, state, code, extended uintptr) uintptr {
	dialMu.Lock()
	fn := dialNotifiers[id]
	dialMu.Unlock()
	if fn == nil {
		return 0
	}

	more := fn(uint32(subEntry), Handle(h), uint32(state), ResultCode(code), uint32(extended))
	if !more || code != 0 || state == stateConnected || state == stateDisconnected {
		unregisterNotifier(id)
		return 0
	}
	return 1
}

func registerNotifier(id uintptr, fn DialNotifier) uintptr {
	dialCallbackOnce.Do(func() {
		dialCallback = windows.NewCallback(rasDialFunc2)
	})
	dialMu.Lock()
	dialNotifiers[id] = fn
	dialMu.Unlock()
	return dialCallback
}

func unregisterNotifier(id uintptr) {
	dialMu.Lock()
	delete(dialNotifiers, id)
	dialMu.Unlock()
}

// ---------------------------------------------------------------------------
// API
// ---------------------------------------------------------------------------

func (w *Windows) Dial(ext *Buffer, phoneBook string, params *Buffer, callbackID uintptr, notify DialNotifier, h *Handle) ResultCode {
	pb, ok := wide(phoneBook)
	if !ok {
		return ErrorInvalidParameter
	}

	var notifierType, notifier uintptr
	if notify != nil {
		notifierType = notifierRasDialFunc2
		notifier = registerNotifier(callbackID, notify)
	}

	r := call(procRasDialW,
		uintptr(bufPtr(ext)),
		uintptr(unsafe.Pointer(pb)),
		uintptr(bufPtr(params)),
		notifierType,
		notifier,
		uintptr(unsafe.Pointer(h)),
	)
	if r != Success && notify != nil {
		unregisterNotifier(callbackID)
	}
	return r
}

func (w *Windows) HangUp(h Handle) ResultCode {
	return call(procRasHangUpW, uintptr(h))
}

func (w *Windows) GetConnectStatus(h Handle, status *Buffer) ResultCode {
	return call(procRasGetConnectStatusW, uintptr(h), uintptr(bufPtr(status)))
}

func (w *Windows) EnumConnections(buf *Buffer, size *uint32, count *uint32) ResultCode {
	return call(procRasEnumConnectionsW,
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
		uintptr(unsafe.Pointer(count)),
	)
}

func (w *Windows) EnumDevices(buf *Buffer, size *uint32, count *uint32) ResultCode {
	return call(procRasEnumDevicesW,
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
		uintptr(unsafe.Pointer(count)),
	)
}

func (w *Windows) EnumEntries(phoneBook string, buf *Buffer, size *uint32, count *uint32) ResultCode {
	pb, ok := wide(phoneBook)
	if !ok {
		return ErrorInvalidParameter
	}
	return call(procRasEnumEntriesW,
		0,
		uintptr(unsafe.Pointer(pb)),
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
		uintptr(unsafe.Pointer(count)),
	)
}

func (w *Windows) GetEntryProperties(phoneBook, entry string, buf *Buffer, size *uint32) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasGetEntryPropertiesW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
		0, 0,
	)
}

func (w *Windows) SetEntryProperties(phoneBook, entry string, buf *Buffer, size uint32) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasSetEntryPropertiesW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(bufPtr(buf)),
		uintptr(size),
		0, 0,
	)
}

func (w *Windows) ValidateEntryName(phoneBook, entry string) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasValidateEntryNameW, uintptr(unsafe.Pointer(pb)), uintptr(unsafe.Pointer(en)))
}

func (w *Windows) DeleteEntry(phoneBook, entry string) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasDeleteEntryW, uintptr(unsafe.Pointer(pb)), uintptr(unsafe.Pointer(en)))
}

func (w *Windows) RenameEntry(phoneBook, oldName, newName string) ResultCode {
	pb, ok1 := wide(phoneBook)
	on, ok2 := wide(oldName)
	nn, ok3 := wide(newName)
	if !ok1 || !ok2 || !ok3 {
		return ErrorInvalidParameter
	}
	return call(procRasRenameEntryW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(on)),
		uintptr(unsafe.Pointer(nn)),
	)
}

func (w *Windows) GetSubEntryProperties(phoneBook, entry string, index uint32, buf *Buffer, size *uint32) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasGetSubEntryPropertiesW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(index),
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
		0, 0,
	)
}

func (w *Windows) SetSubEntryProperties(phoneBook, entry string, index uint32, buf *Buffer, size uint32) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasSetSubEntryPropertiesW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(index),
		uintptr(bufPtr(buf)),
		uintptr(size),
		0, 0,
	)
}

func (w *Windows) GetCredentials(phoneBook, entry string, creds *Buffer) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasGetCredentialsW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(bufPtr(creds)),
	)
}

func (w *Windows) SetCredentials(phoneBook, entry string, creds *Buffer, clear bool) ResultCode {
	pb, ok1 := wide(phoneBook)
	en, ok2 := wide(entry)
	if !ok1 || !ok2 {
		return ErrorInvalidParameter
	}
	return call(procRasSetCredentialsW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(unsafe.Pointer(en)),
		uintptr(bufPtr(creds)),
		boolArg(clear),
	)
}

func (w *Windows) GetEntryDialParams(phoneBook string, params *Buffer, hasPassword *bool) ResultCode {
	pb, ok := wide(phoneBook)
	if !ok {
		return ErrorInvalidParameter
	}
	var fPassword int32
	r := call(procRasGetEntryDialParamsW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(bufPtr(params)),
		uintptr(unsafe.Pointer(&fPassword)),
	)
	if hasPassword != nil {
		*hasPassword = fPassword != 0
	}
	return r
}

func (w *Windows) SetEntryDialParams(phoneBook string, params *Buffer, removePassword bool) ResultCode {
	pb, ok := wide(phoneBook)
	if !ok {
		return ErrorInvalidParameter
	}
	return call(procRasSetEntryDialParamsW,
		uintptr(unsafe.Pointer(pb)),
		uintptr(bufPtr(params)),
		boolArg(removePassword),
	)
}

func (w *Windows) GetSubEntryHandle(h Handle, index uint32, sub *Handle) ResultCode {
	return call(procRasGetSubEntryHandleW, uintptr(h), uintptr(index), uintptr(unsafe.Pointer(sub)))
}

func (w *Windows) GetConnectionStatistics(h Handle, stats *Buffer) ResultCode {
	return call(procRasGetConnectionStatistics, uintptr(h), uintptr(bufPtr(stats)))
}

func (w *Windows) ClearConnectionStatistics(h Handle) ResultCode {
	return call(procRasClearConnectionStatistics, uintptr(h))
}

func (w *Windows) GetLinkStatistics(h Handle, subEntry uint32, stats *Buffer) ResultCode {
	return call(procRasGetLinkStatistics, uintptr(h), uintptr(subEntry), uintptr(bufPtr(stats)))
}

func (w *Windows) ClearLinkStatistics(h Handle, subEntry uint32) ResultCode {
	return call(procRasClearLinkStatistics, uintptr(h), uintptr(subEntry))
}

func (w *Windows) GetProjectionInfo(h Handle, protocol uint32, buf *Buffer, size *uint32) ResultCode {
	return call(procRasGetProjectionInfoW,
		uintptr(h),
		uintptr(protocol),
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
	)
}

func (w *Windows) GetProjectionInfoEx(h Handle, buf *Buffer, size *uint32) ResultCode {
	return call(procRasGetProjectionInfoEx,
		uintptr(h),
		uintptr(bufPtr(buf)),
		uintptr(unsafe.Pointer(size)),
	)
}

func (w *Windows) GetCountryInfo(buf *Buffer, size *uint32) ResultCode {
	return call(procRasGetCountryInfoW, uintptr(bufPtr(buf)), uintptr(unsafe.Pointer(size)))
}

func (w *Windows) GetErrorString(code uint32, buf *Buffer) ResultCode {
	// cBufSize is in characters.
	return call(procRasGetErrorStringW,
		uintptr(code),
		uintptr(bufPtr(buf)),
		uintptr(buf.Len()/2),
	)
}
