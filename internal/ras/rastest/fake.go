// Package rastest provides a scripted in-memory native.API for tests.
package rastest

import (
	"sync"

	"rasbridge/internal/native"
)

// ListFunc is the shape of the enumeration calls.
type ListFunc func(buf *native.Buffer, size, count *uint32) native.ResultCode

// BlobFunc is the shape of the single-record size-negotiated calls.
type BlobFunc func(buf *native.Buffer, size *uint32) native.ResultCode

// FakeAPI implements native.API with per-call hooks. A nil hook returns
// Success without touching its buffers, except GetConnectStatus, which
// reports ERROR_INVALID_HANDLE so hang-up polling ends immediately.
// Every call is recorded by name.
type FakeAPI struct {
	DialFunc                      func(ext *native.Buffer, phoneBook string, params *native.Buffer, callbackID uintptr, notify native.DialNotifier, h *native.Handle) native.ResultCode
	HangUpFunc                    func(h native.Handle) native.ResultCode
	GetConnectStatusFunc          func(h native.Handle, status *native.Buffer) native.ResultCode
	EnumConnectionsFunc           ListFunc
	EnumDevicesFunc               ListFunc
	EnumEntriesFunc               func(phoneBook string, buf *native.Buffer, size, count *uint32) native.ResultCode
	GetEntryPropertiesFunc        func(phoneBook, entry string, buf *native.Buffer, size *uint32) native.ResultCode
	SetEntryPropertiesFunc        func(phoneBook, entry string, buf *native.Buffer, size uint32) native.ResultCode
	ValidateEntryNameFunc         func(phoneBook, entry string) native.ResultCode
	DeleteEntryFunc               func(phoneBook, entry string) native.ResultCode
	RenameEntryFunc               func(phoneBook, oldName, newName string) native.ResultCode
	GetSubEntryPropertiesFunc     func(phoneBook, entry string, index uint32, buf *native.Buffer, size *uint32) native.ResultCode
	SetSubEntryPropertiesFunc     func(phoneBook, entry string, index uint32, buf *native.Buffer, size uint32) native.ResultCode
	GetCredentialsFunc            func(phoneBook, entry string, creds *native.Buffer) native.ResultCode
	SetCredentialsFunc            func(phoneBook, entry string, creds *native.Buffer, clear bool) native.ResultCode
	GetEntryDialParamsFunc        func(phoneBook string, params *native.Buffer, hasPassword *bool) native.ResultCode
	SetEntryDialParamsFunc        func(phoneBook string, params *native.Buffer, removePassword bool) native.ResultCode
	GetSubEntryHandleFunc         func(h native.Handle, index uint32, sub *native.Handle) native.ResultCode
	GetConnectionStatisticsFunc   func(h native.Handle, stats *native.Buffer) native.ResultCode
	ClearConnectionStatisticsFunc func(h native.Handle) native.ResultCode
	GetLinkStatisticsFunc         func(h native.Handle, subEntry uint32, stats *native.Buffer) native.ResultCode
	ClearLinkStatisticsFunc       func(h native.Handle, subEntry uint32) native.ResultCode
	GetProjectionInfoFunc         func(h native.Handle, protocol uint32, buf *native.Buffer, size *uint32) native.ResultCode
	GetProjectionInfoExFunc       func(h native.Handle, buf *native.Buffer, size *uint32) native.ResultCode
	GetCountryInfoFunc            BlobFunc
	GetErrorStringFunc            func(code uint32, buf *native.Buffer) native.ResultCode

	mu    sync.Mutex
	calls []string
}

var _ native.API = (*FakeAPI)(nil)

func (f *FakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

// Calls returns the names of all calls made so far, in order.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many times the named call was made.
func (f *FakeAPI) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (f *FakeAPI) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *FakeAPI) Dial(ext *native.Buffer, phoneBook string, params *native.Buffer, callbackID uintptr, notify native.DialNotifier, h *native.Handle) native.ResultCode {
	f.record("Dial")
	if f.DialFunc != nil {
		return f.DialFunc(ext, phoneBook, params, callbackID, notify, h)
	}
	return native.Success
}

func (f *FakeAPI) HangUp(h native.Handle) native.ResultCode {
	f.record("HangUp")
	if f.HangUpFunc != nil {
		return f.HangUpFunc(h)
	}
	return native.Success
}

func (f *FakeAPI) GetConnectStatus(h native.Handle, status *native.Buffer) native.ResultCode {
	f.record("GetConnectStatus")
	if f.GetConnectStatusFunc != nil {
		return f.GetConnectStatusFunc(h, status)
	}
	return native.ErrorInvalidHandle
}

func (f *FakeAPI) EnumConnections(buf *native.Buffer, size, count *uint32) native.ResultCode {
	f.record("EnumConnections")
	if f.EnumConnectionsFunc != nil {
		return f.EnumConnectionsFunc(buf, size, count)
	}
	return native.Success
}

func (f *FakeAPI) EnumDevices(buf *native.Buffer, size, count *uint32) native.ResultCode {
	f.record("EnumDevices")
	if f.EnumDevicesFunc != nil {
		return f.EnumDevicesFunc(buf, size, count)
	}
	return native.Success
}

func (f *FakeAPI) EnumEntries(phoneBook string, buf *native.Buffer, size, count *uint32) native.ResultCode {
	f.record("EnumEntries")
	if f.EnumEntriesFunc != nil {
		return f.EnumEntriesFunc(phoneBook, buf, size, count)
	}
	return native.Success
}

func (f *FakeAPI) GetEntryProperties(phoneBook, entry string, buf *native.Buffer, size *uint32) native.ResultCode {
	f.record("GetEntryProperties")
	if f.GetEntryPropertiesFunc != nil {
		return f.GetEntryPropertiesFunc(phoneBook, entry, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) SetEntryProperties(phoneBook, entry string, buf *native.Buffer, size uint32) native.ResultCode {
	f.record("SetEntryProperties")
	if f.SetEntryPropertiesFunc != nil {
		return f.SetEntryPropertiesFunc(phoneBook, entry, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) ValidateEntryName(phoneBook, entry string) native.ResultCode {
	f.record("ValidateEntryName")
	if f.ValidateEntryNameFunc != nil {
		return f.ValidateEntryNameFunc(phoneBook, entry)
	}
	return native.Success
}

func (f *FakeAPI) DeleteEntry(phoneBook, entry string) native.ResultCode {
	f.record("DeleteEntry")
	if f.DeleteEntryFunc != nil {
		return f.DeleteEntryFunc(phoneBook, entry)
	}
	return native.Success
}

func (f *FakeAPI) RenameEntry(phoneBook, oldName, newName string) native.ResultCode {
	f.record("RenameEntry")
	if f.RenameEntryFunc != nil {
		return f.RenameEntryFunc(phoneBook, oldName, newName)
	}
	return native.Success
}

func (f *FakeAPI) GetSubEntryProperties(phoneBook, entry string, index uint32, buf *native.Buffer, size *uint32) native.ResultCode {
	f.record("GetSubEntryProperties")
	if f.GetSubEntryPropertiesFunc != nil {
		return f.GetSubEntryPropertiesFunc(phoneBook, entry, index, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) SetSubEntryProperties(phoneBook, entry string, index uint32, buf *native.Buffer, size uint32) native.ResultCode {
	f.record("SetSubEntryProperties")
	if f.SetSubEntryPropertiesFunc != nil {
		return f.SetSubEntryPropertiesFunc(phoneBook, entry, index, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) GetCredentials(phoneBook, entry string, creds *native.Buffer) native.ResultCode {
	f.record("GetCredentials")
	if f.GetCredentialsFunc != nil {
		return f.GetCredentialsFunc(phoneBook, entry, creds)
	}
	return native.Success
}

func (f *FakeAPI) SetCredentials(phoneBook, entry string, creds *native.Buffer, clear bool) native.ResultCode {
	f.record("SetCredentials")
	if f.SetCredentialsFunc != nil {
		return f.SetCredentialsFunc(phoneBook, entry, creds, clear)
	}
	return native.Success
}

func (f *FakeAPI) GetEntryDialParams(phoneBook string, params *native.Buffer, hasPassword *bool) native.ResultCode {
	f.record("GetEntryDialParams")
	if f.GetEntryDialParamsFunc != nil {
		return f.GetEntryDialParamsFunc(phoneBook, params, hasPassword)
	}
	return native.Success
}

func (f *FakeAPI) SetEntryDialParams(phoneBook string, params *native.Buffer, removePassword bool) native.ResultCode {
	f.record("SetEntryDialParams")
	if f.SetEntryDialParamsFunc != nil {
		return f.SetEntryDialParamsFunc(phoneBook, params, removePassword)
	}
	return native.Success
}

func (f *FakeAPI) GetSubEntryHandle(h native.Handle, index uint32, sub *native.Handle) native.ResultCode {
	f.record("GetSubEntryHandle")
	if f.GetSubEntryHandleFunc != nil {
		return f.GetSubEntryHandleFunc(h, index, sub)
	}
	return native.Success
}

func (f *FakeAPI) GetConnectionStatistics(h native.Handle, stats *native.Buffer) native.ResultCode {
	f.record("GetConnectionStatistics")
	if f.GetConnectionStatisticsFunc != nil {
		return f.GetConnectionStatisticsFunc(h, stats)
	}
	return native.Success
}

func (f *FakeAPI) ClearConnectionStatistics(h native.Handle) native.ResultCode {
	f.record("ClearConnectionStatistics")
	if f.ClearConnectionStatisticsFunc != nil {
		return f.ClearConnectionStatisticsFunc(h)
	}
	return native.Success
}

func (f *FakeAPI) GetLinkStatistics(h native.Handle, subEntry uint32, stats *native.Buffer) native.ResultCode {
	f.record("GetLinkStatistics")
	if f.GetLinkStatisticsFunc != nil {
		return f.GetLinkStatisticsFunc(h, subEntry, stats)
	}
	return native.Success
}

func (f *FakeAPI) ClearLinkStatistics(h native.Handle, subEntry uint32) native.ResultCode {
	f.record("ClearLinkStatistics")
	if f.ClearLinkStatisticsFunc != nil {
		return f.ClearLinkStatisticsFunc(h, subEntry)
	}
	return native.Success
}

func (f *FakeAPI) GetProjectionInfo(h native.Handle, protocol uint32, buf *native.Buffer, size *uint32) native.ResultCode {
	f.record("GetProjectionInfo")
	if f.GetProjectionInfoFunc != nil {
		return f.GetProjectionInfoFunc(h, protocol, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) GetProjectionInfoEx(h native.Handle, buf *native.Buffer, size *uint32) native.ResultCode {
	f.record("GetProjectionInfoEx")
	if f.GetProjectionInfoExFunc != nil {
		return f.GetProjectionInfoExFunc(h, buf, size)
	}
	return native.Success
}

func (f *FakeAPI) GetCountryInfo(buf *native.Buffer, size *uint32) native.ResultCode {
	f.record("GetCountryInfo")
	if f.GetCountryInfoFunc != nil {
		return f.GetCountryInfoFunc(buf, size)
	}
	return native.Success
}

func (f *FakeAPI) GetErrorString(code uint32, buf *native.Buffer) native.ResultCode {
	f.record("GetErrorString")
	if f.GetErrorStringFunc != nil {
		return f.GetErrorStringFunc(code, buf)
	}
	return native.Success
}

// Codes returns a function yielding codes in order, repeating the last one.
func Codes(codes ...native.ResultCode) func() native.ResultCode {
	var mu sync.Mutex
	i := 0
	return func() native.ResultCode {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return native.Success
		}
		c := codes[min(i, len(codes)-1)]
		i++
		return c
	}
}

// GrowList reports "buffer too small" once per entry of sizes, writing that
// entry as the required size, then calls fill with the final buffer. fill
// returns the item count.
func GrowList(sizes []uint32, fill func(b []byte) uint32) ListFunc {
	var mu sync.Mutex
	i := 0
	return func(buf *native.Buffer, size, count *uint32) native.ResultCode {
		mu.Lock()
		defer mu.Unlock()
		if i < len(sizes) {
			*size = sizes[i]
			i++
			return native.ErrorBufferTooSmall
		}
		*count = fill(buf.Bytes())
		return native.Success
	}
}

// GrowBlob is GrowList for calls without an item count.
func GrowBlob(sizes []uint32, fill func(b []byte)) BlobFunc {
	list := GrowList(sizes, func(b []byte) uint32 {
		fill(b)
		return 0
	})
	return func(buf *native.Buffer, size *uint32) native.ResultCode {
		var count uint32
		return list(buf, size, &count)
	}
}
