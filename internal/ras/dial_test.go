package ras

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasbridge/internal/native"
	"rasbridge/internal/ras/rastest"
)

const dialedHandle native.Handle = 0xD1A1

// dialNotifying makes Dial hand out dialedHandle and deliver states from
// another goroutine, the way the native notifier thread does.
func (env *testEnv) dialNotifying(states []ConnState, code native.ResultCode) *sync.WaitGroup {
	var wg sync.WaitGroup
	env.api.DialFunc = func(_ *native.Buffer, _ string, _ *native.Buffer, _ uintptr, notify native.DialNotifier, h *native.Handle) native.ResultCode {
		*h = dialedHandle
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, st := range states {
				c := native.Success
				if i == len(states)-1 {
					c = code
				}
				if !notify(0, dialedHandle, uint32(st), c, 0) {
					return
				}
			}
		}()
		return native.Success
	}
	next := rastest.Codes(native.Success, native.ErrorNoConnection)
	env.api.HangUpFunc = func(native.Handle) native.ResultCode { return next() }
	return &wg
}

func TestDialRequiresEntryOrNumber(t *testing.T) {
	env := newTestEnv(t, win7SP1)

	h, err := env.client.Dial("", DialParams{UserName: "alice"}, nil, nil)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, env.api.Calls())
	assert.Zero(t, env.alloc.Allocs())
}

func TestDialSynchronous(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	params := DialParams{EntryName: "Office VPN", UserName: "alice", Password: "s3cret", Domain: "CORP"}

	var ids []uintptr
	env.api.DialFunc = func(ext *native.Buffer, pb string, p *native.Buffer, id uintptr, notify native.DialNotifier, h *native.Handle) native.ResultCode {
		assert.Nil(t, ext)
		assert.Nil(t, notify)
		assert.Equal(t, `C:\pbk\rasphone.pbk`, pb)
		rec := env.rec(t, defRASDIALPARAMS, p.Bytes())
		assert.Equal(t, params, decodeDialParams(rec))
		assert.Equal(t, uint64(id), rec.Ptr("dwCallbackId"))
		ids = append(ids, id)
		*h = dialedHandle
		return native.Success
	}

	h, err := env.client.Dial(`C:\pbk\rasphone.pbk`, params, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, dialedHandle, h.Raw())
	assert.Equal(t, HandleOpen, h.State())

	_, err = env.client.Dial(`C:\pbk\rasphone.pbk`, params, nil, nil)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestDialPassesExtensions(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	ext := DialExtensions{Options: DialNoUser, EapData: []byte{1, 2, 3, 4}, SkipPPPAuth: true}

	env.api.DialFunc = func(extBuf *native.Buffer, _ string, _ *native.Buffer, _ uintptr, _ native.DialNotifier, h *native.Handle) native.ResultCode {
		require.NotNil(t, extBuf)
		got, err := env.client.decodeDialExtensions(extBuf)
		require.NoError(t, err)
		assert.Equal(t, ext, got)
		*h = dialedHandle
		return native.Success
	}

	_, err := env.client.Dial("", DialParams{PhoneNumber: "vpn.example.com"}, &ext, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, env.alloc.Allocs())
}

func TestDialFailureHangsUpIssuedHandle(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.DialFunc = func(_ *native.Buffer, _ string, _ *native.Buffer, _ uintptr, _ native.DialNotifier, h *native.Handle) native.ResultCode {
		*h = dialedHandle
		return native.ErrorAuthenticationFailure
	}
	var hungUp []native.Handle
	next := rastest.Codes(native.Success, native.ErrorNoConnection)
	env.api.HangUpFunc = func(h native.Handle) native.ResultCode {
		hungUp = append(hungUp, h)
		return next()
	}

	h, err := env.client.Dial("", DialParams{EntryName: "Office VPN"}, nil, nil)
	assert.Nil(t, h)
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, native.ErrorAuthenticationFailure, code)
	assert.Equal(t, []native.Handle{dialedHandle, dialedHandle}, hungUp)
}

func TestDialFailureWithoutHandle(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.DialFunc = func(*native.Buffer, string, *native.Buffer, uintptr, native.DialNotifier, *native.Handle) native.ResultCode {
		return native.ErrorCannotFindPhonebookEntry
	}

	_, err := env.client.Dial("", DialParams{EntryName: "missing"}, nil, nil)
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Zero(t, env.api.Count("HangUp"))
}

func TestDialProgress(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	wg := env.dialNotifying([]ConnState{StateOpenPort, StatePortOpened, StateAuthenticate, StateConnected}, native.Success)

	var (
		mu     sync.Mutex
		events []DialEvent
	)
	h, err := env.client.Dial("", DialParams{EntryName: "Office VPN"}, nil, func(ev DialEvent) bool {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		return true
	})
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, dialedHandle, h.Raw())
	assert.Equal(t, HandleOpen, h.State())
	assert.Zero(t, env.api.Count("HangUp"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 4)
	assert.Equal(t, StateConnected, events[3].State)
	assert.Equal(t, dialedHandle, events[0].Handle)
}

func TestDialProgressAbort(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	wg := env.dialNotifying([]ConnState{StateOpenPort, StatePortOpened, StateConnected}, native.Success)

	h, err := env.client.Dial("", DialParams{EntryName: "Office VPN"}, nil, func(ev DialEvent) bool {
		return ev.State != StatePortOpened
	})
	wg.Wait()
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrDialAborted)
	assert.Equal(t, 2, env.api.Count("HangUp"))
}

func TestDialProgressReportsFailure(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	wg := env.dialNotifying([]ConnState{StateOpenPort, StateAuthenticate}, native.ErrorAuthenticationFailure)

	var last DialEvent
	_, err := env.client.Dial("", DialParams{EntryName: "Office VPN"}, nil, func(ev DialEvent) bool {
		last = ev
		return true
	})
	wg.Wait()
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, native.ErrorAuthenticationFailure, code)
	assert.Error(t, last.Err)
	assert.NotZero(t, env.api.Count("HangUp"))
}

func TestDialEndsDisconnected(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	wg := env.dialNotifying([]ConnState{StateOpenPort, StateDisconnected}, native.Success)

	_, err := env.client.Dial("", DialParams{EntryName: "Office VPN"}, nil, func(DialEvent) bool { return true })
	wg.Wait()
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestDialProgressPanicHangsUpAndRepanics(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	wg := env.dialNotifying([]ConnState{StateOpenPort, StatePortOpened, StateConnected}, native.Success)
	ext := DialExtensions{EapData: []byte{9, 9}}

	assert.PanicsWithValue(t, "progress exploded", func() {
		_, _ = env.client.Dial("", DialParams{EntryName: "Office VPN"}, &ext, func(ev DialEvent) bool {
			if ev.State == StatePortOpened {
				panic("progress exploded")
			}
			return true
		})
	})
	wg.Wait()
	assert.Equal(t, 2, env.api.Count("HangUp"))
	// params, extensions and the status buffer polled by the hang-up
	assert.EqualValues(t, 3, env.alloc.Allocs())
	assert.Zero(t, env.alloc.Outstanding())
}

func TestDialNativePanicFreesBothBuffers(t *testing.T) {
	env := newTestEnv(t, win7SP1)
	env.api.DialFunc = func(*native.Buffer, string, *native.Buffer, uintptr, native.DialNotifier, *native.Handle) native.ResultCode {
		panic("fault in rasapi32")
	}
	ext := DialExtensions{Options: DialNoUser}

	assert.Panics(t, func() {
		_, _ = env.client.Dial("", DialParams{EntryName: "Office VPN"}, &ext, nil)
	})
	assert.EqualValues(t, 2, env.alloc.Allocs())
	assert.Zero(t, env.alloc.Outstanding())
}
