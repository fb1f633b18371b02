package layout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDef = NewDef("TEST",
	U32("dwSize"),
	Ptr("handle"),
	WChars("szName", 3),
	U32("dwNew").From(Win7),
)

func TestResolveAlignment(t *testing.T) {
	l64 := testDef.Resolve(WinVista, Arch64)
	assert.Equal(t, 0, l64.Offset("dwSize"))
	assert.Equal(t, 8, l64.Offset("handle"))
	assert.Equal(t, 16, l64.Offset("szName"))
	assert.Equal(t, 24, l64.Size)
	assert.Equal(t, -1, l64.Offset("dwNew"))

	l32 := testDef.Resolve(WinVista, Arch32)
	assert.Equal(t, 4, l32.Offset("handle"))
	assert.Equal(t, 8, l32.Offset("szName"))
	assert.Equal(t, 16, l32.Size)
}

func TestResolveVersionGatedField(t *testing.T) {
	l := testDef.Resolve(Win7, Arch64)
	require.True(t, l.Has("dwNew"))
	// szName ends at 22; dwNew aligns to 24.
	assert.Equal(t, 24, l.Offset("dwNew"))
	assert.Equal(t, 32, l.Size)
	assert.Equal(t, []string{"dwSize", "handle", "szName", "dwNew"}, l.Fields())

	assert.Same(t, l, testDef.Resolve(Win7, Arch64))
}

func TestNestedStruct(t *testing.T) {
	inner := NewDef("INNER", U32("dwSize"), Ptr("pb"))
	outer := NewDef("OUTER", U32("dwSize"), U32("dwOpt"), Struct("inner", inner).From(Win7))

	l := outer.Resolve(Win7, Arch64)
	assert.Equal(t, 8, l.Offset("inner"))
	assert.Equal(t, 24, l.Size)

	buf := make([]byte, l.Size)
	rec, err := NewRecord(l, buf)
	require.NoError(t, err)
	rec.SetSize()
	sub, ok := rec.Sub("inner")
	require.True(t, ok)
	sub.SetSize()
	assert.Equal(t, uint32(24), rec.U32("dwSize"))
	assert.Equal(t, uint32(16), sub.U32("dwSize"))

	old, err := NewRecord(outer.Resolve(WinVista, Arch64), make([]byte, 8))
	require.NoError(t, err)
	_, ok = old.Sub("inner")
	assert.False(t, ok)
}

func TestRecordStrings(t *testing.T) {
	l := testDef.Resolve(Win7, Arch64)
	rec, err := NewRecord(l, make([]byte, l.Size))
	require.NoError(t, err)

	require.NoError(t, rec.SetString("szName", "ab"))
	assert.Equal(t, "ab", rec.String("szName"))

	err = rec.SetString("szName", "abc")
	assert.ErrorIs(t, err, ErrTooLong)

	err = rec.SetString("szName", "a\x00")
	assert.ErrorIs(t, err, ErrEmbeddedNUL)

	require.NoError(t, rec.SetString("szName", "ü"))
	assert.Equal(t, "ü", rec.String("szName"))
}

func TestAbsentFieldsAreDropped(t *testing.T) {
	l := testDef.Resolve(WinVista, Arch64)
	rec, err := NewRecord(l, make([]byte, l.Size))
	require.NoError(t, err)
	rec.SetU32("dwNew", 7)
	assert.Zero(t, rec.U32("dwNew"))
	assert.Panics(t, func() { rec.U32("dwMissing") })
}

func TestRecordAt(t *testing.T) {
	l := testDef.Resolve(WinVista, Arch64)
	buf := make([]byte, 3*l.Size)
	for i := 0; i < 3; i++ {
		rec, err := At(l, buf, i)
		require.NoError(t, err)
		rec.SetPtr("handle", uint64(100+i))
	}
	for i := 0; i < 3; i++ {
		rec, err := At(l, buf, i)
		require.NoError(t, err)
		assert.Equal(t, uint64(100+i), rec.Ptr("handle"))
	}
	_, err := At(l, buf, 3)
	assert.Error(t, err)
}

func TestGUIDByteOrder(t *testing.T) {
	u := uuid.MustParse("6B29FC40-CA47-1067-B31D-00DD010662DA")
	b := make([]byte, 16)
	PutGUID(b, u)
	assert.Equal(t, []byte{
		0x40, 0xFC, 0x29, 0x6B, 0x47, 0xCA, 0x67, 0x10,
		0xB3, 0x1D, 0x00, 0xDD, 0x01, 0x06, 0x62, 0xDA,
	}, b)
	assert.Equal(t, u, GUIDToUUID(b))
}

func TestMultiString(t *testing.T) {
	enc, err := EncodeMultiString([]string{"555-1234", "555-9876"})
	require.NoError(t, err)
	assert.Equal(t, (8+1+8+1+1)*2, len(enc))

	got, err := DecodeMultiString(enc)
	require.NoError(t, err)
	assert.Equal(t, []string{"555-1234", "555-9876"}, got)

	empty, err := EncodeMultiString(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = EncodeMultiString([]string{"a", ""})
	assert.Error(t, err)
}

func TestCorrectionMonotonic(t *testing.T) {
	builds := []Version{
		{Major: 5, Minor: 1, Build: 2600},
		{Major: 6, Minor: 0, Build: 6000},
		{Major: 6, Minor: 0, Build: 6001},
		{Major: 6, Minor: 0, Build: 6002},
		{Major: 6, Minor: 1, Build: 7600},
		{Major: 6, Minor: 1, Build: 7601},
		{Major: 10, Minor: 0, Build: 19045},
	}
	want := []int{0, 0, 4, 4, 8, 8, 8}

	prev := -1
	for i, v := range builds {
		d := DefaultEntryCorrections.Delta(v)
		assert.Equal(t, want[i], d, "build %s", v)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
	assert.Equal(t, 100+8, DefaultEntryCorrections.Apply(Version{Major: 6, Minor: 1, Build: 7600}, 100))
}

func TestCorrectionValidate(t *testing.T) {
	assert.NoError(t, DefaultEntryCorrections.Validate())
	assert.Error(t, CorrectionTable{{Major: 6, Build: 1, Delta: -4}}.Validate())

	sorted := CorrectionTable{{Major: 10, Build: 1}, {Major: 6, Build: 9}, {Major: 6, Build: 2}}.Sorted()
	assert.Equal(t, uint32(2), sorted[0].Build)
	assert.Equal(t, uint32(10), sorted[2].Major)
}
