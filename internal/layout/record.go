package layout

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrTooLong is returned when a value does not fit its fixed-size field.
var ErrTooLong = errors.New("layout: value too long for field")

// Record is a view of one native record inside a byte slice. Reads of
// fields absent from the layout return zero values and writes to them are
// dropped, so callers can encode the union of all versions' fields.
type Record struct {
	L *Layout
	B []byte
}

// NewRecord views b as a record of layout l. b must hold at least l.Size bytes.
func NewRecord(l *Layout, b []byte) (Record, error) {
	if len(b) < l.Size {
		return Record{}, fmt.Errorf("layout: %s needs %d bytes, buffer has %d", l.Def.Name, l.Size, len(b))
	}
	return Record{L: l, B: b}, nil
}

// At views the i-th element of an array of l records starting at b[0].
// Elements are indexed by the native element size, never a host size.
func At(l *Layout, b []byte, i int) (Record, error) {
	off := i * l.Size
	if off < 0 || off+l.Size > len(b) {
		return Record{}, fmt.Errorf("layout: %s[%d] out of range (%d bytes)", l.Def.Name, i, len(b))
	}
	return Record{L: l, B: b[off:]}, nil
}

// Has reports whether the field is present in this record's layout.
func (r Record) Has(name string) bool { return r.L.Has(name) }

func (r Record) slot(name string, kinds ...Kind) (Slot, bool) {
	s, ok := r.L.slots[name]
	if !ok {
		if !r.L.Def.declares(name) {
			panic(fmt.Sprintf("layout: %s has no field %q", r.L.Def.Name, name))
		}
		return Slot{}, false
	}
	for _, k := range kinds {
		if s.Kind == k {
			return s, true
		}
	}
	panic(fmt.Sprintf("layout: %s.%s is %s", r.L.Def.Name, name, s.Kind))
}

func (d *Def) declares(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// SetSize writes the record's native size into its leading dwSize field.
func (r Record) SetSize() { r.SetU32("dwSize", uint32(r.L.Size)) }

// SetSizeTo writes an explicit size into dwSize, for records whose declared
// size is corrected per OS build.
func (r Record) SetSizeTo(n int) { r.SetU32("dwSize", uint32(n)) }

func (r Record) U8(name string) uint8 {
	if s, ok := r.slot(name, KindU8); ok {
		return r.B[s.Offset]
	}
	return 0
}

func (r Record) SetU8(name string, v uint8) {
	if s, ok := r.slot(name, KindU8); ok {
		r.B[s.Offset] = v
	}
}

func (r Record) U16(name string) uint16 {
	if s, ok := r.slot(name, KindU16); ok {
		return binary.LittleEndian.Uint16(r.B[s.Offset:])
	}
	return 0
}

func (r Record) SetU16(name string, v uint16) {
	if s, ok := r.slot(name, KindU16); ok {
		binary.LittleEndian.PutUint16(r.B[s.Offset:], v)
	}
}

func (r Record) U32(name string) uint32 {
	if s, ok := r.slot(name, KindU32, KindBool); ok {
		return binary.LittleEndian.Uint32(r.B[s.Offset:])
	}
	return 0
}

func (r Record) SetU32(name string, v uint32) {
	if s, ok := r.slot(name, KindU32, KindBool); ok {
		binary.LittleEndian.PutUint32(r.B[s.Offset:], v)
	}
}

func (r Record) U64(name string) uint64 {
	if s, ok := r.slot(name, KindU64); ok {
		return binary.LittleEndian.Uint64(r.B[s.Offset:])
	}
	return 0
}

func (r Record) SetU64(name string, v uint64) {
	if s, ok := r.slot(name, KindU64); ok {
		binary.LittleEndian.PutUint64(r.B[s.Offset:], v)
	}
}

func (r Record) Bool(name string) bool {
	return r.U32(name) != 0
}

func (r Record) SetBool(name string, v bool) {
	var n uint32
	if v {
		n = 1
	}
	r.SetU32(name, n)
}

// Ptr reads a pointer-sized field.
func (r Record) Ptr(name string) uint64 {
	s, ok := r.slot(name, KindPtr)
	if !ok {
		return 0
	}
	if s.Size == 4 {
		return uint64(binary.LittleEndian.Uint32(r.B[s.Offset:]))
	}
	return binary.LittleEndian.Uint64(r.B[s.Offset:])
}

// SetPtr writes a pointer-sized field.
func (r Record) SetPtr(name string, v uint64) {
	s, ok := r.slot(name, KindPtr)
	if !ok {
		return
	}
	if s.Size == 4 {
		binary.LittleEndian.PutUint32(r.B[s.Offset:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(r.B[s.Offset:], v)
}

// String reads a WCHAR[n] field up to its first NUL.
func (r Record) String(name string) string {
	s, ok := r.slot(name, KindWChars)
	if !ok {
		return ""
	}
	str, err := DecodeUTF16(r.B[s.Offset : s.Offset+s.Size])
	if err != nil {
		return ""
	}
	return str
}

// SetString writes v into a WCHAR[n] field, NUL-padding the remainder.
// v must fit in n-1 code units.
func (r Record) SetString(name, v string) error {
	s, ok := r.slot(name, KindWChars)
	if !ok {
		return nil
	}
	enc, err := EncodeUTF16(v)
	if err != nil {
		return fmt.Errorf("layout: %s.%s: %w", r.L.Def.Name, name, err)
	}
	if len(enc) > s.Size-2 {
		return fmt.Errorf("layout: %s.%s: %d code units, limit %d: %w",
			r.L.Def.Name, name, len(enc)/2, s.Len-1, ErrTooLong)
	}
	field := r.B[s.Offset : s.Offset+s.Size]
	clear(field)
	copy(field, enc)
	return nil
}

// Bytes returns a copy of a BYTE[n] field.
func (r Record) Bytes(name string) []byte {
	s, ok := r.slot(name, KindBytes)
	if !ok {
		return nil
	}
	out := make([]byte, s.Size)
	copy(out, r.B[s.Offset:s.Offset+s.Size])
	return out
}

// SetBytes writes v into a BYTE[n] field, zero-padding the remainder.
func (r Record) SetBytes(name string, v []byte) error {
	s, ok := r.slot(name, KindBytes)
	if !ok {
		return nil
	}
	if len(v) > s.Size {
		return fmt.Errorf("layout: %s.%s: %d bytes, limit %d: %w", r.L.Def.Name, name, len(v), s.Size, ErrTooLong)
	}
	field := r.B[s.Offset : s.Offset+s.Size]
	clear(field)
	copy(field, v)
	return nil
}

// GUID reads a Windows GUID (little-endian Data1..Data3) as an RFC 4122 UUID.
func (r Record) GUID(name string) uuid.UUID {
	s, ok := r.slot(name, KindGUID)
	if !ok {
		return uuid.Nil
	}
	return GUIDToUUID(r.B[s.Offset : s.Offset+16])
}

// SetGUID writes u in Windows GUID byte order.
func (r Record) SetGUID(name string, u uuid.UUID) {
	if s, ok := r.slot(name, KindGUID); ok {
		PutGUID(r.B[s.Offset:s.Offset+16], u)
	}
}

// LUID reads a LUID as LowPart | HighPart<<32.
func (r Record) LUID(name string) uint64 {
	s, ok := r.slot(name, KindLUID)
	if !ok {
		return 0
	}
	lo := binary.LittleEndian.Uint32(r.B[s.Offset:])
	hi := binary.LittleEndian.Uint32(r.B[s.Offset+4:])
	return uint64(hi)<<32 | uint64(lo)
}

func (r Record) SetLUID(name string, v uint64) {
	if s, ok := r.slot(name, KindLUID); ok {
		binary.LittleEndian.PutUint32(r.B[s.Offset:], uint32(v))
		binary.LittleEndian.PutUint32(r.B[s.Offset+4:], uint32(v>>32))
	}
}

// Sub returns the nested record stored in a struct field. The second result
// is false when the field is absent in this layout.
func (r Record) Sub(name string) (Record, bool) {
	s, ok := r.slot(name, KindStruct)
	if !ok {
		return Record{}, false
	}
	return Record{L: s.Sub, B: r.B[s.Offset : s.Offset+s.Size]}, true
}

// GUIDToUUID converts 16 bytes of Windows GUID layout into a UUID.
func GUIDToUUID(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}

// PutGUID writes u into b in Windows GUID layout.
func PutGUID(b []byte, u uuid.UUID) {
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	copy(b[8:16], u[8:])
}
