// Package layout describes fixed-layout native records and reads and writes
// them in place.
//
// A Def lists a record's fields in declaration order, each optionally gated
// on the OS release that introduced it. Resolving a Def for a Version and an
// Arch yields a Layout with C natural-alignment offsets, which is what the
// native side expects to find in memory.
package layout

import (
	"fmt"
	"sync"
	"unsafe"
)

// Kind is the storage class of a field.
type Kind int

const (
	KindU8 Kind = iota
	KindU16
	KindU32
	KindU64
	KindBool // Win32 BOOL, 4 bytes
	KindPtr  // pointer-sized (HANDLE, ULONG_PTR, LPBYTE)
	KindWChars
	KindBytes
	KindGUID
	KindLUID
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindBool:
		return "bool"
	case KindPtr:
		return "ptr"
	case KindWChars:
		return "wchars"
	case KindBytes:
		return "bytes"
	case KindGUID:
		return "guid"
	case KindLUID:
		return "luid"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

// Arch carries the architecture facts that affect layout.
type Arch struct {
	PtrSize int
}

var (
	Arch32   = Arch{PtrSize: 4}
	Arch64   = Arch{PtrSize: 8}
	HostArch = Arch{PtrSize: int(unsafe.Sizeof(uintptr(0)))}
)

// Field is one member of a record definition.
type Field struct {
	Name  string
	Kind  Kind
	Len   int  // element count for KindWChars / KindBytes
	Def   *Def // nested definition for KindStruct
	Since Version
}

// From returns a copy of f that is only present from release v onward.
func (f Field) From(v Version) Field {
	f.Since = v
	return f
}

func U8(name string) Field   { return Field{Name: name, Kind: KindU8} }
func U16(name string) Field  { return Field{Name: name, Kind: KindU16} }
func U32(name string) Field  { return Field{Name: name, Kind: KindU32} }
func U64(name string) Field  { return Field{Name: name, Kind: KindU64} }
func Bool(name string) Field { return Field{Name: name, Kind: KindBool} }
func Ptr(name string) Field  { return Field{Name: name, Kind: KindPtr} }
func GUID(name string) Field { return Field{Name: name, Kind: KindGUID} }
func LUID(name string) Field { return Field{Name: name, Kind: KindLUID} }
func Bytes(name string, n int) Field {
	return Field{Name: name, Kind: KindBytes, Len: n}
}

// WChars is a fixed WCHAR[n] array; n includes the terminating NUL.
func WChars(name string, n int) Field {
	return Field{Name: name, Kind: KindWChars, Len: n}
}

// Struct embeds another record definition by value.
func Struct(name string, def *Def) Field {
	return Field{Name: name, Kind: KindStruct, Def: def}
}

// Def is a versioned record definition.
type Def struct {
	Name   string
	Fields []Field

	mu    sync.Mutex
	cache map[layoutKey]*Layout
}

type layoutKey struct {
	v Version
	a Arch
}

// NewDef declares a record. Field names must be unique.
func NewDef(name string, fields ...Field) *Def {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			panic(fmt.Sprintf("layout: %s: duplicate field %q", name, f.Name))
		}
		seen[f.Name] = true
		if f.Kind == KindStruct && f.Def == nil {
			panic(fmt.Sprintf("layout: %s.%s: struct field without definition", name, f.Name))
		}
	}
	return &Def{Name: name, Fields: fields, cache: make(map[layoutKey]*Layout)}
}

// Slot is a resolved field: its definition plus offset and size.
type Slot struct {
	Field
	Offset int
	Size   int
	Sub    *Layout
}

// Layout is a Def resolved for one OS release and architecture.
type Layout struct {
	Def     *Def
	Version Version
	Arch    Arch
	Size    int
	Align   int

	slots map[string]Slot
	order []string
}

// Resolve computes the layout of d on release v for architecture a.
// Fields introduced after v are omitted. Results are cached.
func (d *Def) Resolve(v Version, a Arch) *Layout {
	key := layoutKey{v: v, a: a}
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.cache[key]; ok {
		return l
	}

	l := &Layout{Def: d, Version: v, Arch: a, Align: 1, slots: make(map[string]Slot, len(d.Fields))}
	off := 0
	for _, f := range d.Fields {
		if !v.AtLeast(f.Since) {
			continue
		}
		size, align, sub := f.measure(v, a)
		off = alignUp(off, align)
		l.slots[f.Name] = Slot{Field: f, Offset: off, Size: size, Sub: sub}
		l.order = append(l.order, f.Name)
		off += size
		if align > l.Align {
			l.Align = align
		}
	}
	l.Size = alignUp(off, l.Align)
	d.cache[key] = l
	return l
}

func (f Field) measure(v Version, a Arch) (size, align int, sub *Layout) {
	switch f.Kind {
	case KindU8:
		return 1, 1, nil
	case KindU16:
		return 2, 2, nil
	case KindU32, KindBool:
		return 4, 4, nil
	case KindU64:
		return 8, 8, nil
	case KindPtr:
		return a.PtrSize, a.PtrSize, nil
	case KindWChars:
		return 2 * f.Len, 2, nil
	case KindBytes:
		return f.Len, 1, nil
	case KindGUID:
		// DWORD Data1 sets the alignment.
		return 16, 4, nil
	case KindLUID:
		return 8, 4, nil
	case KindStruct:
		sub := f.Def.Resolve(v, a)
		return sub.Size, sub.Align, sub
	default:
		panic(fmt.Sprintf("layout: field %s: unknown kind %d", f.Name, f.Kind))
	}
}

func alignUp(x, a int) int {
	if a <= 1 {
		return x
	}
	return (x + a - 1) &^ (a - 1)
}

// Has reports whether the field exists in this layout.
func (l *Layout) Has(name string) bool {
	_, ok := l.slots[name]
	return ok
}

// Slot returns the resolved field.
func (l *Layout) Slot(name string) (Slot, bool) {
	s, ok := l.slots[name]
	return s, ok
}

// Offset returns the byte offset of a field, or -1 if absent.
func (l *Layout) Offset(name string) int {
	if s, ok := l.slots[name]; ok {
		return s.Offset
	}
	return -1
}

// Fields returns the present field names in declaration order.
func (l *Layout) Fields() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s@%s/ptr%d(%d bytes)", l.Def.Name, l.Version, l.Arch.PtrSize, l.Size)
}
