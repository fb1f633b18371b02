package layout

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// ErrEmbeddedNUL is returned for strings that cannot be NUL-terminated.
var ErrEmbeddedNUL = errors.New("layout: string contains NUL")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16 converts s to UTF-16LE without a terminator.
func EncodeUTF16(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrEmbeddedNUL
	}
	if s == "" {
		return nil, nil
	}
	return utf16le.NewEncoder().Bytes([]byte(s))
}

// DecodeUTF16 converts UTF-16LE up to the first NUL code unit (or the end of b).
func DecodeUTF16(b []byte) (string, error) {
	n := wcslen(b)
	if n == 0 {
		return "", nil
	}
	out, err := utf16le.NewDecoder().Bytes(b[:2*n])
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// wcslen returns the number of code units before the first NUL in b.
func wcslen(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return i / 2
		}
	}
	return len(b) / 2
}

// EncodeMultiString encodes a list as consecutive NUL-terminated UTF-16
// strings followed by an empty string. An empty list encodes to nil so the
// owning offset field can stay zero.
func EncodeMultiString(list []string) ([]byte, error) {
	if len(list) == 0 {
		return nil, nil
	}
	var out []byte
	for i, s := range list {
		if s == "" {
			return nil, fmt.Errorf("layout: multi-string element %d is empty", i)
		}
		enc, err := EncodeUTF16(s)
		if err != nil {
			return nil, fmt.Errorf("layout: multi-string element %d: %w", i, err)
		}
		out = append(out, enc...)
		out = append(out, 0, 0)
	}
	return append(out, 0, 0), nil
}

// DecodeMultiString reads NUL-terminated UTF-16 strings from b until an
// empty string or the end of b.
func DecodeMultiString(b []byte) ([]string, error) {
	var out []string
	for len(b) >= 2 {
		n := wcslen(b)
		if n == 0 {
			break
		}
		s, err := DecodeUTF16(b[:2*n])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if 2*n+2 > len(b) {
			break
		}
		b = b[2*n+2:]
	}
	return out, nil
}
