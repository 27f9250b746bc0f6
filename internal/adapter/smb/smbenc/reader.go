package smbenc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoding errors. Reader and Writer wrap them with position details.
var (
	ErrShortRead      = errors.New("smbenc: short read")
	ErrExpectMismatch = errors.New("smbenc: unexpected value")
	ErrUnterminated   = errors.New("smbenc: unterminated string")
	ErrNameTooLong    = errors.New("smbenc: string exceeds buffer")
	ErrBadEncoding    = errors.New("smbenc: invalid string encoding")
)

var (
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	// oem is the code page assumed for clients that did not negotiate
	// Unicode.
	oem encoding.Encoding = charmap.CodePage437
)

// Reader consumes little-endian SMB fields from a byte slice. The first
// failure sticks: later reads return zero values and leave the position
// where the failure happened.
type Reader struct {
	data []byte
	off  int
	base int // distance of data[0] from the start of the SMB header
	err  error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt returns a Reader over data where data[0] sits base bytes
// after the SMB header. Only Unicode string alignment looks at base.
func NewReaderAt(data []byte, base int) *Reader {
	return &Reader{data: data, base: base}
}

// take returns the next n bytes and advances past them, or nil after
// recording ErrShortRead.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: %d bytes at offset %d, %d left", ErrShortRead, n, r.off, len(r.data)-r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadUint8 returns the next byte.
func (r *Reader) ReadUint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

// ReadUint16 returns the next little-endian uint16.
func (r *Reader) ReadUint16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

// ReadUint32 returns the next little-endian uint32.
func (r *Reader) ReadUint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// Skip discards n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// ExpectUint8 consumes one byte and fails with ErrExpectMismatch unless it
// equals want. SMB1 buffer format markers are checked this way.
func (r *Reader) ExpectUint8(want uint8) {
	at := r.off
	got := r.ReadUint8()
	if r.err == nil && got != want {
		r.err = fmt.Errorf("%w: 0x%02X at offset %d, want 0x%02X", ErrExpectMismatch, got, at, want)
	}
}

// ReadString consumes a null-terminated string and returns it as UTF-8.
// Unicode strings are UTF-16LE aligned to an even offset from the SMB
// header, so a pad byte may be skipped first; other strings use the OEM
// code page. scratch receives the transcoded bytes and must be large
// enough; the result is copied out of it.
func (r *Reader) ReadString(unicodeStr bool, scratch []byte) string {
	if r.err != nil {
		return ""
	}

	enc, unit := oem, 1
	if unicodeStr {
		enc, unit = utf16le, 2
		if (r.base+r.off)%2 == 1 {
			r.Skip(1)
		}
	}
	if r.err != nil {
		return ""
	}
	raw := r.untilNull(unit)
	if r.err != nil {
		return ""
	}

	n, _, err := enc.NewDecoder().Transform(scratch, raw, true)
	if err != nil {
		if errors.Is(err, transform.ErrShortDst) {
			r.err = fmt.Errorf("%w: %d encoded bytes into %d", ErrNameTooLong, len(raw), len(scratch))
		} else {
			r.err = fmt.Errorf("%w: %v", ErrBadEncoding, err)
		}
		return ""
	}
	return string(scratch[:n])
}

// untilNull returns the bytes before the next all-zero code unit and
// consumes the terminator too.
func (r *Reader) untilNull(unit int) []byte {
	start := r.off
	for i := start; i+unit <= len(r.data); i += unit {
		if r.data[i] != 0 || (unit == 2 && r.data[i+1] != 0) {
			continue
		}
		r.off = i + unit
		return r.data[start:i]
	}
	r.err = fmt.Errorf("%w: starting at offset %d", ErrUnterminated, start)
	return nil
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Err returns the first recorded error.
func (r *Reader) Err() error {
	return r.err
}
