package smbenc

import (
	"encoding/binary"
	"fmt"
)

// Writer appends little-endian SMB fields to a growing buffer. Once an
// error is recorded every further write is dropped, so callers check Err
// once after building a block.
type Writer struct {
	buf []byte
	err error
}

// NewWriter returns a Writer whose buffer starts with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

func (w *Writer) failed() bool { return w.err != nil }

// WriteUint8 appends v.
func (w *Writer) WriteUint8(v uint8) {
	if !w.failed() {
		w.buf = append(w.buf, v)
	}
}

// WriteUint16 appends v in little-endian order.
func (w *Writer) WriteUint16(v uint16) {
	if !w.failed() {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	}
}

// WriteUint32 appends v in little-endian order.
func (w *Writer) WriteUint32(v uint32) {
	if !w.failed() {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	}
}

// WriteBytes appends b unchanged.
func (w *Writer) WriteBytes(b []byte) {
	if !w.failed() {
		w.buf = append(w.buf, b...)
	}
}

// WriteZeros appends n zero bytes, used for reserved fields and padding.
func (w *Writer) WriteZeros(n int) {
	if w.failed() || n <= 0 {
		return
	}
	for range n {
		w.buf = append(w.buf, 0)
	}
}

// WriteString appends s with its terminator. Unicode selects UTF-16LE and
// a two-byte terminator; otherwise s goes through the OEM code page. No
// alignment padding is inserted.
func (w *Writer) WriteString(unicode bool, s string) {
	if w.failed() {
		return
	}
	enc, term := oem, 1
	if unicode {
		enc, term = utf16le, 2
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.err = fmt.Errorf("%w: %q: %v", ErrBadEncoding, s, err)
		return
	}
	w.buf = append(w.buf, b...)
	w.WriteZeros(term)
}

// Fail records err unless an earlier error is already held.
func (w *Writer) Fail(err error) {
	if !w.failed() {
		w.err = err
	}
}

// Bytes returns the encoded data. It aliases the writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Err returns the first recorded error.
func (w *Writer) Err() error { return w.err }
