package smbenc

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReaderIntegers(t *testing.T) {
	data := []byte{
		0xAB,
		0x01, 0x02,
		0x01, 0x02, 0x03, 0x04,
	}
	r := NewReader(data)

	if v := r.ReadUint8(); v != 0xAB {
		t.Errorf("ReadUint8 = 0x%02X", v)
	}
	if v := r.ReadUint16(); v != 0x0201 {
		t.Errorf("ReadUint16 = 0x%04X", v)
	}
	if v := r.ReadUint32(); v != 0x04030201 {
		t.Errorf("ReadUint32 = 0x%08X", v)
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if r.Remaining() != 0 {
		t.Errorf("remaining %d", r.Remaining())
	}
}

func TestReaderErrorAccumulation(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	r.ReadUint16()
	if v := r.ReadUint32(); v != 0 {
		t.Errorf("short ReadUint32 = %d, want 0", v)
	}
	if !errors.Is(r.Err(), ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", r.Err())
	}

	first := r.Err()
	r.ReadUint8()
	r.Skip(1)
	if b := r.ReadBytes(1); b != nil {
		t.Errorf("ReadBytes after error = %v", b)
	}
	if r.Err() != first {
		t.Errorf("error replaced: %v", r.Err())
	}
	if r.Remaining() != 1 {
		t.Errorf("position moved after error: remaining %d", r.Remaining())
	}
}

func TestReaderReadBytesCopies(t *testing.T) {
	data := []byte{1, 2, 3}
	b := NewReader(data).ReadBytes(3)
	b[0] = 9
	if data[0] != 1 {
		t.Error("ReadBytes aliases the input")
	}
}

func TestReaderNegativeLength(t *testing.T) {
	r := NewReader([]byte{1, 2})
	r.ReadBytes(-1)
	if !errors.Is(r.Err(), ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", r.Err())
	}
}

func TestReaderExpect(t *testing.T) {
	r := NewReader([]byte{0x04, 0x34, 0x12})
	r.ExpectUint8(0x04)
	if r.Err() != nil || r.Remaining() != 2 {
		t.Fatalf("unexpected error: %v", r.Err())
	}

	r = NewReader([]byte{0x05})
	r.ExpectUint8(0x04)
	if !errors.Is(r.Err(), ErrExpectMismatch) {
		t.Fatalf("expected ErrExpectMismatch, got %v", r.Err())
	}
}

func TestReaderReadStringOEM(t *testing.T) {
	// "\A\É.TXT" in CP437 (É = 0x90), then trailing garbage.
	data := []byte{'\\', 'A', '\\', 0x90, '.', 'T', 'X', 'T', 0x00, 0xFF}
	r := NewReader(data)
	got := r.ReadString(false, make([]byte, 64))
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if got != `\A\É.TXT` {
		t.Errorf("ReadString = %q", got)
	}
	if r.Remaining() != 1 {
		t.Errorf("terminator not consumed: remaining %d", r.Remaining())
	}
}

func TestReaderReadStringUnicode(t *testing.T) {
	w := NewWriter(32)
	w.WriteString(true, `\docs\日本.txt`)
	raw := w.Bytes()

	t.Run("Aligned", func(t *testing.T) {
		r := NewReaderAt(raw, 52)
		got := r.ReadString(true, make([]byte, 64))
		if r.Err() != nil {
			t.Fatalf("unexpected error: %v", r.Err())
		}
		if got != `\docs\日本.txt` {
			t.Errorf("ReadString = %q", got)
		}
		if r.Remaining() != 0 {
			t.Errorf("remaining %d", r.Remaining())
		}
	})

	t.Run("SkipsPadByte", func(t *testing.T) {
		padded := append([]byte{0x00}, raw...)
		r := NewReaderAt(padded, 51)
		got := r.ReadString(true, make([]byte, 64))
		if r.Err() != nil {
			t.Fatalf("unexpected error: %v", r.Err())
		}
		if got != `\docs\日本.txt` {
			t.Errorf("ReadString = %q", got)
		}
	})
}

func TestReaderReadStringErrors(t *testing.T) {
	t.Run("Unterminated", func(t *testing.T) {
		r := NewReader([]byte{'a', 'b'})
		r.ReadString(false, make([]byte, 8))
		if !errors.Is(r.Err(), ErrUnterminated) {
			t.Fatalf("expected ErrUnterminated, got %v", r.Err())
		}
	})

	t.Run("OddUnicodeTail", func(t *testing.T) {
		r := NewReader([]byte{'a', 0x00, 0x00})
		r.ReadString(true, make([]byte, 8))
		if !errors.Is(r.Err(), ErrUnterminated) {
			t.Fatalf("expected ErrUnterminated, got %v", r.Err())
		}
	})

	t.Run("ScratchTooSmall", func(t *testing.T) {
		data := append([]byte(strings.Repeat("x", 20)), 0)
		r := NewReader(data)
		r.ReadString(false, make([]byte, 8))
		if !errors.Is(r.Err(), ErrNameTooLong) {
			t.Fatalf("expected ErrNameTooLong, got %v", r.Err())
		}
	})
}

func TestReaderReadStringDoesNotAliasScratch(t *testing.T) {
	scratch := make([]byte, 16)
	got := NewReader([]byte{'a', 'b', 0}).ReadString(false, scratch)
	copy(scratch, bytes.Repeat([]byte{'z'}, 16))
	if got != "ab" {
		t.Errorf("string changed with scratch: %q", got)
	}
}
