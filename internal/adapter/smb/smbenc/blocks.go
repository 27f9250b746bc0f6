package smbenc

import (
	"errors"
	"fmt"
)

// ErrBlockTooLarge is returned when a parameter or data block exceeds the
// SMB1 field limits.
var ErrBlockTooLarge = errors.New("smbenc: block too large")

// Blocks is the parameter/data split of an SMB1 command body:
//
//	UCHAR  WordCount
//	USHORT Words[WordCount]
//	USHORT ByteCount
//	UCHAR  Bytes[ByteCount]
type Blocks struct {
	WordCount uint8
	Words     []byte

	// Bytes is the data block; BytesOffset is its offset within the body.
	Bytes       []byte
	BytesOffset int
}

// ParseBlocks splits an SMB1 command body. Trailing bytes beyond
// ByteCount are ignored, as with AndX padding.
func ParseBlocks(body []byte) (*Blocks, error) {
	r := NewReader(body)
	wc := r.ReadUint8()
	words := r.ReadBytes(int(wc) * 2)
	bc := r.ReadUint16()
	off := len(body) - r.Remaining()
	data := r.ReadBytes(int(bc))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse blocks: %w", err)
	}
	return &Blocks{
		WordCount:   wc,
		Words:       words,
		Bytes:       data,
		BytesOffset: off,
	}, nil
}

// EncodeBlocks builds an SMB1 command body from a parameter block (an even
// number of bytes, at most 255 words) and a data block.
func EncodeBlocks(words, data []byte) ([]byte, error) {
	w := NewWriter(3 + len(words) + len(data))
	switch {
	case len(words)%2 != 0:
		w.Fail(fmt.Errorf("%w: odd parameter block length %d", ErrBlockTooLarge, len(words)))
	case len(words)/2 > 0xFF:
		w.Fail(fmt.Errorf("%w: %d parameter words", ErrBlockTooLarge, len(words)/2))
	case len(data) > 0xFFFF:
		w.Fail(fmt.Errorf("%w: %d data bytes", ErrBlockTooLarge, len(data)))
	}

	w.WriteUint8(uint8(len(words) / 2))
	w.WriteBytes(words)
	w.WriteUint16(uint16(len(data)))
	w.WriteBytes(data)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
