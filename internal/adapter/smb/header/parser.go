package header

import (
	"encoding/binary"
	"errors"

	"github.com/marmos91/dittosmb/internal/adapter/smb/smbenc"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
)

// Parsing errors
var (
	// ErrInvalidProtocolID indicates the message does not start with 0xFF 'S' 'M' 'B'.
	ErrInvalidProtocolID = errors.New("invalid SMB1 protocol ID")

	// ErrMessageTooShort indicates the message cannot hold an SMB1 header.
	ErrMessageTooShort = errors.New("message too short for SMB1 header")
)

// Parse extracts an SMB1Header from the first 32 bytes of data.
//
// Example:
//
//	hdr, err := header.Parse(msg)
//	if err != nil {
//	    return fmt.Errorf("invalid SMB1 header: %w", err)
//	}
//	body := msg[header.HeaderSize:]
func Parse(data []byte) (*SMB1Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrMessageTooShort
	}
	if !IsSMB1Message(data) {
		return nil, ErrInvalidProtocolID
	}

	r := smbenc.NewReader(data[4:HeaderSize])
	h := &SMB1Header{
		Command: types.Command(r.ReadUint8()),
		Status:  r.ReadUint32(),
		Flags:   Flags(r.ReadUint8()),
		Flags2:  Flags2(r.ReadUint16()),
		PIDHigh: r.ReadUint16(),
	}
	copy(h.SecurityFeatures[:], r.ReadBytes(8))
	r.Skip(2) // Reserved
	h.TID = r.ReadUint16()
	h.PIDLow = r.ReadUint16()
	h.UID = r.ReadUint16()
	h.MID = r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// Encode serializes h into a 32-byte header.
func (h *SMB1Header) Encode() []byte {
	w := smbenc.NewWriter(HeaderSize)
	w.WriteUint32(ProtocolID)
	w.WriteUint8(uint8(h.Command))
	w.WriteUint32(h.Status)
	w.WriteUint8(uint8(h.Flags))
	w.WriteUint16(uint16(h.Flags2))
	w.WriteUint16(h.PIDHigh)
	w.WriteBytes(h.SecurityFeatures[:])
	w.WriteZeros(2)
	w.WriteUint16(h.TID)
	w.WriteUint16(h.PIDLow)
	w.WriteUint16(h.UID)
	w.WriteUint16(h.MID)
	return w.Bytes()
}

// IsSMB1Message checks if data starts with the SMB1 protocol ID.
func IsSMB1Message(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(data[0:4]) == ProtocolID
}
