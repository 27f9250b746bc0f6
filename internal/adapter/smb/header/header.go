package header

import (
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
)

// HeaderSize is the fixed size of an SMB1 header.
const HeaderSize = 32

// ProtocolID is 0xFF 'S' 'M' 'B' read as a little-endian uint32.
const ProtocolID uint32 = 0x424D53FF

// Flags is the SMB_FLAGS byte.
type Flags uint8

const (
	FlagsLockAndRead     Flags = 0x01
	FlagsCaseInsensitive Flags = 0x08
	FlagsCanonicalPaths  Flags = 0x10
	FlagsOplock          Flags = 0x20
	FlagsOplockNotifyAny Flags = 0x40
	FlagsReply           Flags = 0x80
)

// Flags2 is the SMB_FLAGS2 word.
type Flags2 uint16

const (
	Flags2LongNames  Flags2 = 0x0001
	Flags2EAs        Flags2 = 0x0002
	Flags2Signed     Flags2 = 0x0004
	Flags2IsLongName Flags2 = 0x0040
	Flags2DFS        Flags2 = 0x1000
	Flags2PagingIO   Flags2 = 0x2000
	Flags2NTStatus   Flags2 = 0x4000
	Flags2Unicode    Flags2 = 0x8000
)

// SMB1Header is a decoded SMB1 header.
type SMB1Header struct {
	Command          types.Command
	Status           uint32
	Flags            Flags
	Flags2           Flags2
	PIDHigh          uint16
	SecurityFeatures [8]byte
	TID              uint16
	PIDLow           uint16
	UID              uint16
	MID              uint16
}

// IsUnicode reports whether strings in the message are UTF-16LE.
func (h *SMB1Header) IsUnicode() bool {
	return h.Flags2&Flags2Unicode != 0
}

// UsesNTStatus reports whether the client wants 32-bit status codes.
func (h *SMB1Header) UsesNTStatus() bool {
	return h.Flags2&Flags2NTStatus != 0
}

// IsReply reports whether the message is a server response.
func (h *SMB1Header) IsReply() bool {
	return h.Flags&FlagsReply != 0
}

// PID returns the full 32-bit process id.
func (h *SMB1Header) PID() uint32 {
	return uint32(h.PIDHigh)<<16 | uint32(h.PIDLow)
}

// Reply returns the header of the response to h. The caller sets the
// status with SetNTStatus or SetDosError.
func (h *SMB1Header) Reply() *SMB1Header {
	r := *h
	r.Flags |= FlagsReply
	r.Status = 0
	r.SecurityFeatures = [8]byte{}
	return &r
}

// SetError stores the error in the representation the client negotiated.
func (h *SMB1Header) SetError(status types.Status, dos types.DosError) {
	if h.UsesNTStatus() {
		h.Status = uint32(status)
		return
	}
	h.Status = dos.Pack()
}
