package types

import "fmt"

// Command is an SMB1 command code. [MS-CIFS] 2.2.2.1
type Command uint8

const (
	SMBComCreateDirectory Command = 0x00
	SMBComDeleteDirectory Command = 0x01
	SMBComOpen            Command = 0x02
	SMBComCreate          Command = 0x03
	SMBComClose           Command = 0x04
	SMBComDelete          Command = 0x06
	SMBComRename          Command = 0x07
	SMBComQueryInfo       Command = 0x08
	SMBComSetInformation  Command = 0x09
	SMBComCheckDirectory  Command = 0x10
)

// String returns the command name without the SMB_COM_ prefix.
func (c Command) String() string {
	switch c {
	case SMBComCreateDirectory:
		return "CREATE_DIRECTORY"
	case SMBComDeleteDirectory:
		return "DELETE_DIRECTORY"
	case SMBComOpen:
		return "OPEN"
	case SMBComCreate:
		return "CREATE"
	case SMBComClose:
		return "CLOSE"
	case SMBComDelete:
		return "DELETE"
	case SMBComRename:
		return "RENAME"
	case SMBComQueryInfo:
		return "QUERY_INFORMATION"
	case SMBComSetInformation:
		return "SET_INFORMATION"
	case SMBComCheckDirectory:
		return "CHECK_DIRECTORY"
	default:
		return fmt.Sprintf("SMB_COM_0x%02X", uint8(c))
	}
}
