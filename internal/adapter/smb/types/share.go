package types

import (
	"fmt"
	"strings"
)

// ShareType is the STYPE_* value of a tree connect. [MS-SRVS] 2.2.2.4
type ShareType uint32

const (
	ShareTypeDisk   ShareType = 0x00000000 // STYPE_DISKTREE
	ShareTypePrintQ ShareType = 0x00000001 // STYPE_PRINTQ
	ShareTypeDevice ShareType = 0x00000002 // STYPE_DEVICE (comm device)
	ShareTypeIPC    ShareType = 0x00000003 // STYPE_IPC
)

// IsDisk reports whether the share is backed by a filesystem.
func (t ShareType) IsDisk() bool {
	return t == ShareTypeDisk
}

// String returns the configuration name of the share type.
func (t ShareType) String() string {
	switch t {
	case ShareTypeDisk:
		return "disk"
	case ShareTypePrintQ:
		return "printq"
	case ShareTypeDevice:
		return "comm"
	case ShareTypeIPC:
		return "ipc"
	default:
		return fmt.Sprintf("stype(%d)", uint32(t))
	}
}

// ParseShareType converts a configuration name into a ShareType.
func ParseShareType(s string) (ShareType, error) {
	switch strings.ToLower(s) {
	case "", "disk":
		return ShareTypeDisk, nil
	case "printq", "print":
		return ShareTypePrintQ, nil
	case "comm", "device":
		return ShareTypeDevice, nil
	case "ipc":
		return ShareTypeIPC, nil
	default:
		return 0, fmt.Errorf("unknown share type %q", s)
	}
}
