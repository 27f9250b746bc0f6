package types

import "fmt"

// Status is an NT_STATUS code, sent in the header when the client set
// FLAGS2_NT_STATUS. The top two bits carry the severity; 0b11 is an error.
// [MS-ERREF] 2.3
type Status uint32

// Codes produced by the SMB1 handlers.
const (
	StatusSuccess Status = 0x00000000

	// SMB-facility codes keep success severity; clients still treat them
	// as failures. [MS-CIFS] 2.2.2.4
	StatusInvalidSMB Status = 0x00010002
	StatusSMBBadTID  Status = 0x00050002
	StatusSMBBadUID  Status = 0x005B0002

	StatusInvalidHandle       Status = 0xC0000008
	StatusInvalidParameter    Status = 0xC000000D
	StatusAccessDenied        Status = 0xC0000022
	StatusObjectNameInvalid   Status = 0xC0000033
	StatusObjectNameNotFound  Status = 0xC0000034
	StatusObjectNameCollision Status = 0xC0000035
	StatusObjectPathNotFound  Status = 0xC000003A
	// StatusObjectPathSyntaxBad also covers ".." escaping the share root.
	StatusObjectPathSyntaxBad Status = 0xC000003B
	StatusFileLockConflict    Status = 0xC0000054
	StatusDiskFull            Status = 0xC000007F
	StatusFileIsADirectory    Status = 0xC00000BA
	StatusNotSupported        Status = 0xC00000BB
	StatusInternalError       Status = 0xC00000E5
	StatusDirectoryNotEmpty   Status = 0xC0000101
	StatusNotADirectory       Status = 0xC0000103
	StatusNameTooLong         Status = 0xC0000106
	StatusIODeviceError       Status = 0xC0000185
	// StatusTooManyLinks reports a symlink chain past the expansion bound.
	StatusTooManyLinks Status = 0xC0000265
)

var statusNames = map[Status]string{
	StatusSuccess:             "STATUS_SUCCESS",
	StatusInvalidSMB:          "STATUS_INVALID_SMB",
	StatusSMBBadTID:           "STATUS_SMB_BAD_TID",
	StatusSMBBadUID:           "STATUS_SMB_BAD_UID",
	StatusInvalidHandle:       "STATUS_INVALID_HANDLE",
	StatusInvalidParameter:    "STATUS_INVALID_PARAMETER",
	StatusAccessDenied:        "STATUS_ACCESS_DENIED",
	StatusObjectNameInvalid:   "STATUS_OBJECT_NAME_INVALID",
	StatusObjectNameNotFound:  "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision: "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathNotFound:  "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusObjectPathSyntaxBad: "STATUS_OBJECT_PATH_SYNTAX_BAD",
	StatusFileLockConflict:    "STATUS_FILE_LOCK_CONFLICT",
	StatusDiskFull:            "STATUS_DISK_FULL",
	StatusFileIsADirectory:    "STATUS_FILE_IS_A_DIRECTORY",
	StatusNotSupported:        "STATUS_NOT_SUPPORTED",
	StatusInternalError:       "STATUS_INTERNAL_ERROR",
	StatusDirectoryNotEmpty:   "STATUS_DIRECTORY_NOT_EMPTY",
	StatusNotADirectory:       "STATUS_NOT_A_DIRECTORY",
	StatusNameTooLong:         "STATUS_NAME_TOO_LONG",
	StatusIODeviceError:       "STATUS_IO_DEVICE_ERROR",
	StatusTooManyLinks:        "STATUS_TOO_MANY_LINKS",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_0x%08X", uint32(s))
}

// IsSuccess reports whether s is STATUS_SUCCESS.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// IsError reports error severity.
func (s Status) IsError() bool { return s.Severity() == 3 }

// Severity returns the two severity bits.
func (s Status) Severity() int { return int(uint32(s) >> 30) }
