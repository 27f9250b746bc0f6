package types

import "fmt"

// DOS error classes carried in the SMB1 header when the client did not
// negotiate NT status codes. [MS-CIFS] 2.2.2.4
const (
	ErrClassSuccess uint8 = 0x00
	ErrClassDOS     uint8 = 0x01 // ERRDOS
	ErrClassSRV     uint8 = 0x02 // ERRSRV
	ErrClassHRD     uint8 = 0x03 // ERRHRD
)

// ERRDOS codes (Win32 error numbers).
const (
	ErrBadFunc          uint16 = 1   // ERRbadfunc / ERROR_INVALID_FUNCTION
	ErrBadFile          uint16 = 2   // ERROR_FILE_NOT_FOUND
	ErrBadPath          uint16 = 3   // ERROR_PATH_NOT_FOUND
	ErrNoAccess         uint16 = 5   // ERROR_ACCESS_DENIED
	ErrBadFid           uint16 = 6   // ERROR_INVALID_HANDLE
	ErrWriteProtect     uint16 = 19  // ERROR_WRITE_PROTECT
	ErrBadShare         uint16 = 32  // ERROR_SHARING_VIOLATION
	ErrLock             uint16 = 33  // ERROR_LOCK_VIOLATION
	ErrNotSupported     uint16 = 50  // ERROR_NOT_SUPPORTED
	ErrFileExists       uint16 = 80  // ERROR_FILE_EXISTS
	ErrInvalidParameter uint16 = 87  // ERROR_INVALID_PARAMETER
	ErrDiskFull         uint16 = 112 // ERROR_DISK_FULL
	ErrInvalidName      uint16 = 123 // ERROR_INVALID_NAME
	ErrDirNotEmpty      uint16 = 145 // ERROR_DIR_NOT_EMPTY
	ErrBadPathName      uint16 = 161 // ERROR_BAD_PATHNAME
	ErrAlreadyExists    uint16 = 183 // ERROR_ALREADY_EXISTS
	ErrDirectory        uint16 = 267 // ERROR_DIRECTORY
	ErrTooManyLinks     uint16 = 1142
)

// ERRSRV codes.
const (
	ErrSrvError      uint16 = 1  // ERRerror, non-specific server error
	ErrSrvInvalidTID uint16 = 5  // ERRinvtid
	ErrSrvBadUID     uint16 = 91 // ERRbaduid
)

// DosError is a legacy SMB1 error class/code pair.
type DosError struct {
	Class uint8
	Code  uint16
}

// DosSuccess is the class/code pair of a successful response.
var DosSuccess = DosError{}

// IsSuccess reports whether e carries no error.
func (e DosError) IsSuccess() bool {
	return e.Class == ErrClassSuccess && e.Code == 0
}

// String renders e as "ERRDOS/87".
func (e DosError) String() string {
	var class string
	switch e.Class {
	case ErrClassSuccess:
		return "SUCCESS"
	case ErrClassDOS:
		class = "ERRDOS"
	case ErrClassSRV:
		class = "ERRSRV"
	case ErrClassHRD:
		class = "ERRHRD"
	default:
		class = fmt.Sprintf("CLASS_%d", e.Class)
	}
	return fmt.Sprintf("%s/%d", class, e.Code)
}

// Pack lays out the DOS error in the header's 4-byte status field:
// ErrorClass, Reserved, ErrorCode (little-endian).
func (e DosError) Pack() uint32 {
	return uint32(e.Class) | uint32(e.Code)<<16
}
