package handlers

import (
	"errors"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	metaerrors "github.com/marmos91/dittosmb/pkg/metadata/errors"
)

// ErrMalformedRequest wraps every request decode failure.
var ErrMalformedRequest = errors.New("malformed SMB1 request")

// ErrorMapping is the wire representation of one failure.
type ErrorMapping struct {
	Status   types.Status
	DosError types.DosError
}

func dos(code uint16) types.DosError {
	return types.DosError{Class: types.ErrClassDOS, Code: code}
}

func srv(code uint16) types.DosError {
	return types.DosError{Class: types.ErrClassSRV, Code: code}
}

// storeErrorMap translates node store error codes. Every code in
// metaerrors.AllCodes has an entry.
var storeErrorMap = map[metaerrors.ErrorCode]ErrorMapping{
	metaerrors.ErrNotFound:         {types.StatusObjectNameNotFound, dos(types.ErrBadFile)},
	metaerrors.ErrPathNotFound:     {types.StatusObjectPathNotFound, dos(types.ErrBadPath)},
	metaerrors.ErrNotDirectory:     {types.StatusObjectPathNotFound, dos(types.ErrBadPath)},
	metaerrors.ErrIsDirectory:      {types.StatusFileIsADirectory, dos(types.ErrNoAccess)},
	metaerrors.ErrAccessDenied:     {types.StatusAccessDenied, dos(types.ErrNoAccess)},
	metaerrors.ErrPermissionDenied: {types.StatusAccessDenied, dos(types.ErrNoAccess)},
	metaerrors.ErrAlreadyExists:    {types.StatusObjectNameCollision, dos(types.ErrAlreadyExists)},
	metaerrors.ErrNotEmpty:         {types.StatusDirectoryNotEmpty, dos(types.ErrDirNotEmpty)},
	metaerrors.ErrInvalidArgument:  {types.StatusInvalidParameter, dos(types.ErrInvalidParameter)},
	metaerrors.ErrInvalidName:      {types.StatusObjectNameInvalid, dos(types.ErrInvalidName)},
	metaerrors.ErrNameTooLong:      {types.StatusNameTooLong, dos(types.ErrInvalidName)},
	metaerrors.ErrPathSyntax:       {types.StatusObjectPathSyntaxBad, dos(types.ErrBadPathName)},
	metaerrors.ErrTooManyLinks:     {types.StatusTooManyLinks, dos(types.ErrTooManyLinks)},
	metaerrors.ErrIOError:          {types.StatusIODeviceError, srv(types.ErrSrvError)},
	metaerrors.ErrNoSpace:          {types.StatusDiskFull, dos(types.ErrDiskFull)},
	metaerrors.ErrReadOnly:         {types.StatusAccessDenied, dos(types.ErrNoAccess)},
	metaerrors.ErrNotSupported:     {types.StatusNotSupported, dos(types.ErrNotSupported)},
	metaerrors.ErrStaleHandle:      {types.StatusInvalidHandle, dos(types.ErrBadFid)},
	metaerrors.ErrLocked:           {types.StatusFileLockConflict, dos(types.ErrLock)},
}

var (
	mappingInternal     = ErrorMapping{types.StatusInternalError, srv(types.ErrSrvError)}
	mappingMalformed    = ErrorMapping{types.StatusInvalidSMB, srv(types.ErrSrvError)}
	mappingInvalidParam = ErrorMapping{types.StatusInvalidParameter, dos(types.ErrInvalidParameter)}
	mappingNotSupported = ErrorMapping{types.StatusNotSupported, dos(types.ErrBadFunc)}
)

// MapError translates a handler failure into its wire representation.
// Decode failures become STATUS_INVALID_SMB; store errors go through
// storeErrorMap; anything else is STATUS_INTERNAL_ERROR.
func MapError(err error) ErrorMapping {
	if err == nil {
		return ErrorMapping{types.StatusSuccess, types.DosSuccess}
	}
	if errors.Is(err, ErrMalformedRequest) {
		return mappingMalformed
	}
	if code, ok := metaerrors.CodeOf(err); ok {
		if m, ok := storeErrorMap[code]; ok {
			return m
		}
	}
	return mappingInternal
}

func (m ErrorMapping) base() SMBResponseBase {
	return SMBResponseBase{Status: m.Status, DosError: m.DosError}
}
