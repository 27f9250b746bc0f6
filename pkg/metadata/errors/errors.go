// Package errors defines the error codes returned by the metadata layer.
// It is a leaf package so that protocol handlers, stores and the node
// cache can share the same vocabulary without import cycles.
//
// Import graph: errors <- metadata <- store implementations
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a metadata failure. Protocol adapters translate
// codes into wire status values; the zero value is never produced.
type ErrorCode int

const (
	// ErrNotFound indicates the final path component does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrPathNotFound indicates an intermediate directory does not exist.
	ErrPathNotFound

	// ErrNotDirectory indicates an operation that requires a directory.
	ErrNotDirectory

	// ErrIsDirectory indicates an operation not valid on a directory.
	ErrIsDirectory

	// ErrAccessDenied indicates the caller lacks rights (POSIX EACCES).
	ErrAccessDenied

	// ErrPermissionDenied indicates an ownership or privilege failure (POSIX EPERM).
	ErrPermissionDenied

	// ErrAlreadyExists indicates the name is already taken.
	ErrAlreadyExists

	// ErrNotEmpty indicates a directory still has children.
	ErrNotEmpty

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument

	// ErrInvalidName indicates a malformed path or name.
	ErrInvalidName

	// ErrNameTooLong indicates a component exceeds the name limit.
	ErrNameTooLong

	// ErrPathSyntax indicates a path that cannot be resolved as written,
	// such as one climbing above the share root.
	ErrPathSyntax

	// ErrTooManyLinks indicates symlink resolution exceeded its depth bound.
	ErrTooManyLinks

	// ErrIOError indicates the backend failed to read or persist.
	ErrIOError

	// ErrNoSpace indicates the backend is out of space.
	ErrNoSpace

	// ErrReadOnly indicates the share or backend is read-only.
	ErrReadOnly

	// ErrNotSupported indicates the backend cannot perform the operation.
	ErrNotSupported

	// ErrStaleHandle indicates the node behind a handle no longer exists.
	ErrStaleHandle

	// ErrLocked indicates the node is locked by another holder.
	ErrLocked
)

// AllCodes lists every defined ErrorCode in declaration order.
var AllCodes = []ErrorCode{
	ErrNotFound,
	ErrPathNotFound,
	ErrNotDirectory,
	ErrIsDirectory,
	ErrAccessDenied,
	ErrPermissionDenied,
	ErrAlreadyExists,
	ErrNotEmpty,
	ErrInvalidArgument,
	ErrInvalidName,
	ErrNameTooLong,
	ErrPathSyntax,
	ErrTooManyLinks,
	ErrIOError,
	ErrNoSpace,
	ErrReadOnly,
	ErrNotSupported,
	ErrStaleHandle,
	ErrLocked,
}

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrPathNotFound:
		return "PathNotFound"
	case ErrNotDirectory:
		return "NotDirectory"
	case ErrIsDirectory:
		return "IsDirectory"
	case ErrAccessDenied:
		return "AccessDenied"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrNotEmpty:
		return "NotEmpty"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInvalidName:
		return "InvalidName"
	case ErrNameTooLong:
		return "NameTooLong"
	case ErrPathSyntax:
		return "PathSyntax"
	case ErrTooManyLinks:
		return "TooManyLinks"
	case ErrIOError:
		return "IOError"
	case ErrNoSpace:
		return "NoSpace"
	case ErrReadOnly:
		return "ReadOnly"
	case ErrNotSupported:
		return "NotSupported"
	case ErrStaleHandle:
		return "StaleHandle"
	case ErrLocked:
		return "Locked"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// StoreError is a metadata error carrying a code and optional path.
type StoreError struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying backend error, if any.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err, searching its wrap chain.
// ok is false when err carries no StoreError.
func CodeOf(err error) (code ErrorCode, ok bool) {
	var se *StoreError
	if stderrors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// ============================================================================
// Factory Functions
// ============================================================================

// New creates a StoreError with an explicit code.
func New(code ErrorCode, path, message string) *StoreError {
	return &StoreError{Code: code, Message: message, Path: path}
}

// Wrap creates a StoreError that records a backend cause.
func Wrap(code ErrorCode, path string, err error) *StoreError {
	return &StoreError{Code: code, Message: code.String(), Path: path, Err: err}
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(path, resourceType string) *StoreError {
	return &StoreError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resourceType),
		Path:    path,
	}
}

// NewPathNotFoundError creates a PathNotFound error for a missing intermediate directory.
func NewPathNotFoundError(path string) *StoreError {
	return &StoreError{
		Code:    ErrPathNotFound,
		Message: "path component not found",
		Path:    path,
	}
}

// NewNotDirectoryError creates a NotDirectory error.
func NewNotDirectoryError(path string) *StoreError {
	return &StoreError{
		Code:    ErrNotDirectory,
		Message: "not a directory",
		Path:    path,
	}
}

// NewAccessDeniedError creates an AccessDenied error.
func NewAccessDeniedError(reason string) *StoreError {
	return &StoreError{
		Code:    ErrAccessDenied,
		Message: reason,
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(path string) *StoreError {
	return &StoreError{
		Code:    ErrAlreadyExists,
		Message: "already exists",
		Path:    path,
	}
}

// NewInvalidNameError creates an InvalidName error.
func NewInvalidNameError(path, reason string) *StoreError {
	return &StoreError{
		Code:    ErrInvalidName,
		Message: reason,
		Path:    path,
	}
}

// NewNameTooLongError creates a NameTooLong error.
func NewNameTooLongError(path string) *StoreError {
	return &StoreError{
		Code:    ErrNameTooLong,
		Message: "name too long",
		Path:    path,
	}
}

// NewPathSyntaxError creates a PathSyntax error.
func NewPathSyntaxError(path, reason string) *StoreError {
	return &StoreError{
		Code:    ErrPathSyntax,
		Message: reason,
		Path:    path,
	}
}

// NewReadOnlyError creates a ReadOnly error.
func NewReadOnlyError(share string) *StoreError {
	return &StoreError{
		Code:    ErrReadOnly,
		Message: fmt.Sprintf("share %q is read-only", share),
	}
}

// NewStaleHandleError creates a StaleHandle error.
func NewStaleHandleError(id string) *StoreError {
	return &StoreError{
		Code:    ErrStaleHandle,
		Message: fmt.Sprintf("node %s no longer exists", id),
	}
}

// NewIOError wraps a backend failure.
func NewIOError(op string, err error) *StoreError {
	return &StoreError{
		Code:    ErrIOError,
		Message: op,
		Err:     err,
	}
}
