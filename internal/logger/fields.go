package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// so log aggregation can query across commands.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Protocol & Command
	// ========================================================================
	KeyCommand   = "command"    // SMB command name
	KeyShare     = "share"      // Tree share name
	KeyShareType = "share_type" // disk, printq, ipc, comm
	KeyStatus    = "status"     // NT status code
	KeyDosError  = "dos_error"  // ERRDOS/ERRSRV class:code pair
	KeyMessageID = "mid"        // SMB multiplex ID
	KeyTreeID    = "tid"        // SMB tree ID

	// ========================================================================
	// File System
	// ========================================================================
	KeyPath       = "path"
	KeyFilename   = "filename"
	KeyNodeID     = "node_id"
	KeyType       = "type"
	KeyAttributes = "attributes" // DOS attribute bits
	KeyMtime      = "mtime"
	KeyUTime      = "utime" // raw 32-bit local-time seconds from the wire

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP  = "client_ip"
	KeyUsername  = "username"
	KeySessionID = "session_id"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyOperation  = "operation"

	// ========================================================================
	// Metadata Store
	// ========================================================================
	KeyStoreType = "store_type" // memory, badger
	KeyRefs      = "refs"       // outstanding node references

	// ========================================================================
	// Oplocks
	// ========================================================================
	KeyOplockLevel = "oplock_level"
	KeyBreakResult = "break_result"
)

// ----------------------------------------------------------------------------
// Protocol & Command
// ----------------------------------------------------------------------------

// Command returns a slog.Attr for the SMB command name
func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

// Share returns a slog.Attr for the share name
func Share(name string) slog.Attr {
	return slog.String(KeyShare, name)
}

// ShareType returns a slog.Attr for the share type
func ShareType(t string) slog.Attr {
	return slog.String(KeyShareType, t)
}

// Status returns a slog.Attr for an NT status code, rendered as hex
func Status(code uint32) slog.Attr {
	return slog.String(KeyStatus, fmt.Sprintf("0x%08X", code))
}

// DosError returns a slog.Attr for a DOS error class and code
func DosError(class uint8, code uint16) slog.Attr {
	return slog.String(KeyDosError, fmt.Sprintf("%d:%d", class, code))
}

// MessageID returns a slog.Attr for the SMB multiplex ID
func MessageID(mid uint16) slog.Attr {
	return slog.Any(KeyMessageID, mid)
}

// TreeID returns a slog.Attr for the SMB tree ID
func TreeID(tid uint16) slog.Attr {
	return slog.Any(KeyTreeID, tid)
}

// ----------------------------------------------------------------------------
// File System
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for a share-relative path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for a final path component
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// NodeID returns a slog.Attr for a metadata node identifier
func NodeID(id fmt.Stringer) slog.Attr {
	return slog.String(KeyNodeID, id.String())
}

// TypeStr returns a slog.Attr for a file type name
func TypeStr(t string) slog.Attr {
	return slog.String(KeyType, t)
}

// Attributes returns a slog.Attr for DOS attribute bits
func Attributes(attrs uint32) slog.Attr {
	return slog.String(KeyAttributes, fmt.Sprintf("0x%04X", attrs))
}

// UTime returns a slog.Attr for a raw wire timestamp
func UTime(v uint32) slog.Attr {
	return slog.Any(KeyUTime, v)
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Username returns a slog.Attr for the account name
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// SessionID returns a slog.Attr for the SMB session identifier
func SessionID(id uint64) slog.Attr {
	return slog.Uint64(KeySessionID, id)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a metadata error code name
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Operation returns a slog.Attr for a sub-operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ----------------------------------------------------------------------------
// Metadata Store
// ----------------------------------------------------------------------------

// StoreType returns a slog.Attr for the metadata backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Refs returns a slog.Attr for an outstanding reference count
func Refs(n int64) slog.Attr {
	return slog.Int64(KeyRefs, n)
}

// ----------------------------------------------------------------------------
// Oplocks
// ----------------------------------------------------------------------------

// OplockLevel returns a slog.Attr for an oplock level name
func OplockLevel(level string) slog.Attr {
	return slog.String(KeyOplockLevel, level)
}

// BreakResult returns a slog.Attr for an oplock break outcome
func BreakResult(result string) slog.Attr {
	return slog.String(KeyBreakResult, result)
}
