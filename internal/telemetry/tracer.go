package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Generic file-system keys use the "fs." prefix, SMB
// wire fields use "smb.".
const (
	AttrClientIP = "client.ip"

	AttrShare      = "fs.share"
	AttrShareType  = "fs.share_type"
	AttrPath       = "fs.path"
	AttrFilename   = "fs.filename"
	AttrNodeID     = "fs.node_id"
	AttrFileType   = "fs.type"
	AttrAttributes = "fs.attributes"
	AttrMtime      = "fs.mtime"

	AttrSMBCommand   = "smb.command"
	AttrSMBMessageID = "smb.message_id"
	AttrSMBSessionID = "smb.session_id"
	AttrSMBTreeID    = "smb.tree_id"
	AttrSMBStatus    = "smb.status"
	AttrSMBDosError  = "smb.dos_error"
	AttrSMBUTime     = "smb.utime"
	AttrSMBUnicode   = "smb.unicode"

	AttrOplockResult = "oplock.break_result"

	AttrUsername  = "user.name"
	AttrDomain    = "user.domain"
	AttrStoreType = "store.type"
)

// Span names.
const (
	SpanSMBRequest        = "smb.request"
	SpanSMBSetInformation = "smb.SET_INFORMATION"

	SpanMetaResolve = "metadata.resolve"
	SpanMetaLookup  = "metadata.lookup"
	SpanMetaCommit  = "metadata.commit"

	SpanOplockBreak = "oplock.break"
)

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func Share(name string) attribute.KeyValue {
	return attribute.String(AttrShare, name)
}

func ShareType(t string) attribute.KeyValue {
	return attribute.String(AttrShareType, t)
}

func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// NodeID accepts any identifier with a String form (uuid.UUID).
func NodeID(id fmt.Stringer) attribute.KeyValue {
	return attribute.String(AttrNodeID, id.String())
}

func FileType(t string) attribute.KeyValue {
	return attribute.String(AttrFileType, t)
}

// Attributes formats DOS attribute bits as hex, e.g. "0x0021".
func Attributes(bits uint32) attribute.KeyValue {
	return attribute.String(AttrAttributes, fmt.Sprintf("0x%04X", bits))
}

func Mtime(unix int64) attribute.KeyValue {
	return attribute.Int64(AttrMtime, unix)
}

func SMBCommand(name string) attribute.KeyValue {
	return attribute.String(AttrSMBCommand, name)
}

func SMBMessageID(mid uint16) attribute.KeyValue {
	return attribute.Int(AttrSMBMessageID, int(mid))
}

// SMBSessionID is recorded as hex since session IDs use the full 64 bits.
func SMBSessionID(id uint64) attribute.KeyValue {
	return attribute.String(AttrSMBSessionID, fmt.Sprintf("0x%016X", id))
}

func SMBTreeID(tid uint16) attribute.KeyValue {
	return attribute.Int(AttrSMBTreeID, int(tid))
}

func SMBStatus(status fmt.Stringer) attribute.KeyValue {
	return attribute.String(AttrSMBStatus, status.String())
}

func SMBDosError(dosErr fmt.Stringer) attribute.KeyValue {
	return attribute.String(AttrSMBDosError, dosErr.String())
}

func SMBUTime(utime uint32) attribute.KeyValue {
	return attribute.Int64(AttrSMBUTime, int64(utime))
}

func SMBUnicode(unicode bool) attribute.KeyValue {
	return attribute.Bool(AttrSMBUnicode, unicode)
}

func OplockResult(result string) attribute.KeyValue {
	return attribute.String(AttrOplockResult, result)
}

func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

func Domain(name string) attribute.KeyValue {
	return attribute.String(AttrDomain, name)
}

func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StartSMBSpan starts a server span named "smb.<command>".
func StartSMBSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{SMBCommand(command)}, attrs...)
	return StartSpan(ctx, "smb."+command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(all...))
}

// StartMetadataSpan starts a span for a node store operation.
func StartMetadataSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "metadata."+operation, trace.WithAttributes(attrs...))
}
