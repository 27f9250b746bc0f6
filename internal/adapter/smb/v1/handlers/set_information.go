package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/header"
	"github.com/marmos91/dittosmb/internal/adapter/smb/smbenc"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/internal/logger"
	"github.com/marmos91/dittosmb/internal/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// setInformationWordCount is the parameter block size of the request in
// 16-bit words: attributes (1), last write time (2) and five reserved words.
const setInformationWordCount = 8

// bufferFormatASCII precedes a null-terminated path in the data block.
const bufferFormatASCII = 0x04

// SetInformationRequest represents an SMB_COM_SET_INFORMATION request
// [MS-CIFS] 2.2.4.10.1.
type SetInformationRequest struct {
	// FileAttributes is the new SMB_FILE_ATTRIBUTES value.
	// FileAttributeNormal leaves attributes unchanged; zero clears them.
	FileAttributes types.FileAttributes

	// LastWriteTime is a UTIME in the server's local time zone.
	// 0 and 0xFFFFFFFF leave the modification time unchanged.
	LastWriteTime uint32

	// FileName is the target path, relative to the tree's working
	// directory unless it starts with a separator.
	FileName string
}

// SetInformationResponse represents an SMB_COM_SET_INFORMATION response
// [MS-CIFS] 2.2.4.10.2. Both blocks are empty.
type SetInformationResponse struct {
	SMBResponseBase
}

// ============================================================================
// Encoding/Decoding Functions
// ============================================================================

// DecodeSetInformationRequest parses a SET_INFORMATION command body. The
// path is transcoded into scratch, which must be sized for the body's data
// block; the returned request does not alias scratch.
func DecodeSetInformationRequest(body []byte, unicode bool, scratch []byte) (*SetInformationRequest, error) {
	blocks, err := smbenc.ParseBlocks(body)
	if err != nil {
		return nil, fmt.Errorf("%w: SET_INFORMATION: %v", ErrMalformedRequest, err)
	}
	if blocks.WordCount != setInformationWordCount {
		return nil, fmt.Errorf("%w: SET_INFORMATION word count %d", ErrMalformedRequest, blocks.WordCount)
	}

	words := smbenc.NewReader(blocks.Words)
	attrs := words.ReadUint16()
	utime := words.ReadUint32()
	words.Skip(10) // Reserved
	if err := words.Err(); err != nil {
		return nil, fmt.Errorf("%w: SET_INFORMATION parameters: %v", ErrMalformedRequest, err)
	}

	// Unicode alignment is measured from the start of the SMB header.
	data := smbenc.NewReaderAt(blocks.Bytes, header.HeaderSize+blocks.BytesOffset)
	data.ExpectUint8(bufferFormatASCII)
	name := data.ReadString(unicode, scratch)
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("%w: SET_INFORMATION file name: %v", ErrMalformedRequest, err)
	}

	return &SetInformationRequest{
		FileAttributes: types.FileAttributes(attrs),
		LastWriteTime:  utime,
		FileName:       name,
	}, nil
}

// Encode serializes the request as a command body, the client side of
// DecodeSetInformationRequest.
func (req *SetInformationRequest) Encode(unicode bool) ([]byte, error) {
	words := smbenc.NewWriter(setInformationWordCount * 2)
	words.WriteUint16(uint16(req.FileAttributes))
	words.WriteUint32(req.LastWriteTime)
	words.WriteZeros(10)

	data := smbenc.NewWriter(len(req.FileName)*2 + 3)
	data.WriteUint8(bufferFormatASCII)
	data.WriteString(unicode, req.FileName)
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("encode SET_INFORMATION file name: %w", err)
	}

	return smbenc.EncodeBlocks(words.Bytes(), data.Bytes())
}

// Encode serializes the response body: WordCount 0, ByteCount 0.
func (resp *SetInformationResponse) Encode() ([]byte, error) {
	return encodeEmpty()
}

// ============================================================================
// Protocol Handler
// ============================================================================

// SetInformation handles SMB_COM_SET_INFORMATION (0x09).
//
// The request sets the DOS attributes and the last write time of a file
// or directory named by path. Non-disk trees accept the request without
// touching the store. Once the path is decoded the request runs to
// completion even if the connection context is canceled, so a commit is
// never abandoned halfway.
//
// Protocol failures are reported through the response status; the error
// return is reserved for conditions the dispatcher cannot encode.
func (h *Handler) SetInformation(hc *SMBHandlerContext, body []byte) (*SetInformationResponse, error) {
	command := types.SMBComSetInformation.String()
	start := time.Now()

	ctx, span := telemetry.StartSMBSpan(hc.Context, command,
		telemetry.ClientIP(hc.ClientAddr),
		telemetry.Share(hc.Share.Name),
		telemetry.ShareType(hc.Share.Type.String()),
		telemetry.SMBSessionID(hc.SessionID),
		telemetry.SMBTreeID(hc.TreeID),
		telemetry.SMBMessageID(hc.MessageID),
		telemetry.SMBUnicode(hc.Unicode))
	defer span.End()

	lc := hc.logContext(command).WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	if h.Metrics != nil {
		h.Metrics.RecordRequestStart(command, hc.Share.Name)
		defer h.Metrics.RecordRequestEnd(command, hc.Share.Name)
	}

	resp := h.setInformation(ctx, hc, body)

	span.SetAttributes(
		telemetry.SMBStatus(resp.Status),
		telemetry.SMBDosError(resp.DosError))
	if resp.Status.IsError() {
		telemetry.SetStatus(ctx, codes.Error, resp.Status.String())
	}
	if h.Metrics != nil {
		h.Metrics.RecordRequest(command, hc.Share.Name, time.Since(start), resp.Status.String())
	}

	logger.DebugCtx(ctx, "SET_INFORMATION complete",
		logger.Status(uint32(resp.Status)),
		logger.DosError(resp.DosError.Class, resp.DosError.Code),
		logger.DurationMs(lc.DurationMs()))
	return resp, nil
}

func (h *Handler) setInformation(ctx context.Context, hc *SMBHandlerContext, body []byte) *SetInformationResponse {
	// ========================================================================
	// Step 1: Non-disk trees accept the request as a no-op
	// ========================================================================

	if !hc.Share.Type.IsDisk() {
		logger.DebugCtx(ctx, "SET_INFORMATION on non-disk share ignored",
			logger.ShareType(hc.Share.Type.String()))
		return &SetInformationResponse{SMBResponseBase: successBase()}
	}

	// ========================================================================
	// Step 2: Decode the request
	// ========================================================================

	pool := h.buffers()
	scratch := pool.GetName(len(body))
	defer pool.Put(scratch)

	req, err := DecodeSetInformationRequest(body, hc.Unicode, scratch)
	if err != nil {
		logger.DebugCtx(ctx, "SET_INFORMATION: malformed request", logger.Err(err))
		telemetry.RecordError(ctx, err)
		return &SetInformationResponse{SMBResponseBase: MapError(err).base()}
	}

	telemetry.SetAttributes(ctx,
		telemetry.Path(req.FileName),
		telemetry.Attributes(uint32(req.FileAttributes)),
		telemetry.SMBUTime(req.LastWriteTime))
	logger.DebugCtx(ctx, "SET_INFORMATION request",
		logger.Path(req.FileName),
		logger.Attributes(uint32(req.FileAttributes)),
		logger.UTime(req.LastWriteTime))

	// From here on the request is not interruptible.
	ctx = context.WithoutCancel(ctx)

	return h.applySetInformation(ctx, hc, req)
}

func (h *Handler) applySetInformation(ctx context.Context, hc *SMBHandlerContext, req *SetInformationRequest) *SetInformationResponse {
	fail := func(op string, err error) *SetInformationResponse {
		m := MapError(err)
		logger.DebugCtx(ctx, "SET_INFORMATION failed",
			logger.Operation(op),
			logger.Path(req.FileName),
			logger.Status(uint32(m.Status)),
			logger.Err(err))
		telemetry.RecordError(ctx, err)
		return &SetInformationResponse{SMBResponseBase: m.base()}
	}

	// ========================================================================
	// Step 3: Resolve the parent directory
	// ========================================================================

	dir, name, err := h.Store.ResolvePath(ctx, hc.Identity, hc.Root, hc.Cwd, req.FileName)
	if err != nil {
		return fail("resolve", err)
	}

	// ========================================================================
	// Step 4: Look up the final component, following symlinks
	// ========================================================================

	node, err := h.Store.Lookup(ctx, hc.Identity, dir, name, true)
	dir.Release()
	if err != nil {
		return fail("lookup", err)
	}
	ref := guardRef(node)
	defer ref.Release()

	telemetry.SetAttributes(ctx, telemetry.NodeID(node.ID()))

	// ========================================================================
	// Step 5: The DIRECTORY bit cannot be set on a non-directory
	// ========================================================================

	if req.FileAttributes.Has(types.FileAttributeDirectory) && !node.IsDirectory() {
		logger.DebugCtx(ctx, "SET_INFORMATION: directory attribute on non-directory",
			logger.Path(req.FileName),
			logger.NodeID(node.ID()))
		return &SetInformationResponse{SMBResponseBase: mappingInvalidParam.base()}
	}

	// ========================================================================
	// Step 6: Break oplocks held by other sessions
	// ========================================================================

	if h.Oplocks != nil && h.Oplocks.Conflict(node.ID(), hc.SessionID) {
		result := h.Oplocks.Break(ctx, node.ID(), hc.SessionID)
		telemetry.SetAttributes(ctx, telemetry.OplockResult(result.String()))
		logger.DebugCtx(ctx, "SET_INFORMATION: oplock break",
			logger.NodeID(node.ID()),
			logger.BreakResult(result.String()))
	}

	// ========================================================================
	// Step 7: Stage attribute and time changes
	// ========================================================================

	if req.FileAttributes != types.FileAttributeNormal {
		h.Store.SetDosAttributes(node, uint32(req.FileAttributes))
	}
	if !types.IsUTimeSentinel(req.LastWriteTime) {
		h.Store.SetModifyTime(node, types.LocalToAbsolute(hc.Location, req.LastWriteTime))
	}

	// ========================================================================
	// Step 8: Commit
	// ========================================================================

	if err := h.Store.CommitAttributes(ctx, hc.Identity, node); err != nil {
		return fail("commit", err)
	}

	return &SetInformationResponse{SMBResponseBase: successBase()}
}
