package handlers

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/header"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/store/memory"
	"github.com/marmos91/dittosmb/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnsupportedCommand(t *testing.T) {
	env := newTestEnv(t)
	res := env.handler.Dispatch(env.context(t), types.SMBComRename, []byte{0, 0, 0})
	assert.Equal(t, types.StatusNotSupported, res.Status)
	assert.Equal(t, types.DosError{Class: types.ErrClassDOS, Code: types.ErrBadFunc}, res.DosError)
	assert.Equal(t, []byte{0, 0, 0}, res.Body)
	assert.Zero(t, env.rec.total())
}

func TestDispatchSetInformation(t *testing.T) {
	env := newTestEnv(t)
	res := env.handler.Dispatch(env.context(t), types.SMBComSetInformation,
		buildSetInformationBody(types.FileAttributeHidden, types.UTimeNoChange, `\docs\missing.txt`, false))
	assert.Equal(t, types.StatusObjectNameNotFound, res.Status)
	assert.Equal(t, []byte{0, 0, 0}, res.Body)
}

// wireEnv is a registry with one disk share and one IPC share, and a
// connection with an authenticated session.
type wireEnv struct {
	handler *Handler
	conn    *Conn
	disk    *registry.Tree
	ipc     *registry.Tree
	store   *metadata.NodeStore
}

const testUID = 0x0801

func newWireEnv(t *testing.T) *wireEnv {
	t.Helper()
	ctx := t.Context()

	store := metadata.NewNodeStore(memory.NewMemoryMetadataStore())
	reg := registry.NewRegistry(store)
	require.NoError(t, reg.AddShare(registry.Share{Name: "public", Type: types.ShareTypeDisk}))
	require.NoError(t, reg.AddShare(registry.Share{Name: "IPC$", Type: types.ShareTypeIPC}))

	disk, err := reg.TreeConnect(ctx, "public", "192.0.2.20")
	require.NoError(t, err)
	ipc, err := reg.TreeConnect(ctx, "IPC$", "192.0.2.20")
	require.NoError(t, err)

	h, err := store.Create(ctx, testIdentity, disk.Root, "notes.txt", metadata.FileAttr{Type: metadata.FileTypeRegular})
	require.NoError(t, err)
	h.Release()

	sessions := NewSessionTable()
	sessions.Add(testUID, testIdentity)

	t.Cleanup(func() {
		require.NoError(t, reg.Close())
		assert.Zero(t, store.Stats().Outstanding)
	})
	return &wireEnv{
		handler: NewHandler(store, nil, nil),
		conn: &Conn{
			ClientAddr: "192.0.2.20",
			Location:   time.UTC,
			Registry:   reg,
			Sessions:   sessions,
		},
		disk:  disk,
		ipc:   ipc,
		store: store,
	}
}

func buildMessage(hdr header.SMB1Header, body []byte) []byte {
	return append(hdr.Encode(), body...)
}

func TestHandleMessage(t *testing.T) {
	t.Run("SetInformationNTStatus", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			Flags2:  header.Flags2NTStatus | header.Flags2LongNames,
			TID:     env.disk.ID,
			UID:     testUID,
			MID:     42,
			PIDLow:  1234,
		}, buildSetInformationBody(types.FileAttributeReadonly, types.UTimeNoChange, `\notes.txt`, false))

		out, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		require.NoError(t, err)
		require.Len(t, out, header.HeaderSize+3)

		reply, err := header.Parse(out)
		require.NoError(t, err)
		assert.True(t, reply.IsReply())
		assert.Equal(t, types.SMBComSetInformation, reply.Command)
		assert.Equal(t, uint32(types.StatusSuccess), reply.Status)
		assert.Equal(t, uint16(42), reply.MID)
		assert.Equal(t, uint16(1234), reply.PIDLow)
		assert.Equal(t, env.disk.ID, reply.TID)
		assert.Equal(t, []byte{0, 0, 0}, out[header.HeaderSize:])

		dir, name, err := env.store.ResolvePath(t.Context(), testIdentity, env.disk.Root, env.disk.Cwd, `\notes.txt`)
		require.NoError(t, err)
		defer dir.Release()
		node, err := env.store.Lookup(t.Context(), testIdentity, dir, name, true)
		require.NoError(t, err)
		defer node.Release()
		assert.Equal(t, uint32(types.FileAttributeReadonly), node.Attr().DosAttributes)
	})

	t.Run("DosErrorEncoding", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			TID:     env.disk.ID,
			UID:     testUID,
		}, buildSetInformationBody(types.FileAttributeHidden, 0, `\missing.txt`, false))

		out, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		require.NoError(t, err)
		reply, err := header.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, types.DosError{Class: types.ErrClassDOS, Code: types.ErrBadFile}.Pack(), reply.Status)
		// Class, reserved, code.
		assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x00}, out[5:9])
	})

	t.Run("IPCShareIsNoop", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			Flags2:  header.Flags2NTStatus,
			TID:     env.ipc.ID,
			UID:     testUID,
		}, buildSetInformationBody(types.FileAttributeHidden, 0, `\whatever`, false))

		out, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		require.NoError(t, err)
		reply, err := header.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, uint32(types.StatusSuccess), reply.Status)
	})

	t.Run("UnknownTree", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			Flags2:  header.Flags2NTStatus,
			TID:     0x7777,
			UID:     testUID,
		}, buildSetInformationBody(0, 0, `\notes.txt`, false))

		out, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		require.NoError(t, err)
		assert.Equal(t, uint32(types.StatusSMBBadTID), binary.LittleEndian.Uint32(out[5:9]))
	})

	t.Run("UnknownSession", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			TID:     env.disk.ID,
			UID:     0x0999,
		}, buildSetInformationBody(0, 0, `\notes.txt`, false))

		out, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		require.NoError(t, err)
		reply, err := header.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, types.DosError{Class: types.ErrClassSRV, Code: types.ErrSrvBadUID}.Pack(), reply.Status)
	})

	t.Run("RemovedSession", func(t *testing.T) {
		env := newWireEnv(t)
		env.conn.Sessions.Remove(testUID)
		_, ok := env.conn.Sessions.Identity(testUID)
		assert.False(t, ok)
	})

	t.Run("Garbage", func(t *testing.T) {
		env := newWireEnv(t)
		_, err := env.handler.HandleMessage(t.Context(), env.conn, []byte("not smb at all, not smb at all!!"))
		assert.ErrorIs(t, err, header.ErrInvalidProtocolID)

		_, err = env.handler.HandleMessage(t.Context(), env.conn, []byte{0xFF, 'S', 'M', 'B'})
		assert.ErrorIs(t, err, header.ErrMessageTooShort)
	})

	t.Run("ReplyRejected", func(t *testing.T) {
		env := newWireEnv(t)
		msg := buildMessage(header.SMB1Header{
			Command: types.SMBComSetInformation,
			Flags:   header.FlagsReply,
		}, nil)
		_, err := env.handler.HandleMessage(t.Context(), env.conn, msg)
		assert.Error(t, err)
	})
}
