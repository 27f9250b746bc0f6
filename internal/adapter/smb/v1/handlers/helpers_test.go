package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/internal/adapter/smb/smbenc"
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/bufpool"
	"github.com/marmos91/dittosmb/pkg/metadata"
	"github.com/marmos91/dittosmb/pkg/metadata/store/memory"
	"github.com/marmos91/dittosmb/pkg/oplock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helper Functions
// =============================================================================

var (
	testIdentity = &metadata.Identity{Username: "alice", UID: 1000, GID: 1000}

	// reportMtime is the modification time the fixture gives report.txt.
	reportMtime = time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
)

// recordingStore wraps a NodeStore and counts calls per operation.
type recordingStore struct {
	*metadata.NodeStore

	mu      sync.Mutex
	calls   map[string]int
	handles []*countingHandle
}

func newRecordingStore(s *metadata.NodeStore) *recordingStore {
	return &recordingStore{NodeStore: s, calls: make(map[string]int)}
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[op]++
}

func (r *recordingStore) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recordingStore) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recordingStore) ResolvePath(ctx context.Context, ident *metadata.Identity, root, cwd metadata.Handle, path string) (metadata.Handle, string, error) {
	r.record("ResolvePath")
	return r.NodeStore.ResolvePath(ctx, ident, root, cwd, path)
}

func (r *recordingStore) Lookup(ctx context.Context, ident *metadata.Identity, dir metadata.Handle, name string, follow bool) (metadata.Handle, error) {
	r.record("Lookup")
	h, err := r.NodeStore.Lookup(ctx, ident, dir, name, follow)
	if err != nil {
		return nil, err
	}
	ch := &countingHandle{Handle: h}
	r.mu.Lock()
	r.handles = append(r.handles, ch)
	r.mu.Unlock()
	return ch, nil
}

// assertReleasedOnce checks every handle handed out by Lookup was
// released exactly once.
func (r *recordingStore) assertReleasedOnce(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handles {
		h.mu.Lock()
		assert.Equal(t, 1, h.releases, "releases of %s", h.Name())
		h.mu.Unlock()
	}
}

func (r *recordingStore) SetDosAttributes(h metadata.Handle, attrs uint32) {
	r.record("SetDosAttributes")
	r.NodeStore.SetDosAttributes(h, attrs)
}

func (r *recordingStore) SetModifyTime(h metadata.Handle, mtime time.Time) {
	r.record("SetModifyTime")
	r.NodeStore.SetModifyTime(h, mtime)
}

func (r *recordingStore) CommitAttributes(ctx context.Context, ident *metadata.Identity, h metadata.Handle) error {
	r.record("CommitAttributes")
	return r.NodeStore.CommitAttributes(ctx, ident, h)
}

// countingHandle decorates a Handle returned by Lookup so tests can check
// it was released exactly once.
type countingHandle struct {
	metadata.Handle

	mu       sync.Mutex
	releases int
}

func (c *countingHandle) Unwrap() metadata.Handle { return c.Handle }

func (c *countingHandle) Release() {
	c.mu.Lock()
	c.releases++
	c.mu.Unlock()
	c.Handle.Release()
}

// testEnv is a share "public" on a memory backend:
//
//	\docs\            directory
//	\docs\report.txt  file, ARCHIVE, mtime reportMtime
//	\readme.txt       file
//	\link             symlink -> docs\report.txt
type testEnv struct {
	backend *memory.MemoryMetadataStore
	store   *metadata.NodeStore
	rec     *recordingStore
	pool    *bufpool.Pool
	handler *Handler
	root    metadata.Handle
	cwd     metadata.Handle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := t.Context()

	backend := memory.NewMemoryMetadataStore()
	_, err := backend.CreateShareRoot(ctx, "public", metadata.FileAttr{Mode: 0o755, DosAttributes: 0x10})
	require.NoError(t, err)

	store := metadata.NewNodeStore(backend)
	root, err := store.Root(ctx, "public")
	require.NoError(t, err)
	cwd, err := store.Lookup(ctx, testIdentity, root, ".", false)
	require.NoError(t, err)

	mk := func(dir metadata.Handle, name string, attr metadata.FileAttr) metadata.Handle {
		h, err := store.Create(ctx, testIdentity, dir, name, attr)
		require.NoError(t, err, name)
		return h
	}
	docs := mk(root, "docs", metadata.FileAttr{Type: metadata.FileTypeDirectory, DosAttributes: 0x10})
	mk(docs, "report.txt", metadata.FileAttr{
		Type:          metadata.FileTypeRegular,
		DosAttributes: uint32(types.FileAttributeArchive),
		Mtime:         reportMtime,
	}).Release()
	docs.Release()
	mk(root, "readme.txt", metadata.FileAttr{Type: metadata.FileTypeRegular}).Release()
	mk(root, "link", metadata.FileAttr{Type: metadata.FileTypeSymlink, LinkTarget: `docs\report.txt`}).Release()

	rec := newRecordingStore(store)
	pool := bufpool.NewPool(nil)
	h := NewHandler(rec, nil, nil)
	h.Buffers = pool

	env := &testEnv{
		backend: backend,
		store:   store,
		rec:     rec,
		pool:    pool,
		handler: h,
		root:    root,
		cwd:     cwd,
	}
	t.Cleanup(func() {
		cwd.Release()
		root.Release()
		stats := store.Stats()
		assert.Zero(t, stats.Outstanding, "leaked node references")
		assert.Zero(t, stats.DoubleReleases, "double releases")
		assert.Zero(t, pool.Stats().Outstanding, "leaked scratch buffers")
	})
	return env
}

// context builds a handler context on the "public" disk tree.
func (e *testEnv) context(t *testing.T) *SMBHandlerContext {
	t.Helper()
	hc := NewSMBHandlerContext(t.Context(), "192.0.2.10", 100, 1, 7).
		WithIdentity(testIdentity).
		WithLocation(time.UTC)
	hc.Share = ShareInfo{Name: "public", Type: types.ShareTypeDisk}
	hc.Root = e.root
	hc.Cwd = e.cwd
	return hc
}

// attr reads the committed attributes of path from a fresh lookup.
func (e *testEnv) attr(t *testing.T, path string) metadata.FileAttr {
	t.Helper()
	ctx := t.Context()
	dir, name, err := e.store.ResolvePath(ctx, testIdentity, e.root, e.cwd, path)
	require.NoError(t, err)
	defer dir.Release()
	h, err := e.store.Lookup(ctx, testIdentity, dir, name, true)
	require.NoError(t, err)
	defer h.Release()
	return h.Attr()
}

// nodeID returns the ID of the node at path.
func (e *testEnv) nodeID(t *testing.T, path string) uuid.UUID {
	t.Helper()
	ctx := t.Context()
	dir, name, err := e.store.ResolvePath(ctx, testIdentity, e.root, e.cwd, path)
	require.NoError(t, err)
	defer dir.Release()
	h, err := e.store.Lookup(ctx, testIdentity, dir, name, true)
	require.NoError(t, err)
	defer h.Release()
	return h.ID()
}

// buildSetInformationBody builds a SET_INFORMATION command body. With
// WordCount 8 the data block starts at header offset 51, so a Unicode
// name following the buffer format byte is already aligned.
func buildSetInformationBody(attrs types.FileAttributes, utime uint32, path string, unicode bool) []byte {
	words := smbenc.NewWriter(16)
	words.WriteUint16(uint16(attrs))
	words.WriteUint32(utime)
	words.WriteZeros(10)

	data := smbenc.NewWriter(len(path)*2 + 3)
	data.WriteUint8(bufferFormatASCII)
	data.WriteString(unicode, path)

	body, err := smbenc.EncodeBlocks(words.Bytes(), data.Bytes())
	if err != nil {
		panic(err)
	}
	return body
}

// fakeArbiter is a scripted OplockArbiter.
type fakeArbiter struct {
	mu        sync.Mutex
	conflict  bool
	result    oplock.BreakResult
	breaks    []uuid.UUID
	conflicts int
}

func (f *fakeArbiter) Conflict(nodeID uuid.UUID, sessionID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflicts++
	return f.conflict
}

func (f *fakeArbiter) Break(ctx context.Context, nodeID uuid.UUID, sessionID uint64) oplock.BreakResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breaks = append(f.breaks, nodeID)
	return f.result
}

type requestRecord struct {
	command string
	share   string
	status  string
}

// recordingMetrics captures request metrics.
type recordingMetrics struct {
	mu       sync.Mutex
	starts   int
	ends     int
	requests []requestRecord
}

func (r *recordingMetrics) RecordRequest(command, share string, _ time.Duration, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, requestRecord{command, share, status})
}

func (r *recordingMetrics) RecordRequestStart(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
}

func (r *recordingMetrics) RecordRequestEnd(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
}

func (r *recordingMetrics) RecordOplockBreak(string, time.Duration) {}
