package metadata

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

const (
	// MaxNameLen is the longest accepted path component, in characters.
	MaxNameLen = 255

	// MaxSymlinkDepth bounds symlink expansion during one lookup.
	MaxSymlinkDepth = 8
)

// FileType represents the type of a filesystem object.
type FileType int

const (
	FileTypeRegular FileType = iota
	FileTypeDirectory
	FileTypeSymlink
)

// String returns the lowercase type name.
func (t FileType) String() string {
	switch t {
	case FileTypeRegular:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// FileAttr contains the attributes kept for a node.
type FileAttr struct {
	// Type is the file type (regular, directory, symlink)
	Type FileType `json:"type"`

	// DosAttributes holds the raw DOS attribute bits as last set by a client.
	DosAttributes uint32 `json:"dos_attributes"`

	// Mode contains POSIX permission bits for hosts that want them.
	Mode uint32 `json:"mode"`

	// Size is the file size in bytes
	Size uint64 `json:"size"`

	// Atime is the last access time
	Atime time.Time `json:"atime"`

	// Mtime is the last modification time (last write time on the wire)
	Mtime time.Time `json:"mtime"`

	// Ctime is the last metadata change time
	Ctime time.Time `json:"ctime"`

	// Crtime is the creation (birth) time
	Crtime time.Time `json:"crtime"`

	// LinkTarget is the target path for symbolic links
	LinkTarget string `json:"link_target,omitempty"`
}

// Node is one persisted filesystem object.
type Node struct {
	ID       uuid.UUID `json:"id"`
	ParentID uuid.UUID `json:"parent_id"`
	Share    string    `json:"share"`
	Name     string    `json:"name"`

	FileAttr
}

// IsRoot reports whether the node is a share root.
func (n *Node) IsRoot() bool {
	return n.ParentID == uuid.Nil
}

// Clone returns an independent copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// Identity is the principal on whose behalf an operation runs.
type Identity struct {
	Username string
	Domain   string
	UID      uint32
	GID      uint32
	Guest    bool
}

// FoldName returns the case-folded form of a name, used as the lookup key
// for case-insensitive names.
func FoldName(name string) string {
	return cases.Fold().String(name)
}
