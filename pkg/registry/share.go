package registry

import (
	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
)

// Share is one configured tree that SMB clients can connect to.
//
// Only disk shares are backed by the node store. Print queues, IPC and
// comm device shares exist so tree connects succeed, but no filesystem
// operation ever reaches the store through them.
type Share struct {
	// Name is the share name as configured. Lookups are case-insensitive.
	Name string

	// Type is the STYPE_* of the share.
	Type types.ShareType

	// ReadOnly rejects attribute commits on the share.
	ReadOnly bool

	// Comment is the free-form remark reported by share enumeration.
	Comment string
}

// IsDisk reports whether the share is backed by the node store.
func (s *Share) IsDisk() bool {
	return s.Type.IsDisk()
}
