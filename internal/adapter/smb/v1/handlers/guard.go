package handlers

import "github.com/marmos91/dittosmb/pkg/metadata"

// refGuard owns a node reference for the duration of one request and
// releases it at most once, whichever exit path is taken.
type refGuard struct {
	h metadata.Handle
}

func guardRef(h metadata.Handle) *refGuard {
	return &refGuard{h: h}
}

// Release drops the reference. Later calls are no-ops.
func (g *refGuard) Release() {
	if g.h == nil {
		return
	}
	g.h.Release()
	g.h = nil
}
