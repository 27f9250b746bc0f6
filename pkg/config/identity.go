package config

import (
	"github.com/marmos91/dittosmb/pkg/metadata"
)

// ToIdentity converts the configured principal into the identity requests
// run as.
func (c IdentityConfig) ToIdentity() *metadata.Identity {
	return &metadata.Identity{
		Username: c.Username,
		Domain:   c.Domain,
		UID:      c.UID,
		GID:      c.GID,
		Guest:    c.Guest,
	}
}
