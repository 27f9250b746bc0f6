package commands

import (
	"fmt"
	"time"

	"github.com/marmos91/dittosmb/internal/adapter/smb/types"
	"github.com/marmos91/dittosmb/pkg/metadata"
)

// nodeInfo is the printable form of a node's attributes.
type nodeInfo struct {
	Share      string    `json:"share" yaml:"share"`
	Path       string    `json:"path" yaml:"path"`
	ID         string    `json:"id" yaml:"id"`
	Type       string    `json:"type" yaml:"type"`
	Attributes string    `json:"attributes" yaml:"attributes"`
	AttrBits   uint32    `json:"attribute_bits" yaml:"attribute_bits"`
	Mtime      time.Time `json:"mtime" yaml:"mtime"`
	UTime      uint32    `json:"utime" yaml:"utime"`
	Ctime      time.Time `json:"ctime" yaml:"ctime"`
	Crtime     time.Time `json:"crtime" yaml:"crtime"`
	LinkTarget string    `json:"link_target,omitempty" yaml:"link_target,omitempty"`
}

func newNodeInfo(share, path string, h metadata.Handle, loc *time.Location) *nodeInfo {
	attr := h.Attr()
	return &nodeInfo{
		Share:      share,
		Path:       path,
		ID:         h.ID().String(),
		Type:       attr.Type.String(),
		Attributes: types.FileAttributes(attr.DosAttributes).String(),
		AttrBits:   attr.DosAttributes,
		Mtime:      attr.Mtime.In(loc),
		UTime:      types.AbsoluteToLocal(loc, attr.Mtime),
		Ctime:      attr.Ctime.In(loc),
		Crtime:     attr.Crtime.In(loc),
		LinkTarget: attr.LinkTarget,
	}
}

// Headers implements output.TableRenderer.
func (n *nodeInfo) Headers() []string {
	return []string{"Field", "Value"}
}

// Rows implements output.TableRenderer.
func (n *nodeInfo) Rows() [][]string {
	rows := [][]string{
		{"Share", n.Share},
		{"Path", n.Path},
		{"ID", n.ID},
		{"Type", n.Type},
		{"Attributes", fmt.Sprintf("%s (0x%04X)", n.Attributes, n.AttrBits)},
		{"Modified", fmt.Sprintf("%s (utime %d)", n.Mtime.Format(time.RFC3339), n.UTime)},
		{"Changed", n.Ctime.Format(time.RFC3339)},
		{"Created", n.Crtime.Format(time.RFC3339)},
	}
	if n.LinkTarget != "" {
		rows = append(rows, []string{"Target", n.LinkTarget})
	}
	return rows
}
