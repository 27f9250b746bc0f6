package badger

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/marmos91/dittosmb/pkg/metadata"
)

// Key namespaces:
//
//	Data Type        Prefix  Key Format                     Value
//	=============================================================================
//	Node             "f:"    f:<uuid>                       Node (JSON)
//	Directory entry  "c:"    c:<parentUUID>:<foldedName>    child uuid (16 bytes)
//	Share root       "s:"    s:<foldedShareName>            root uuid (16 bytes)
//
// Directory entries are keyed by the case-folded name; the original case
// is kept in the node record.
const (
	prefixFile  = "f:"
	prefixChild = "c:"
	prefixShare = "s:"
)

// keyFile generates a key for node data: "f:<uuid>"
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// keyChild generates a key for a directory entry: "c:<parentUUID>:<folded>"
func keyChild(parentID uuid.UUID, name string) []byte {
	return []byte(prefixChild + parentID.String() + ":" + metadata.FoldName(name))
}

// keyShare generates a key for a share root: "s:<folded>"
func keyShare(share string) []byte {
	return []byte(prefixShare + metadata.FoldName(share))
}

func encodeNode(n *metadata.Node) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node %s: %w", n.ID, err)
	}
	return data, nil
}

func decodeNode(data []byte) (*metadata.Node, error) {
	var n metadata.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return &n, nil
}

func decodeUUID(data []byte) (uuid.UUID, error) {
	id, err := uuid.FromBytes(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode uuid: %w", err)
	}
	return id, nil
}
