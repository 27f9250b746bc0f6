package types

import (
	"strconv"
	"strings"
)

// FileAttributes is the 16-bit SMB_FILE_ATTRIBUTES field used by SMB1
// core commands. [MS-CIFS] 2.2.1.2.4
type FileAttributes uint16

const (
	FileAttributeReadonly  FileAttributes = 0x0001
	FileAttributeHidden    FileAttributes = 0x0002
	FileAttributeSystem    FileAttributes = 0x0004
	FileAttributeVolume    FileAttributes = 0x0008
	FileAttributeDirectory FileAttributes = 0x0010
	FileAttributeArchive   FileAttributes = 0x0020

	// FileAttributeNormal means "no attributes set". In SET_INFORMATION
	// it is a sentinel meaning "leave attributes unchanged".
	FileAttributeNormal FileAttributes = 0x0080
)

var attributeNames = []struct {
	bit  FileAttributes
	name string
}{
	{FileAttributeReadonly, "READONLY"},
	{FileAttributeHidden, "HIDDEN"},
	{FileAttributeSystem, "SYSTEM"},
	{FileAttributeVolume, "VOLUME"},
	{FileAttributeDirectory, "DIRECTORY"},
	{FileAttributeArchive, "ARCHIVE"},
	{FileAttributeNormal, "NORMAL"},
}

// Has reports whether all bits of flag are set.
func (a FileAttributes) Has(flag FileAttributes) bool {
	return a&flag == flag
}

// String renders the set bits as "HIDDEN|READONLY"; zero renders as "0".
func (a FileAttributes) String() string {
	if a == 0 {
		return "0"
	}
	var parts []string
	rest := a
	for _, n := range attributeNames {
		if a.Has(n.bit) {
			parts = append(parts, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strings.ToUpper(strconv.FormatUint(uint64(rest), 16)))
	}
	return strings.Join(parts, "|")
}

// ParseFileAttributes parses a comma or pipe separated list of attribute
// names ("hidden,readonly"), or "normal"/"none".
func ParseFileAttributes(s string) (FileAttributes, bool) {
	var a FileAttributes
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "NONE" {
			continue
		}
		found := false
		for _, n := range attributeNames {
			if n.name == f {
				a |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return a, true
}
