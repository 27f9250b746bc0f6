package metadata

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/marmos91/dittosmb/pkg/metadata/errors"
)

// invalidNameChars are rejected anywhere in a path component.
const invalidNameChars = `"*:<>?|`

// splitPath normalizes separators and splits p into components, dropping
// empty and "." components. absolute reports a leading separator.
func splitPath(p string) (absolute bool, comps []string, err error) {
	p = strings.ReplaceAll(p, "/", `\`)
	absolute = strings.HasPrefix(p, `\`)

	for _, c := range strings.Split(p, `\`) {
		if c == "" || c == "." {
			continue
		}
		if c != ".." {
			if err := validateName(c); err != nil {
				return false, nil, err
			}
		}
		comps = append(comps, c)
	}
	return absolute, comps, nil
}

// validateName checks a single path component.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return errors.NewInvalidNameError(name, "reserved name")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return errors.NewNameTooLongError(name)
	}
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(invalidNameChars, r) {
			return errors.NewInvalidNameError(name, "invalid character in name")
		}
	}
	return nil
}

// ResolvePath splits path into a referenced parent directory and a final
// component name. Absolute paths start at root, relative ones at cwd.
// Intermediate symlinks are followed. A path naming the start directory
// itself yields that directory and ".".
//
// On success the caller owns the returned Handle. On failure no reference
// is held.
func (s *NodeStore) ResolvePath(ctx context.Context, ident *Identity, root, cwd Handle, path string) (Handle, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	absolute, comps, err := splitPath(path)
	if err != nil {
		return nil, "", err
	}

	start := cwd
	if absolute || cwd == nil {
		start = root
	}

	last := "."
	if n := len(comps); n > 0 && comps[n-1] != ".." {
		last = comps[n-1]
		comps = comps[:n-1]
	}

	dir, err := s.walk(ctx, ident, start, comps, 0)
	if err != nil {
		return nil, "", err
	}
	return dir, last, nil
}

// walk descends from start through comps, which must all name
// directories, and returns a new reference to the last one. ".." never
// climbs above the share root.
func (s *NodeStore) walk(ctx context.Context, ident *Identity, start Handle, comps []string, depth int) (Handle, error) {
	cur, err := s.acquire(ctx, start.ID())
	if err != nil {
		return nil, err
	}

	for _, c := range comps {
		var next Handle
		if c == ".." {
			r, ok := s.ref(cur)
			if ok && r.node().IsRoot() {
				cur.Release()
				return nil, errors.NewPathSyntaxError(c, "path escapes share root")
			}
			next, err = s.Parent(ctx, cur)
		} else {
			next, err = s.lookup(ctx, ident, cur, c, true, depth)
			if errors.Is(err, errors.ErrNotFound) {
				err = errors.NewPathNotFoundError(c)
			}
		}
		cur.Release()
		if err != nil {
			return nil, err
		}
		if !next.IsDirectory() {
			next.Release()
			return nil, errors.NewNotDirectoryError(c)
		}
		cur = next
	}
	return cur, nil
}
