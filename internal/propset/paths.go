package propset

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// CompactHome replaces the user's home directory prefix with "~" so that
// record paths stay portable between machines.
func CompactHome(path string) string {
	if path == "" || strings.HasPrefix(path, "~") {
		return path
	}
	home, err := homedir.Dir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}

// ExpandHome turns a leading "~" back into the user's home directory.
func ExpandHome(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// SetPath returns the canonical path of the property set baseName in dir.
func SetPath(dir, baseName string) string {
	return CanonicalPath(filepath.Join(ExpandHome(dir), baseName))
}

// CanonicalPath returns the absolute, cleaned form of a set path with the
// home directory written as "~". Spellings of the same set compare equal.
func CanonicalPath(path string) string {
	p := ExpandHome(path)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return CompactHome(p)
}
