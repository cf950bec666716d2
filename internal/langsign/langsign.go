// Package langsign derives language identifiers from property file names
// following the convention base[_lang[_COUNTRY]].ext.
package langsign

import (
	"slices"
	"strings"
)

const (
	// Default is the sign of the extension-only base file (no suffix).
	Default = "default"
	// DefaultExtension is used when callers leave the extension empty.
	DefaultExtension = ".properties"
)

// FromFilename returns the language sign encoded in a file name.
// Any directory prefix and the extension are ignored.
func FromFilename(name string) string {
	stem := strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(stem, "/"); i >= 0 {
		stem = stem[i+1:]
	}
	if i := strings.LastIndex(stem, "."); i >= 0 {
		stem = stem[:i]
	}

	parts := strings.Split(stem, "_")
	switch {
	case len(parts) == 2:
		return parts[1]
	case len(parts) >= 3:
		return parts[len(parts)-2] + "_" + parts[len(parts)-1]
	default:
		return Default
	}
}

// FileName builds the file name holding the given sign of a property set.
func FileName(base, sign, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	if sign == Default || sign == "" {
		return base + ext
	}
	return base + "_" + sign + ext
}

// Order deduplicates signs and sorts them with Default first.
func Order(signs []string) []string {
	out := slices.Clone(signs)
	slices.SortFunc(out, Compare)
	return slices.Compact(out)
}

// Compare orders Default before every other sign, the rest ascending.
func Compare(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == Default:
		return -1
	case b == Default:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// FromSetFile resolves the sign of a file known to belong to the set base.
// Only the suffix after base is inspected, so underscores inside base do
// not leak into the sign. ok is false when name is not part of the set.
func FromSetFile(base, name, ext string) (sign string, ok bool) {
	if ext == "" {
		ext = DefaultExtension
	}
	if len(name) < len(base)+len(ext) || !strings.HasPrefix(name, base) || !strings.HasSuffix(name, ext) {
		return "", false
	}
	suffix := name[len(base) : len(name)-len(ext)]
	switch {
	case suffix == "":
		return Default, true
	case suffix[0] != '_' || len(suffix) == 1:
		return "", false
	}
	return FromFilename("set" + suffix), true
}
