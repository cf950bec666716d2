// Package propset reads and writes language property sets: families of
// per-language properties files sharing a directory and base name.
package propset

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	"langprops/internal/langsign"
)

// Record is one resource key of a property set together with its value in
// every language the set provides.
type Record struct {
	// Path names the property set (directory + base name, home as "~").
	Path string
	Key  string
	// Comment is the comment bound to the key, if any.
	Comment string
	// OriginalIndex is the first-seen position of the key in its set.
	OriginalIndex int

	// A nil value means the sign is known but carries no value.
	values map[string]*string
}

// NewRecord creates an empty record for key in the property set at path.
func NewRecord(path, key string) *Record {
	return &Record{
		Path:   CompactHome(path),
		Key:    key,
		values: make(map[string]*string),
	}
}

// SetValue stores value under sign. Blank values are stored as absent.
func (r *Record) SetValue(sign, value string) {
	if r.values == nil {
		r.values = make(map[string]*string)
	}
	if strings.TrimSpace(value) == "" {
		r.values[sign] = nil
		return
	}
	r.values[sign] = &value
}

// Value returns the value for sign and whether one is set.
func (r *Record) Value(sign string) (string, bool) {
	v := r.values[sign]
	if v == nil {
		return "", false
	}
	return *v, true
}

// HasSign reports whether sign was ever attached, even without a value.
func (r *Record) HasSign(sign string) bool {
	_, ok := r.values[sign]
	return ok
}

// RemoveValue detaches sign from the record.
func (r *Record) RemoveValue(sign string) {
	delete(r.values, sign)
}

// Signs returns the attached language signs, Default first.
func (r *Record) Signs() []string {
	return langsign.Order(lo.Keys(r.values))
}

// IsEmpty reports whether the record has a blank key or no language attached.
func (r *Record) IsEmpty() bool {
	return strings.TrimSpace(r.Key) == "" || len(r.values) == 0
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.values = make(map[string]*string, len(r.values))
	for sign, v := range r.values {
		if v != nil {
			s := *v
			c.values[sign] = &s
		} else {
			c.values[sign] = nil
		}
	}
	return &c
}

// CompareByPathAndIndex orders records by Path, then OriginalIndex.
func CompareByPathAndIndex(a, b *Record) int {
	return cmp.Or(
		strings.Compare(a.Path, b.Path),
		cmp.Compare(a.OriginalIndex, b.OriginalIndex),
	)
}

// CompareByMissingValue returns a comparator that puts records lacking a
// value for sign first, then orders by key ignoring case. Descending
// reverses the whole order.
func CompareByMissingValue(sign string, ascending bool) func(a, b *Record) int {
	fold := cases.Fold()
	return func(a, b *Record) int {
		_, aHas := a.Value(sign)
		_, bHas := b.Value(sign)

		var result int
		switch {
		case aHas == bHas:
			result = strings.Compare(fold.String(a.Key), fold.String(b.Key))
		case aHas:
			result = 1
		default:
			result = -1
		}
		if !ascending {
			result = -result
		}
		return result
	}
}

// SortByPathAndIndex sorts records in place, keeping equal items stable.
func SortByPathAndIndex(records []*Record) {
	slices.SortStableFunc(records, CompareByPathAndIndex)
}

// AvailableSigns collects every sign attached to any record, Default first.
func AvailableSigns(records []*Record) []string {
	return langsign.Order(lo.FlatMap(records, func(r *Record, _ int) []string {
		return lo.Keys(r.values)
	}))
}

// SetNames returns the distinct base names of the records' sets.
func SetNames(records []*Record) []string {
	names := lo.Uniq(lo.FilterMap(records, func(r *Record, _ int) (string, bool) {
		if strings.TrimSpace(r.Path) == "" {
			return "", false
		}
		return filepath.Base(r.Path), true
	}))
	slices.Sort(names)
	return names
}

// HasComments reports whether any record carries a comment.
func HasComments(records []*Record) bool {
	return slices.ContainsFunc(records, func(r *Record) bool { return r.Comment != "" })
}
