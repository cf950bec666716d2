package propset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"langprops/internal/langsign"
	"langprops/internal/properties"
)

// Write stores records as one properties file per language sign.
//
// Records are grouped by their own Path; records with a blank Path go to
// baseName in outDir. Groups resolving to the same files are written
// together, and a key given by more than one of them is a
// ConfigurationError. With extendAndKeepExisting, keys already on disk
// that are not part of the incoming records are kept. Each file is
// replaced atomically, so a failure never leaves a truncated file behind.
func Write(records []*Record, outDir, baseName string, extendAndKeepExisting bool, ext string) error {
	if ext == "" {
		ext = langsign.DefaultExtension
	}

	targets, err := groupByTarget(records, outDir, baseName)
	if err != nil {
		return err
	}

	for _, t := range targets {
		group := t.records
		SortByPathAndIndex(group)
		signs := AvailableSigns(group)

		if extendAndKeepExisting {
			existing, err := Read(t.dir, t.base, ext, false)
			if err != nil {
				return fmt.Errorf("read existing set %s: %w", filepath.Join(t.dir, t.base), err)
			}
			group = mergeExisting(group, existing)
		}

		for _, sign := range signs {
			if err := writeSignFile(t.dir, langsign.FileName(t.base, sign, ext), sign, group); err != nil {
				return err
			}
		}

		log.Debug().
			Str("dir", t.dir).
			Str("set", t.base).
			Int("records", len(group)).
			Strs("signs", signs).
			Msg("Wrote property set")
	}

	return nil
}

// writeTarget is one property set on disk with the records stored to it.
type writeTarget struct {
	dir     string
	base    string
	records []*Record
	// paths maps each key to the record path that supplied it.
	paths map[string]string
}

// groupByTarget resolves every record path to its set on disk and returns
// the sets in path order. All targets are resolved before anything is
// written.
func groupByTarget(records []*Record, outDir, baseName string) ([]*writeTarget, error) {
	groups := lo.GroupBy(records, func(r *Record) string {
		return strings.TrimSpace(r.Path)
	})
	paths := lo.Keys(groups)
	slices.Sort(paths)

	byID := make(map[string]*writeTarget)
	for _, path := range paths {
		dir, base, err := resolveTarget(path, outDir, baseName)
		if err != nil {
			return nil, err
		}

		id := filepath.Join(dir, base)
		t, ok := byID[id]
		if !ok {
			t = &writeTarget{dir: dir, base: base, paths: make(map[string]string)}
			byID[id] = t
		}
		for _, r := range groups[path] {
			if other, dup := t.paths[r.Key]; dup && other != path {
				return nil, &ConfigurationError{
					Path:   id,
					Reason: fmt.Sprintf("key %q is given by records with paths %q and %q", r.Key, other, path),
				}
			}
			t.paths[r.Key] = path
		}
		t.records = append(t.records, groups[path]...)
	}

	targets := lo.Values(byID)
	slices.SortFunc(targets, func(a, b *writeTarget) int {
		return strings.Compare(filepath.Join(a.dir, a.base), filepath.Join(b.dir, b.base))
	})
	return targets, nil
}

// mergeExisting appends existing records whose key is not in incoming.
func mergeExisting(incoming, existing []*Record) []*Record {
	keys := lo.SliceToMap(incoming, func(r *Record) (string, struct{}) {
		return r.Key, struct{}{}
	})
	for _, r := range existing {
		if _, ok := keys[r.Key]; !ok {
			incoming = append(incoming, r)
		}
	}
	return incoming
}

// resolveTarget returns the directory and base name a group is stored to.
func resolveTarget(path, outDir, baseName string) (string, string, error) {
	var dir, base string
	if path != "" {
		p := ExpandHome(path)
		if !strings.ContainsAny(p, "/"+string(filepath.Separator)) {
			return "", "", &ConfigurationError{Path: path, Reason: "properties set path has no directory"}
		}
		dir, base = filepath.Dir(p), filepath.Base(p)
	} else {
		if strings.TrimSpace(outDir) == "" || strings.TrimSpace(baseName) == "" {
			return "", "", &ConfigurationError{Reason: "output directory and set name are required for records without path"}
		}
		dir, base = ExpandHome(outDir), baseName
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return "", "", &ConfigurationError{Path: dir, Reason: "properties directory", Err: ErrNotFound}
	case err != nil:
		return "", "", &ConfigurationError{Path: dir, Reason: "properties directory", Err: err}
	case !info.IsDir():
		return "", "", &ConfigurationError{Path: dir, Reason: "properties directory", Err: ErrNotADirectory}
	}
	return dir, base, nil
}

// writeSignFile writes the records having a value for sign to dir/name.
func writeSignFile(dir, name, sign string, records []*Record) (err error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create properties file %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := properties.NewEncoder(tmp)
	for _, r := range records {
		value, ok := r.Value(sign)
		if !ok {
			continue
		}
		if r.Comment != "" {
			if err = enc.WriteComment(r.Comment); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
		if err = enc.WriteProperty(r.Key, value); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err = enc.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	target := filepath.Join(dir, name)
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
