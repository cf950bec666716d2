package propset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"langprops/internal/langsign"
	"langprops/internal/properties"
)

// setFile is one member file of a property set.
type setFile struct {
	path string
	name string
	sign string
}

// Read loads every file of the property set baseName in dir and merges
// them into one record per key. Files are merged default file first, then
// by ascending file name, so comment precedence and key order do not
// depend on directory listing order. Any error aborts the whole read.
func Read(dir, baseName, ext string, caseInsensitiveKeys bool) ([]*Record, error) {
	if ext == "" {
		ext = langsign.DefaultExtension
	}
	dir = ExpandHome(dir)

	files, err := listSetFiles(dir, baseName, ext)
	if err != nil {
		return nil, err
	}

	setPath := SetPath(dir, baseName)
	var records []*Record
	byKey := make(map[string]*Record)

	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, &ParseError{File: f.path, Err: err}
		}
		parsed, err := properties.Parse(data)
		if err != nil {
			pe := &ParseError{File: f.path, Err: err}
			var se *properties.SyntaxError
			if errors.As(err, &se) {
				pe.Row = se.Line
			}
			return nil, pe
		}

		for _, entry := range parsed.Entries {
			key := entry.Key
			if caseInsensitiveKeys {
				key = strings.ToLower(key)
			}

			rec, ok := byKey[key]
			if !ok {
				rec = NewRecord(setPath, key)
				rec.OriginalIndex = len(records)
				records = append(records, rec)
				byKey[key] = rec
			}
			if rec.Comment == "" && strings.TrimSpace(entry.Comment) != "" {
				rec.Comment = entry.Comment
			}
			rec.SetValue(f.sign, entry.Value)
		}

		log.Debug().
			Str("file", f.path).
			Str("sign", f.sign).
			Int("keys", len(parsed.Entries)).
			Msg("Read properties file")
	}

	return records, nil
}

// listSetFiles returns the member files of a set in merge order.
func listSetFiles(dir, baseName, ext string) ([]setFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigurationError{Path: dir, Reason: "properties directory", Err: ErrNotFound}
		}
		return nil, &ConfigurationError{Path: dir, Reason: "properties directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &ConfigurationError{Path: dir, Reason: "properties directory", Err: ErrNotADirectory}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list properties directory: %w", err)
	}

	var files []setFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		sign, ok := langsign.FromSetFile(baseName, e.Name(), ext)
		if !ok {
			continue
		}
		files = append(files, setFile{
			path: filepath.Join(dir, e.Name()),
			name: e.Name(),
			sign: sign,
		})
	}

	slices.SortFunc(files, func(a, b setFile) int {
		aDefault, bDefault := a.sign == langsign.Default, b.sign == langsign.Default
		switch {
		case aDefault && !bDefault:
			return -1
		case bDefault && !aDefault:
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	return files, nil
}
