package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"langprops/internal/langsign"
	"langprops/internal/propset"
)

// MarkerSigns are the language suffixes that identify a property set
// while searching a directory tree.
var MarkerSigns = []string{"en", "de"}

// Walker discovers language property sets below a root directory.
type Walker struct {
	ext     string
	exclude []string
}

// NewWalker creates a Walker for files with extension ext, skipping every
// path that contains one of the exclude parts.
func NewWalker(ext string, exclude []string) *Walker {
	if ext == "" {
		ext = langsign.DefaultExtension
	}
	return &Walker{ext: ext, exclude: exclude}
}

// SetLocation identifies one property set on disk.
type SetLocation struct {
	Dir      string
	BaseName string
}

// Path returns the set's directory joined with its base name.
func (s SetLocation) Path() string {
	return filepath.Join(s.Dir, s.BaseName)
}

// FindSets returns every property set below root that has at least one
// marker-language file, sorted by path.
func (w *Walker) FindSets(root string) ([]SetLocation, error) {
	root, err := filepath.Abs(propset.ExpandHome(root))
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &propset.ConfigurationError{Path: root, Reason: "search directory", Err: propset.ErrNotFound}
		}
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, &propset.ConfigurationError{Path: root, Reason: "search directory", Err: propset.ErrNotADirectory}
	}

	seen := make(map[SetLocation]struct{})
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() || !w.isMarkerFile(d.Name()) || w.excluded(path) {
			return nil
		}

		name := d.Name()
		loc := SetLocation{Dir: filepath.Dir(path), BaseName: name[:strings.Index(name, "_")]}
		seen[loc] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sets := make([]SetLocation, 0, len(seen))
	for loc := range seen {
		sets = append(sets, loc)
	}
	slices.SortFunc(sets, func(a, b SetLocation) int {
		return strings.Compare(a.Path(), b.Path())
	})

	log.Info().Int("count", len(sets)).Str("root", root).Msg("Discovered property sets")
	return sets, nil
}

func (w *Walker) isMarkerFile(name string) bool {
	for _, sign := range MarkerSigns {
		suffix := "_" + sign + w.ext
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) && strings.Index(name, "_") > 0 {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(path string) bool {
	for _, part := range w.exclude {
		if part != "" && strings.Contains(path, part) {
			return true
		}
	}
	return false
}

// SetFromFile returns the property set a single properties file belongs
// to. The base name ends at the first '_' or at the extension.
func (w *Walker) SetFromFile(file string) (SetLocation, error) {
	abs, err := filepath.Abs(propset.ExpandHome(file))
	if err != nil {
		return SetLocation{}, fmt.Errorf("resolve file path: %w", err)
	}
	name := filepath.Base(abs)
	if !strings.HasSuffix(name, w.ext) {
		return SetLocation{}, &propset.ConfigurationError{
			Path:   abs,
			Reason: fmt.Sprintf("missing mandatory file extension %q", w.ext),
		}
	}

	base := strings.TrimSuffix(name, w.ext)
	if i := strings.Index(base, "_"); i > 0 {
		base = base[:i]
	}
	return SetLocation{Dir: filepath.Dir(abs), BaseName: base}, nil
}
