// Package jobs orchestrates reading, writing, importing and exporting
// language property sets on top of the propset engine.
package jobs

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"langprops/internal/filewalker"
	"langprops/internal/propset"
	"langprops/internal/tabular"
	"langprops/internal/worker"
)

// Options controls how property sets are discovered and read.
type Options struct {
	Extension           string
	Exclude             []string
	Workers             int
	CaseInsensitiveKeys bool
	Progress            worker.ProgressFunc
}

// Result is the outcome of loading one or more property sets.
type Result struct {
	Records       []*propset.Record
	SetNames      []string
	Signs         []string
	CommentsFound bool
}

func newResult(records []*propset.Record) *Result {
	propset.SortByPathAndIndex(records)
	return &Result{
		Records:       records,
		SetNames:      propset.SetNames(records),
		Signs:         propset.AvailableSigns(records),
		CommentsFound: propset.HasComments(records),
	}
}

// Load reads the property set containing target when target is a file,
// or every property set found below target when it is a directory.
func Load(ctx context.Context, target string, opts Options) (*Result, error) {
	w := filewalker.NewWalker(opts.Extension, opts.Exclude)

	info, err := os.Stat(propset.ExpandHome(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &propset.ConfigurationError{Path: target, Reason: "load target", Err: propset.ErrNotFound}
		}
		return nil, fmt.Errorf("stat load target: %w", err)
	}

	var sets []filewalker.SetLocation
	if info.IsDir() {
		sets, err = w.FindSets(target)
	} else {
		var set filewalker.SetLocation
		set, err = w.SetFromFile(target)
		sets = []filewalker.SetLocation{set}
	}
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(opts.Workers, func(ctx context.Context, set filewalker.SetLocation) ([]*propset.Record, error) {
		records, err := propset.Read(set.Dir, set.BaseName, opts.Extension, opts.CaseInsensitiveKeys)
		if err != nil {
			return nil, fmt.Errorf("read set %s: %w", set.Path(), err)
		}
		return records, nil
	}).OnProgress(opts.Progress)

	perSet, err := pool.Execute(ctx, sets)
	if err != nil {
		return nil, err
	}

	result := newResult(slices.Concat(perSet...))
	log.Info().
		Int("sets", len(sets)).
		Int("records", len(result.Records)).
		Strs("signs", result.Signs).
		Msg("Loaded property sets")
	return result, nil
}

// WriteOptions controls where records are stored.
type WriteOptions struct {
	Extension string
	Exclude   []string
	// OutputDir re-homes records below this directory when set.
	OutputDir string
	// BaseName names the set for records that carry no path.
	BaseName              string
	ExtendAndKeepExisting bool
	Progress              worker.ProgressFunc
}

// Write stores records as property sets and returns the stored set paths.
//
// Without OutputDir every record is written to its own path. With
// OutputDir, records are moved to the single existing set of the same
// base name below OutputDir, or to OutputDir itself when there is none;
// records without a path go to OutputDir/BaseName. Sets written before a
// cancellation or failure stay on disk.
func Write(ctx context.Context, records []*propset.Record, opts WriteOptions) ([]string, error) {
	if strings.TrimSpace(opts.OutputDir) != "" {
		var err error
		if records, err = rehome(records, opts); err != nil {
			return nil, err
		}
	}

	groups := lo.GroupBy(records, func(r *propset.Record) string {
		if path := strings.TrimSpace(r.Path); path != "" {
			return propset.CanonicalPath(path)
		}
		return ""
	})
	paths := lo.Keys(groups)
	slices.Sort(paths)

	stored := make([]string, 0, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		if err := propset.Write(groups[path], "", opts.BaseName, opts.ExtendAndKeepExisting, opts.Extension); err != nil {
			return stored, fmt.Errorf("write set %s: %w", path, err)
		}
		stored = append(stored, path)
		if opts.Progress != nil {
			opts.Progress(i+1, len(paths))
		}
	}

	log.Info().Int("sets", len(stored)).Int("records", len(records)).Msg("Stored property sets")
	return stored, nil
}

// rehome returns copies of records whose paths point below opts.OutputDir.
func rehome(records []*propset.Record, opts WriteOptions) ([]*propset.Record, error) {
	var existing []filewalker.SetLocation
	if slices.ContainsFunc(records, func(r *propset.Record) bool { return strings.TrimSpace(r.Path) != "" }) {
		var err error
		existing, err = filewalker.NewWalker(opts.Extension, opts.Exclude).FindSets(opts.OutputDir)
		if err != nil {
			return nil, err
		}
	}

	targets := make(map[string]string)
	out := make([]*propset.Record, 0, len(records))
	for _, r := range records {
		path := strings.TrimSpace(r.Path)
		target, ok := targets[path]
		if !ok {
			var err error
			if target, err = rehomeTarget(path, existing, opts); err != nil {
				return nil, err
			}
			targets[path] = target
		}

		c := r.Clone()
		c.Path = target
		out = append(out, c)
	}
	return out, nil
}

func rehomeTarget(path string, existing []filewalker.SetLocation, opts WriteOptions) (string, error) {
	if path == "" {
		if strings.TrimSpace(opts.BaseName) == "" {
			return "", &propset.ConfigurationError{Reason: "set name is required for records without path"}
		}
		return propset.SetPath(opts.OutputDir, opts.BaseName), nil
	}

	base := baseName(path)
	matches := lo.Filter(existing, func(loc filewalker.SetLocation, _ int) bool {
		return loc.BaseName == base
	})
	switch len(matches) {
	case 0:
		return propset.SetPath(opts.OutputDir, base), nil
	case 1:
		return propset.SetPath(matches[0].Dir, base), nil
	default:
		return "", &propset.AmbiguousPathError{
			BaseName: base,
			Candidates: lo.Map(matches, func(loc filewalker.SetLocation, _ int) string {
				return propset.CompactHome(loc.Path())
			}),
		}
	}
}

// baseName returns the last element of a set path using either separator.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Import reads records from a CSV or Excel file.
func Import(ctx context.Context, file string, progress tabular.ProgressFunc) (*Result, error) {
	format, err := tabular.ForPath(file)
	if err != nil {
		return nil, err
	}
	records, err := format.Import(ctx, propset.ExpandHome(file), progress)
	if err != nil {
		return nil, err
	}
	return newResult(records), nil
}

// Export writes records to a CSV or Excel file.
func Export(ctx context.Context, records []*propset.Record, file string, overwrite bool, progress tabular.ProgressFunc) error {
	format, err := tabular.ForPath(file)
	if err != nil {
		return err
	}
	sorted := slices.Clone(records)
	propset.SortByPathAndIndex(sorted)
	return format.Export(ctx, sorted, propset.ExpandHome(file), overwrite, progress)
}

// Missing returns the records ordered for review of sign: records
// without a value come first, then by key ignoring case.
func Missing(records []*propset.Record, sign string, ascending bool) []*propset.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, propset.CompareByMissingValue(sign, ascending))
	return sorted
}

// CountMissing returns how many records lack a value for sign.
func CountMissing(records []*propset.Record, sign string) int {
	return lo.CountBy(records, func(r *propset.Record) bool {
		_, ok := r.Value(sign)
		return !ok
	})
}
