// Package tabular converts language records to and from flat tables
// (CSV and Excel) with the columns Path, Index, Key, [Comment], <sign>...
package tabular

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"langprops/internal/propset"
)

// ProgressFunc receives the number of processed and total items.
type ProgressFunc func(done, total int)

func (p ProgressFunc) report(done, total int) {
	if p != nil {
		p(done, total)
	}
}

// Format is a tabular file format.
type Format interface {
	// CanHandle returns true if this format handles the given file extension.
	CanHandle(ext string) bool
	// Import reads records from a table file.
	Import(ctx context.Context, path string, progress ProgressFunc) ([]*propset.Record, error)
	// Export writes records to a table file.
	Export(ctx context.Context, records []*propset.Record, path string, overwrite bool, progress ProgressFunc) error
}

var formats = []Format{
	NewCSV(),
	NewExcel(),
}

// ForPath picks the format matching the extension of path.
func ForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range formats {
		if f.CanHandle(ext) {
			return f, nil
		}
	}
	return nil, &propset.ConfigurationError{Path: path, Reason: fmt.Sprintf("unsupported table format %q", ext)}
}

// checkOverwrite refuses to replace an existing export file unless allowed.
func checkOverwrite(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return &propset.ConfigurationError{Path: path, Reason: "export file already exists, use overwrite to replace"}
	}
	return nil
}
