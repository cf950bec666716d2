package tabular

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"langprops/internal/langsign"
	"langprops/internal/propset"
)

var (
	pathHeaders    = []string{"path", "pfad", "datei", "file"}
	keyHeaders     = []string{"key", "keys", "bezeichner", "schlüssel", "schluessel"}
	indexHeaders   = []string{"index", "idx", "org.idx"}
	commentHeaders = []string{"comment", "kommentar"}

	languageRe = regexp.MustCompile(`^[a-zA-Z]{2}(_[a-zA-Z]{2})?$`)
)

// columns maps the recognized header cells to their 0-based positions.
type columns struct {
	path    int
	key     int
	index   int
	comment int
	signs   []signColumn
}

type signColumn struct {
	pos  int
	sign string
}

func matchesAny(value string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(value, n) {
			return true
		}
	}
	return false
}

// detectColumns recognizes the header row. The key column is mandatory.
func detectColumns(file string, header []string) (*columns, error) {
	c := &columns{path: -1, key: -1, index: -1, comment: -1}
	for i, cell := range header {
		value := strings.TrimSpace(cell)
		switch {
		case matchesAny(value, pathHeaders):
			c.path = i
		case matchesAny(value, keyHeaders):
			c.key = i
		case matchesAny(value, indexHeaders):
			c.index = i
		case matchesAny(value, commentHeaders):
			c.comment = i
		case strings.EqualFold(value, langsign.Default):
			c.signs = append(c.signs, signColumn{pos: i, sign: langsign.Default})
		case languageRe.MatchString(value):
			c.signs = append(c.signs, signColumn{pos: i, sign: value})
		}
	}
	if c.key < 0 {
		return nil, &propset.MissingColumnError{File: file, Column: "keys"}
	}
	return c, nil
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// buildRecord turns one data row into a record. rowNum is the 1-based row
// of the file, the header being row 1. A nil record means the row has no key.
func (c *columns) buildRecord(file string, rowNum int, row []string) (*propset.Record, error) {
	key := strings.TrimSpace(cell(row, c.key))
	if key == "" {
		return nil, nil
	}

	rec := propset.NewRecord(strings.TrimSpace(cell(row, c.path)), key)

	if c.index >= 0 {
		raw := strings.TrimSpace(cell(row, c.index))
		if raw != "" {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &propset.ParseError{
					File:   file,
					Row:    rowNum,
					Column: c.index + 1,
					Err:    fmt.Errorf("invalid index value %q", raw),
				}
			}
			rec.OriginalIndex = idx
		}
	} else {
		rec.OriginalIndex = rowNum - 1
	}

	if c.comment >= 0 {
		rec.Comment = cell(row, c.comment)
	}

	for _, sc := range c.signs {
		rec.SetValue(sc.sign, cell(row, sc.pos))
	}
	return rec, nil
}

// importRows converts header and data rows into records sorted by path and
// index. The context is checked between rows.
func importRows(ctx context.Context, file string, rows [][]string, progress ProgressFunc) ([]*propset.Record, error) {
	if len(rows) == 0 {
		return nil, &propset.ParseError{File: file, Err: fmt.Errorf("missing header row")}
	}
	cols, err := detectColumns(file, rows[0])
	if err != nil {
		return nil, err
	}

	total := len(rows) - 1
	records := make([]*propset.Record, 0, total)
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cols.buildRecord(file, i+2, row)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
		}
		progress.report(i+1, total)
	}

	propset.SortByPathAndIndex(records)
	return records, nil
}

// exportTable is the header plus the data rows in output order.
type exportTable struct {
	header      []string
	signs       []string
	hasComments bool
	records     []*propset.Record
}

func newExportTable(records []*propset.Record) *exportTable {
	sorted := make([]*propset.Record, len(records))
	copy(sorted, records)
	propset.SortByPathAndIndex(sorted)

	t := &exportTable{
		signs:       propset.AvailableSigns(sorted),
		hasComments: propset.HasComments(sorted),
		records:     sorted,
	}
	t.header = []string{"Path", "Index", "Key"}
	if t.hasComments {
		t.header = append(t.header, "Comment")
	}
	t.header = append(t.header, t.signs...)
	return t
}

// row returns the cells of a record as strings, in header order.
func (t *exportTable) row(r *propset.Record) []string {
	out := make([]string, 0, len(t.header))
	out = append(out, r.Path, strconv.Itoa(r.OriginalIndex), r.Key)
	if t.hasComments {
		out = append(out, r.Comment)
	}
	for _, sign := range t.signs {
		v, _ := r.Value(sign)
		out = append(out, v)
	}
	return out
}
