package tabular

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langprops/internal/langsign"
	"langprops/internal/propset"
)

func readAll(t *testing.T, input string) [][]string {
	t.Helper()
	r := newCSVReader(strings.NewReader(input))
	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func TestCSVReader(t *testing.T) {
	rows := readAll(t, "a;b;c\r\n\"x;y\";\"say \\\"hi\\\"\";plain\n\"multi\nline\";;\"a\"\"b\"\n")
	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"x;y", `say "hi"`, "plain"},
		{"multi\nline", "", `a"b`},
	}, rows)
}

func TestCSVReaderErrors(t *testing.T) {
	_, err := newCSVReader(strings.NewReader("\"open")).Read()
	assert.Error(t, err)

	_, err = newCSVReader(strings.NewReader("\"a\"b;c")).Read()
	assert.Error(t, err)
}

func TestCSVWriterRoundTrip(t *testing.T) {
	rows := [][]string{
		{"Path", "Index", "Key", "de"},
		{"~/x/app", "1", "k;1", "quote \" and \\ slash"},
		{"", "2", "k2", "line1\nline2"},
		{"", "3", "k3", ""},
	}

	var buf bytes.Buffer
	w := newCSVWriter(&buf)
	for _, r := range rows {
		w.Write(r)
	}

	assert.Equal(t, rows, readAll(t, buf.String()))
}

func TestDetectColumns(t *testing.T) {
	cols, err := detectColumns("f", []string{" Pfad ", "Schlüssel", "org.idx", "Kommentar", "DEFAULT", "de", "de_AT", "Notes", "deu"})
	require.NoError(t, err)

	assert.Equal(t, 0, cols.path)
	assert.Equal(t, 1, cols.key)
	assert.Equal(t, 2, cols.index)
	assert.Equal(t, 3, cols.comment)
	assert.Equal(t, []signColumn{{4, langsign.Default}, {5, "de"}, {6, "de_AT"}}, cols.signs)

	_, err = detectColumns("f", []string{"Path", "de"})
	var mce *propset.MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestCSVImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "\xEF\xBB\xBFKey;Comment;default;de\n" +
		"b;;B;\n" +
		";;skipped;\n" +
		"a;greeting;Hi;Hallo\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	var calls int
	records, err := NewCSV().Import(context.Background(), path, func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, records, 2)

	assert.Equal(t, "b", records[0].Key)
	assert.Equal(t, 1, records[0].OriginalIndex)
	_, ok := records[0].Value("de")
	assert.False(t, ok)
	assert.True(t, records[0].HasSign("de"))

	assert.Equal(t, "a", records[1].Key)
	assert.Equal(t, 3, records[1].OriginalIndex)
	assert.Equal(t, "greeting", records[1].Comment)
	v, _ := records[1].Value("de")
	assert.Equal(t, "Hallo", v)
}

func TestCSVImportInvalidIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("Index;Key;en\n1;a;x\nfoo;b;y\n"), 0644))

	_, err := NewCSV().Import(context.Background(), path, nil)
	var pe *propset.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Row)
	assert.Equal(t, 1, pe.Column)
}

func TestCSVImportMissingKeyColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("Path;en\nx;y\n"), 0644))

	_, err := NewCSV().Import(context.Background(), path, nil)
	var mce *propset.MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestCSVExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	setPath := propset.SetPath(dir, "app")

	a := propset.NewRecord(setPath, "a")
	a.OriginalIndex = 0
	a.Comment = "first; with separator"
	a.SetValue(langsign.Default, "A")
	a.SetValue("de", "A \"de\"")
	b := propset.NewRecord(setPath, "b")
	b.OriginalIndex = 1
	b.SetValue("de", "B\nzwei")

	out := filepath.Join(dir, "out.csv")
	require.NoError(t, NewCSV().Export(context.Background(), []*propset.Record{b, a}, out, false, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Path;Index;Key;Comment;default;de\n"))

	records, err := NewCSV().Import(context.Background(), out, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, setPath, records[0].Path)
	assert.Equal(t, "a", records[0].Key)
	assert.Equal(t, a.Comment, records[0].Comment)
	v, _ := records[0].Value("de")
	assert.Equal(t, "A \"de\"", v)
	v, _ = records[1].Value("de")
	assert.Equal(t, "B\nzwei", v)
	_, ok := records[1].Value(langsign.Default)
	assert.False(t, ok)
}

func TestExportRefusesOverwrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

	err := NewCSV().Export(context.Background(), nil, out, false, nil)
	var ce *propset.ConfigurationError
	require.ErrorAs(t, err, &ce)

	require.NoError(t, NewCSV().Export(context.Background(), nil, out, true, nil))
}

func TestImportHonorsCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("Key;en\na;x\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSV().Import(ctx, path, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForPath(t *testing.T) {
	f, err := ForPath("x/Export.CSV")
	require.NoError(t, err)
	assert.IsType(t, &CSV{}, f)

	f, err = ForPath("x/export.xlsx")
	require.NoError(t, err)
	assert.IsType(t, &Excel{}, f)

	_, err = ForPath("x/export.ods")
	var ce *propset.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
