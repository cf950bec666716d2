package propset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langprops/internal/langsign"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestReadGreetingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeting.properties", "hello=Hi\n")
	writeFile(t, dir, "greeting_de.properties", "# greeting\nhello=Hallo\n")

	records, err := Read(dir, "greeting", ".properties", false)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "hello", r.Key)
	assert.Equal(t, "greeting", r.Comment)
	assert.Equal(t, 0, r.OriginalIndex)
	assert.Equal(t, SetPath(dir, "greeting"), r.Path)

	v, ok := r.Value(langsign.Default)
	assert.True(t, ok)
	assert.Equal(t, "Hi", v)
	v, ok = r.Value("de")
	assert.True(t, ok)
	assert.Equal(t, "Hallo", v)
}

func TestReadOrderingIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app_fr.properties", "# fr comment\nc=C-fr\na=A-fr\n")
	writeFile(t, dir, "app_de.properties", "# de comment\na=A-de\nb=B-de\n")
	writeFile(t, dir, "app.properties", "b=B\n")

	records, err := Read(dir, "app", "", false)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// default file first, then app_de, then app_fr
	assert.Equal(t, "b", records[0].Key)
	assert.Equal(t, 0, records[0].OriginalIndex)
	assert.Equal(t, "a", records[1].Key)
	assert.Equal(t, 1, records[1].OriginalIndex)
	assert.Equal(t, "c", records[2].Key)
	assert.Equal(t, 2, records[2].OriginalIndex)

	assert.Equal(t, "de comment", records[1].Comment, "first file with a comment wins")
	assert.Equal(t, "fr comment", records[2].Comment)
}

func TestReadNormalizesBlankValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app_de.properties", "empty=\nblank=   \n")

	records, err := Read(dir, "app", ".properties", false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		_, ok := r.Value("de")
		assert.False(t, ok)
		assert.True(t, r.HasSign("de"))
	}
}

func TestReadCaseInsensitiveKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.properties", "Hello=Hi\n")
	writeFile(t, dir, "app_de.properties", "HELLO=Hallo\n")

	records, err := Read(dir, "app", ".properties", true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].Key)
	assert.Equal(t, []string{langsign.Default, "de"}, records[0].Signs())
}

func TestReadIgnoresOtherSets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.properties", "a=1\n")
	writeFile(t, dir, "application.properties", "x=2\n")
	writeFile(t, dir, "app_de.txt", "y=3\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "app_en.properties"), 0755))

	records, err := Read(dir, "app", ".properties", false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].Key)
}

func TestReadEmptySet(t *testing.T) {
	records, err := Read(t.TempDir(), "missing", ".properties", false)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadDirectoryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "nope"), "app", ".properties", false)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNotFound)

	writeFile(t, dir, "file.txt", "")
	_, err = Read(filepath.Join(dir, "file.txt"), "app", ".properties", false)
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestReadParseErrorAbortsWholeRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.properties", "a=1\n")
	writeFile(t, dir, "app_de.properties", "a=\\u00\n")

	records, err := Read(dir, "app", ".properties", false)
	require.Error(t, err)
	assert.Nil(t, records)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, filepath.Join(dir, "app_de.properties"), pe.File)
}
