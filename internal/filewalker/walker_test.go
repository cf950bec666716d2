package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langprops/internal/propset"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func TestFindSets(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "messages_en.properties"))
	touch(t, filepath.Join(root, "a", "messages_de.properties"))
	touch(t, filepath.Join(root, "a", "messages.properties"))
	touch(t, filepath.Join(root, "b", "labels_de.properties"))
	touch(t, filepath.Join(root, "b", "only_fr.properties"))
	touch(t, filepath.Join(root, "build", "messages_en.properties"))
	touch(t, filepath.Join(root, "c", "notes_en.txt"))

	sets, err := NewWalker(".properties", []string{"build"}).FindSets(root)
	require.NoError(t, err)

	assert.Equal(t, []SetLocation{
		{Dir: filepath.Join(root, "a"), BaseName: "messages"},
		{Dir: filepath.Join(root, "b"), BaseName: "labels"},
	}, sets)
}

func TestFindSetsErrors(t *testing.T) {
	root := t.TempDir()
	_, err := NewWalker("", nil).FindSets(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, propset.ErrNotFound)

	file := filepath.Join(root, "f.txt")
	touch(t, file)
	_, err = NewWalker("", nil).FindSets(file)
	assert.ErrorIs(t, err, propset.ErrNotADirectory)
}

func TestSetFromFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWalker(".properties", nil)

	loc, err := w.SetFromFile(filepath.Join(dir, "app_de_DE.properties"))
	require.NoError(t, err)
	assert.Equal(t, SetLocation{Dir: dir, BaseName: "app"}, loc)

	loc, err = w.SetFromFile(filepath.Join(dir, "app.properties"))
	require.NoError(t, err)
	assert.Equal(t, "app", loc.BaseName)
	assert.Equal(t, filepath.Join(dir, "app"), loc.Path())

	_, err = w.SetFromFile(filepath.Join(dir, "app.txt"))
	var ce *propset.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
