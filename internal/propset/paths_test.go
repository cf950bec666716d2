package propset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	want := CompactHome(filepath.Join(dir, "app"))

	assert.Equal(t, want, CanonicalPath(filepath.Join(dir, "app")))
	assert.Equal(t, want, CanonicalPath(dir+string(filepath.Separator)+"sub"+string(filepath.Separator)+".."+string(filepath.Separator)+"app"))
	assert.Equal(t, want, CanonicalPath(want))
	assert.Equal(t, want, SetPath(dir, "app"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, CompactHome(filepath.Join(wd, "rel", "app")), CanonicalPath(filepath.Join("rel", "app")))
}
