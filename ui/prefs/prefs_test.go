package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	p := LoadFrom(t.TempDir())
	assert.Empty(t, p.String(KeyLastName))
	assert.Equal(t, 1024.0, p.FloatWithFallback(KeyWindowWidth, 1024))
}

func TestSaveAndReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	p := LoadFrom(dir)
	p.SetString(KeyLastName, "Ada")
	p.SetFloat(KeyWindowWidth, 800)
	require.NoError(t, p.Save())

	q := LoadFrom(dir)
	assert.Equal(t, "Ada", q.String(KeyLastName))
	assert.Equal(t, 800.0, q.FloatWithFallback(KeyWindowWidth, 1024))
}

func TestWrongType(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, prefsFile), []byte(`{"lastName": 3, "windowWidth": "wide"}`), 0o644))

	p := LoadFrom(dir)
	assert.Empty(t, p.String(KeyLastName))
	assert.Equal(t, 640.0, p.FloatWithFallback(KeyWindowWidth, 640))
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, prefsFile), []byte(`{not json`), 0o644))

	p := LoadFrom(dir)
	assert.Empty(t, p.String(KeyLastName))
}
