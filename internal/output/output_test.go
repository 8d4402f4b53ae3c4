package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter_HeaderAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Append("Acme,info@acme.com,acme.com"))
	require.NoError(t, w.Append("Globex,hi@globex.io,globex.io\nInitech,x@initech.com,initech.com"))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "Acme,info@acme.com,acme.com", lines[1])
	assert.Equal(t, "Initech,x@initech.com,initech.com", lines[3])

	assert.Equal(t, path, w.Path())
}

func TestHeader_ColumnCount(t *testing.T) {
	assert.Len(t, strings.Split(Header, ","), 25)
}

func TestBackup_AddAndSave(t *testing.T) {
	b := NewBackup()
	b.Add("batch one text")
	b.Add("batch two text")
	assert.Equal(t, 2, b.Len())

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, b.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "batch one text", entries[0].Data)
	assert.Equal(t, "batch two text", entries[1].Data)
	for _, e := range entries {
		assert.NotEmpty(t, e.Timestamp)
	}
}

func TestBackup_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, NewBackup().Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Empty(t, entries)
}

func TestBackup_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	b := NewBackup()
	b.Add("first")
	require.NoError(t, b.Save(path))
	b.Add("second")
	require.NoError(t, b.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []Entry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 2)

	// No temp files left behind after rename.
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
