package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-iri-apps/internal/export"
	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

func testRows() []export.Row {
	req := iri.NewRequest(time.Date(2013, 3, 31, 12, 0, 0, 0, time.UTC), 65.1, -147.5, 150, 100, 200, 300)
	p := &iri.Profile{Samples: []iri.Sample{
		{Altitude: 100, Ne: 1e11},
		{Altitude: 200, Ne: 2e11},
		{Altitude: 300, Ne: 9e11},
	}}
	return export.Rows(store.RunFromRequest(req, "iri-profile"), p)
}

func TestAddRows(t *testing.T) {
	b := store.NewProfileBatch()
	n, err := addRows(b, testRows())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, b.Len())
}

func TestAddRows_BadFlags(t *testing.T) {
	rows := testRows()
	rows[1].Flags = "1,1"

	b := store.NewProfileBatch()
	n, err := addRows(b, rows)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "row 2")
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv.gz", "c.parquet", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))
	single := filepath.Join(t.TempDir(), "one.csv")
	require.NoError(t, os.WriteFile(single, nil, 0o644))

	files, err := discoverFiles([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv.gz"),
		filepath.Join(dir, "c.parquet"),
		single,
	}, files)

	_, err = discoverFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}
