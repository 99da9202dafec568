package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gfzSample = `# Kp_ap_Ap_SN_F107_since_1932.txt
2023 12 31 33236.0 33236.5 2596  3 0.667 1.000 0.333 0.333 0.667 1.000 1.333 1.000   3   4   2   2   3   4   5   4   3  101   129.0   131.7 2
2024 01 01 33237.0 33237.5 2596  4 0.667 1.000 0.333 0.333 0.667 1.000 1.333 1.000   3   4   2   2   3   4   5   4   3  118   135.2   137.9 2
2024 01 02 33238.0 33238.5 2596  5 1.000 1.000 0.667 0.333 0.333 0.667 1.000 1.333   4   4   3   2   2   3   4   5   3  121   140.1   142.8 2
2024 01 03 33239.0 33239.5 2596  6 1.000 1.000 0.667 0.333 0.333 0.667 1.000 1.333   4   4   3   2   2   3   4   5   3   -1  -1.000  -1.000 0
`

func TestReadGFZAndSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfz.txt")
	require.NoError(t, os.WriteFile(path, []byte(gfzSample), 0o644))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	days, err := readGFZ(path, start, end)
	require.NoError(t, err)
	require.Len(t, days, 3)

	c := summarize(days)
	assert.Equal(t, 2, c.sfiDays)
	assert.Equal(t, float32(135.2), c.sfiMin)
	assert.Equal(t, float32(140.1), c.sfiMax)
	assert.Equal(t, 2, c.ssnDays)
	assert.Equal(t, float32(118), c.ssnMin)
	assert.Equal(t, float32(121), c.ssnMax)
}

func TestReadGFZ_Missing(t *testing.T) {
	_, err := readGFZ(filepath.Join(t.TempDir(), "none.txt"), time.Time{}, time.Time{})
	assert.Error(t, err)
}
