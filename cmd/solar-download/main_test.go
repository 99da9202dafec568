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
2024 01 01 33237.0 33237.5 2596  4 0.667 1.000 0.333 0.333 0.667 1.000 1.333 1.000   3   4   2   2   3   4   5   4   3  118   135.2   137.9 2
2024 01 02 33238.0 33238.5 2596  5 1.000 1.000 0.667 0.333 0.333 0.667 1.000 1.333   4   4   3   2   2   3   4   5   3  121   140.1   142.8 2
2024 01 03 33239.0 33239.5 2596  6 1.000 1.000 0.667 0.333 0.333 0.667 1.000 1.333   4   4   3   2   2   3   4   5   3   -1  -1.000  -1.000 0
`

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfz.txt")
	require.NoError(t, os.WriteFile(path, []byte(gfzSample), 0o644))

	days, last, err := verify(path)
	require.NoError(t, err)
	assert.Equal(t, 3, days)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), last)
}

func TestVerify_NotGFZ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gfz.txt")
	require.NoError(t, os.WriteFile(path, []byte("<html>maintenance</html>\n"), 0o644))

	_, _, err := verify(path)
	assert.Error(t, err)
}
