package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/solar"
)

func TestConfig_NewKernel(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(home, "data"), 0o755))

	c := &Config{IRIHome: home}
	k, err := c.NewKernel()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "iri90drv"), k.Path)
	assert.Equal(t, home, k.Dir)
	assert.Nil(t, k.Logger)

	c.LogLevel = "debug"
	k, err = c.NewKernel()
	require.NoError(t, err)
	assert.NotNil(t, k.Logger)
}

func TestConfig_NewKernelMissingData(t *testing.T) {
	c := &Config{IRIHome: t.TempDir()}
	_, err := c.NewKernel()
	assert.Error(t, err)
}

func TestConfig_OpenFluxSource(t *testing.T) {
	ctx := context.Background()
	c := &Config{}

	src, closeSrc, err := c.OpenFluxSource(ctx, FluxOptions{Fixed: 120, GFZFile: "/nonexistent"})
	require.NoError(t, err)
	defer closeSrc()
	assert.Equal(t, solar.Fixed{SFI: 120}, src)

	_, _, err = c.OpenFluxSource(ctx, FluxOptions{GFZFile: filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)

	_, closeSrc, err = c.OpenFluxSource(ctx, FluxOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no F10.7 source")
	closeSrc()
}

type noDataSource struct{}

func (noDataSource) Lookup(context.Context, time.Time) (solar.Index, error) {
	return solar.Index{}, solar.ErrNoData
}

func TestBuildRequest(t *testing.T) {
	ts := time.Date(2013, 3, 31, 12, 0, 0, 0, time.UTC)
	req := iri.NewRequest(ts, 65.1, -147.5, 0, 100, 200)

	got, err := BuildRequest(context.Background(), solar.Fixed{SFI: 150}, req)
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.F107)
	require.NotNil(t, got.Parity.F107A)
	require.NotNil(t, got.Parity.Ap)
	assert.Equal(t, 150.0, *got.Parity.F107A)
	assert.Zero(t, *got.Parity.Ap)
	assert.Equal(t, req.Altitudes, got.Altitudes)

	_, err = BuildRequest(context.Background(), noDataSource{}, req)
	assert.ErrorIs(t, err, solar.ErrNoData)
}
