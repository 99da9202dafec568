package common

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Env(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "ch.lab")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("IRI90_HOME", "/opt/iri90")
	t.Setenv("IRI90_DRIVER", "")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("KI7MT_DATA_DIR", "/data")

	c := DefaultConfig()
	assert.Equal(t, "ch.lab:9440", c.ClickHouseAddr())
	assert.Equal(t, "iri", c.ClickHouseDatabase)
	assert.True(t, c.Debug())
	assert.Equal(t, "/data/solar", c.SolarDataDir())

	home, err := c.ResolveIRIHome()
	require.NoError(t, err)
	assert.Equal(t, "/opt/iri90", home)
	assert.Equal(t, filepath.Join(home, "iri90drv"), c.ResolveDriver(home))

	c.IRIDriver = "/usr/local/bin/iri90"
	assert.Equal(t, "/usr/local/bin/iri90", c.ResolveDriver(home))
}

func TestConfig_ClickHouseAddrWithPort(t *testing.T) {
	c := &Config{ClickHouseHost: "10.0.0.5:9000", ClickHousePort: 1}
	assert.Equal(t, "10.0.0.5:9000", c.ClickHouseAddr())
}

func TestStats_Counters(t *testing.T) {
	s := NewStats()
	s.AddProfile(50, 3*time.Millisecond)
	s.AddProfile(50, 4*time.Millisecond)
	s.AddFailure()

	assert.Equal(t, uint64(2), s.GetTotalProfiles())
	assert.Equal(t, uint64(100), s.GetTotalSamples())
	assert.Equal(t, uint64(1), s.GetFailedRuns())
	assert.Equal(t, 4*time.Millisecond, s.GetRunLatency())

	s.Reset()
	assert.Zero(t, s.GetTotalProfiles())
	assert.Zero(t, s.GetTotalSamples())
	assert.Zero(t, s.GetFailedRuns())
}

func TestStats_PrintStatus(t *testing.T) {
	var buf bytes.Buffer
	s := NewStats()
	s.SetOutput(&buf)
	s.lastTime = time.Unix(1000, 0)

	s.AddProfile(20, 2*time.Millisecond)
	s.AddProfile(20, 2*time.Millisecond)
	s.printStatus(time.Unix(1002, 0))

	assert.Equal(t, "[Progress] Profiles: 2 (1.0/s, avg: 1.0/s) | Samples: 40 | Kernel: 2.00 ms | Failed: 0\n", buf.String())

	buf.Reset()
	s.SetSilent(true)
	s.printStatus(time.Unix(1004, 0))
	assert.Empty(t, buf.String())
}

func TestStats_Reporter(t *testing.T) {
	s := NewStats()
	s.SetSilent(true)
	s.StartReporter()
	s.StartReporter()
	s.StopReporter()
	s.StopReporter()
}
