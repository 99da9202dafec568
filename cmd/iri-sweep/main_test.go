package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

func TestSweepTimes(t *testing.T) {
	start := time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC)

	times := sweepTimes(start, start.Add(3*time.Hour), time.Hour)
	require.Len(t, times, 3)
	assert.Equal(t, start, times[0])
	assert.Equal(t, start.Add(2*time.Hour), times[2])

	assert.Len(t, sweepTimes(start, start.AddDate(0, 0, 1), 15*time.Minute), 96)
	assert.Empty(t, sweepTimes(start, start, time.Hour))
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2013-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTime("2013-03-31T12:00:00-08:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 3, 31, 20, 0, 0, 0, time.UTC), got)

	_, err = parseTime("")
	assert.Error(t, err)
	_, err = parseTime("31/03/2013")
	assert.Error(t, err)
}

func testResult(ts time.Time) result {
	req := iri.NewRequest(ts, 65.1, -147.5, 150, 100, 200)
	p := &iri.Profile{
		Samples: []iri.Sample{
			{Altitude: 100, Ne: 1e11},
			{Altitude: 200, Ne: 2e11},
		},
		Aux: iri.DecodeAux([]float64{9e11, 290}),
	}
	return result{run: store.RunFromRequest(req, sourceTag), profile: p}
}

func TestWriter_DryRun(t *testing.T) {
	ctx := context.Background()
	w := &writer{
		batchLimit: 3,
		profiles:   store.NewProfileBatch(),
		peaks:      store.NewPeakBatch(),
		keepRows:   true,
	}
	start := time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, w.add(ctx, testResult(start)))
	assert.Equal(t, 2, w.profiles.Len())
	assert.Equal(t, 1, w.peaks.Len())

	// Second run crosses the limit and flushes.
	require.NoError(t, w.add(ctx, testResult(start.Add(time.Hour))))
	assert.Zero(t, w.profiles.Len())
	assert.Zero(t, w.peaks.Len())
	assert.Zero(t, w.inserted)
	assert.Len(t, w.rows, 4)
	assert.Equal(t, sourceTag, w.rows[3].Source)
}

// failingConn accepts profile inserts and rejects peak inserts.
type failingConn struct {
	calls int
}

func (c *failingConn) Do(_ context.Context, q ch.Query) error {
	c.calls++
	if strings.Contains(q.Body, "iri.peaks") {
		return errors.New("code: 210, connection reset")
	}
	return nil
}

func newTestWriter(conn store.Doer, limit int) *writer {
	return &writer{
		conn:       conn,
		profileFQN: "iri.profiles",
		peakFQN:    "iri.peaks",
		batchLimit: limit,
		profiles:   store.NewProfileBatch(),
		peaks:      store.NewPeakBatch(),
	}
}

func TestWriter_DrainStopsOnInsertError(t *testing.T) {
	conn := &failingConn{}
	w := newTestWriter(conn, 2)
	start := time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC)

	results := make(chan result, 5)
	for i := 0; i < 5; i++ {
		results <- testResult(start.Add(time.Duration(i) * time.Hour))
	}
	close(results)

	stops := 0
	err := w.drain(context.Background(), results, func() { stops++ })
	require.ErrorContains(t, err, "insert iri.peaks")
	assert.Equal(t, 1, stops)
	assert.Equal(t, 2, conn.calls)
	assert.Zero(t, w.inserted)

	// Both batches keep the failed run's rows.
	assert.Equal(t, 2, w.profiles.Len())
	assert.Equal(t, 1, w.peaks.Len())
}

func TestWriter_DrainFlushesRemainder(t *testing.T) {
	w := newTestWriter(nil, 100)
	start := time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC)

	results := make(chan result, 3)
	for i := 0; i < 3; i++ {
		results <- testResult(start.Add(time.Duration(i) * time.Hour))
	}
	close(results)

	require.NoError(t, w.drain(context.Background(), results, func() { t.Fatal("stop called") }))
	assert.Zero(t, w.profiles.Len())
	assert.Zero(t, w.peaks.Len())
}
