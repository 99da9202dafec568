package iri

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWrapLongitude(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{10, 10},
		{370, 10},
		{-10, 350},
		{360, 0},
		{-360, 0},
		{719.5, 359.5},
		{212.5, 212.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapLongitude(tt.in), 1e-12, "lon %v", tt.in)
	}
}

func TestNewKernelInput_LongitudeEquivalence(t *testing.T) {
	ts := time.Date(2013, 3, 31, 12, 0, 0, 0, time.UTC)
	a := NewKernelInput(NewRequest(ts, 65, 370, 150, 100))
	b := NewKernelInput(NewRequest(ts, 65, 10, 150, 100))
	assert.Equal(t, a, b)
}

func TestNewKernelInput_Layout(t *testing.T) {
	ts := time.Date(2013, 3, 31, 12, 30, 0, 0, time.UTC)
	req := NewRequest(ts, 65.1, -147.5, 150, 100, 200, 300)
	req.Coord = Magnetic

	in := NewKernelInput(req)

	assert.Equal(t, DefaultFlags, in.JF)
	assert.Equal(t, 1, in.JMag)
	assert.Equal(t, 65.1, in.Lat)
	assert.Equal(t, 212.5, in.Lon)
	assert.Equal(t, -150.0, in.RZ12)
	assert.Equal(t, "0331", in.MMDD)
	assert.InDelta(t, 12.5, in.Hour, 1e-12)
	assert.Equal(t, []float64{100, 200, 300}, in.Heights)
	assert.Equal(t, "data/", in.DataPath)
}

func TestNewKernelInput_ConvertsToUTC(t *testing.T) {
	// 23:45 on 31 Dec in UTC-5 is 04:45 on 1 Jan UTC.
	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2012, 12, 31, 23, 45, 0, 0, est)

	in := NewKernelInput(NewRequest(ts, 40, -75, 100, 300))

	assert.Equal(t, "0101", in.MMDD)
	assert.InDelta(t, 4.75, in.Hour, 1e-12)
}

func TestFractionalHour(t *testing.T) {
	ts := time.Date(2020, 6, 1, 6, 15, 36, 0, time.UTC)
	assert.InDelta(t, 6.26, FractionalHour(ts), 1e-12)

	ts = time.Date(2020, 6, 1, 0, 0, 0, 500_000_000, time.UTC)
	assert.InDelta(t, 0.5/3600, FractionalHour(ts), 1e-15)
}

func TestNewKernelInput_IgnoresParity(t *testing.T) {
	ts := time.Date(2013, 3, 31, 12, 0, 0, 0, time.UTC)
	plain := NewRequest(ts, 65, 10, 150, 100)
	withParity := plain
	f107a, ap := 140.0, 12.0
	withParity.Parity = Parity{F107A: &f107a, Ap: &ap}

	assert.Equal(t, NewKernelInput(plain), NewKernelInput(withParity))
}
