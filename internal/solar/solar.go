// Package solar provides solar and geomagnetic indices for IRI runs.
// This package reads daily F10.7 and Ap either from the GFZ Potsdam
// Kp/ap/SN/F10.7 file or from the lab's ClickHouse solar.indices_raw table.
package solar

import (
	"context"
	"errors"
	"time"
)

// Index represents one day of solar and geomagnetic indices.
type Index struct {
	Date    time.Time
	SFI     float64 // observed F10.7 (SFU)
	SFIAdj  float64 // adjusted F10.7
	SFI81   float64 // 81-day centred mean of observed F10.7
	SSN     float64 // sunspot number
	ApIndex float64 // daily planetary Ap
}

// ErrNoData is returned when a source has no F10.7 for the requested day.
var ErrNoData = errors.New("solar: no F10.7 for date")

// FluxSource looks up the indices for a UTC day.
type FluxSource interface {
	Lookup(ctx context.Context, day time.Time) (Index, error)
}

// Fixed serves the same F10.7 for every day.
type Fixed struct {
	SFI float64
}

// Lookup implements FluxSource.
func (f Fixed) Lookup(_ context.Context, day time.Time) (Index, error) {
	return Index{Date: Day(day), SFI: f.SFI, SFIAdj: f.SFI, SFI81: f.SFI}, nil
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AverageWindow is the half width in days of the F10.7A window.
const AverageWindow = 40
