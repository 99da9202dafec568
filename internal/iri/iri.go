// Package iri runs the International Reference Ionosphere (IRI-90) kernel.
// This package converts time, location and solar inputs into the kernel's
// argument layout, invokes the kernel once per profile, and reshapes the
// flat output into a labeled density/temperature table.
//
// The kernel itself is opaque. It is reached either as an external driver
// executable (ExecKernel) or as an in-process function (FuncKernel).
package iri

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Model Flags
// =============================================================================

// NumFlags is the length of the IRI-90 JF switch vector.
const NumFlags = 12

// Flags is the JF switch vector selecting kernel sub-options.
type Flags [NumFlags]bool

// DefaultFlags is the IRI-90 configuration used by Solomon (1993).
var DefaultFlags = Flags{true, true, true, true, false, true, true, true, true, true, true, false}

// String renders the flags as "1,1,1,1,0,...".
func (f Flags) String() string {
	parts := make([]string, NumFlags)
	for i, v := range f {
		if v {
			parts[i] = "1"
		} else {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, ",")
}

// ParseFlags parses a comma or space separated list of 12 values.
// Accepts 1/0, t/f and true/false.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != NumFlags {
		return f, fmt.Errorf("flags: got %d values, want %d", len(fields), NumFlags)
	}
	for i, field := range fields {
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "1", "t", "true":
			f[i] = true
		case "0", "f", "false":
			f[i] = false
		default:
			return f, fmt.Errorf("flags: invalid value %q at position %d", field, i)
		}
	}
	return f, nil
}

// =============================================================================
// Coordinates
// =============================================================================

// CoordMode selects how Lat/Lon are interpreted by the kernel (JMAG).
type CoordMode int

const (
	Geographic CoordMode = 0
	Magnetic   CoordMode = 1
)

func (c CoordMode) String() string {
	if c == Magnetic {
		return "magnetic"
	}
	return "geographic"
}

// =============================================================================
// Request
// =============================================================================

// Parity holds indices accepted for call-shape parity with the GLOW model.
// IRI-90 does not use them; they are never passed to the kernel.
type Parity struct {
	F107A *float64 // 81-day mean F10.7 (ignored)
	Ap    *float64 // daily planetary Ap (ignored)
}

// Request describes one profile run.
type Request struct {
	Time      time.Time // converted to UTC before use
	Altitudes []float64 // km, table row order
	Lat       float64   // deg
	Lon       float64   // deg, any range; wrapped into [0,360)
	F107      float64   // daily F10.7 in SFU
	Coord     CoordMode
	Flags     Flags
	Parity    Parity
}

// NewRequest returns a geographic request with DefaultFlags.
func NewRequest(t time.Time, lat, lon, f107 float64, altitudes ...float64) Request {
	return Request{
		Time:      t,
		Altitudes: altitudes,
		Lat:       lat,
		Lon:       lon,
		F107:      f107,
		Coord:     Geographic,
		Flags:     DefaultFlags,
	}
}

// AltitudeGrid returns start, start+step, ... up to and including stop.
func AltitudeGrid(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return []float64{start}
	}
	n := int((stop-start)/step+1e-9) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = start + float64(i)*step
	}
	return grid
}
