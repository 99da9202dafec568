package iri

import (
	"math"
	"time"
)

// DataPath is the kernel-relative location of the coefficient files.
const DataPath = "data/"

// KernelInput is the positional argument layout of the IRI-90 entry point:
// IRI90(JF, JMAG, ALATI, ALONG, RZ12, MMDD, DHOUR, ZKM, DIRECT).
type KernelInput struct {
	JF       Flags
	JMag     int
	Lat      float64   // ALATI
	Lon      float64   // ALONG, in [0,360)
	RZ12     float64   // negative values are read as F10.7
	MMDD     string    // UTC month and day
	Hour     float64   // DHOUR, fractional UTC hour
	Heights  []float64 // ZKM
	DataPath string    // DIRECT
}

// NewKernelInput converts a request into the kernel layout.
func NewKernelInput(req Request) KernelInput {
	t := req.Time.UTC()
	return KernelInput{
		JF:       req.Flags,
		JMag:     int(req.Coord),
		Lat:      req.Lat,
		Lon:      WrapLongitude(req.Lon),
		RZ12:     -req.F107,
		MMDD:     t.Format("0102"),
		Hour:     FractionalHour(t),
		Heights:  req.Altitudes,
		DataPath: DataPath,
	}
}

// WrapLongitude maps any longitude into [0,360).
func WrapLongitude(lon float64) float64 {
	w := math.Mod(lon, 360)
	if w < 0 {
		w += 360
	}
	if w >= 360 {
		w = 0
	}
	return w
}

// FractionalHour returns the hour of day of t including minutes,
// seconds and nanoseconds, in t's own location.
func FractionalHour(t time.Time) float64 {
	return float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600
}
