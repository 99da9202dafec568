package solar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// GFZURL is the definitive GFZ Potsdam index file.
const GFZURL = "https://kp.gfz-potsdam.de/app/files/Kp_ap_Ap_SN_F107_since_1932.txt"

// GFZDay holds one parsed day from the GFZ Kp file.
type GFZDay struct {
	Date   time.Time
	Kp     [8]float32 // 3-hourly Kp (0-9 scale)
	Ap     [8]float32 // 3-hourly ap
	DayAp  float32
	SSN    float32
	SFIObs float32 // observed F10.7
	SFIAdj float32 // adjusted F10.7
}

// ParseGFZLine parses one data line from the GFZ Kp file.
// Format (whitespace-delimited):
//
//	Col  0: Year
//	Col  1: Month
//	Col  2: Day
//	Col  3: Days (days since 1932-01-01)
//	Col  4: Days_m (days since 1932-01-01, mid-day)
//	Col  5: Bsr (Bartels rotation)
//	Col  6: dB (day within rotation)
//	Col  7-14: Kp1..Kp8 (3-hourly, decimal 0.000-9.000)
//	Col 15-22: ap1..ap8 (3-hourly)
//	Col 23: Ap (daily)
//	Col 24: SN (sunspot number)
//	Col 25: F10.7obs
//	Col 26: F10.7adj
//
// Missing values are -1.000 or -1 and parse as 0.
func ParseGFZLine(line string) (GFZDay, bool) {
	fields := strings.Fields(line)
	if len(fields) < 27 {
		return GFZDay{}, false
	}

	year, err := strconv.Atoi(fields[0])
	if err != nil || year < 1900 || year > 2100 {
		return GFZDay{}, false
	}
	month, _ := strconv.Atoi(fields[1])
	day, _ := strconv.Atoi(fields[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return GFZDay{}, false
	}

	d := GFZDay{
		Date: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 8; i++ {
		d.Kp[i] = nonNegative(fields[7+i])
		d.Ap[i] = nonNegative(fields[15+i])
	}
	d.DayAp = nonNegative(fields[23])
	d.SSN = nonNegative(fields[24])
	d.SFIObs = nonNegative(fields[25])
	d.SFIAdj = nonNegative(fields[26])

	return d, true
}

func nonNegative(field string) float32 {
	v, err := strconv.ParseFloat(field, 32)
	if err != nil || v < 0 {
		return 0
	}
	return float32(v)
}

// ParseGFZ reads the GFZ file and returns days within [start, end].
// A zero end means no upper bound.
func ParseGFZ(reader io.Reader, start, end time.Time) ([]GFZDay, error) {
	var days []GFZDay
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, ok := ParseGFZLine(line)
		if !ok {
			continue
		}

		if d.Date.Before(start) || (!end.IsZero() && d.Date.After(end)) {
			continue
		}

		days = append(days, d)
	}

	return days, scanner.Err()
}

// =============================================================================
// GFZ Flux Source
// =============================================================================

// GFZSource serves indices from parsed GFZ days.
type GFZSource struct {
	days map[time.Time]GFZDay
}

// NewGFZSource indexes days by date.
func NewGFZSource(days []GFZDay) *GFZSource {
	s := &GFZSource{days: make(map[time.Time]GFZDay, len(days))}
	for _, d := range days {
		s.days[d.Date] = d
	}
	return s
}

// OpenGFZ parses a local GFZ file, keeping the days in [start, end] plus
// the averaging window on both sides.
func OpenGFZ(path string, start, end time.Time) (*GFZSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pad := AverageWindow * 24 * time.Hour
	if !end.IsZero() {
		end = end.Add(pad)
	}
	days, err := ParseGFZ(f, start.Add(-pad), end)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewGFZSource(days), nil
}

// Len returns the number of indexed days.
func (s *GFZSource) Len() int {
	return len(s.days)
}

// Lookup implements FluxSource. SFI81 is the mean of the observed F10.7
// values present in the 81 days centred on day.
func (s *GFZSource) Lookup(_ context.Context, day time.Time) (Index, error) {
	day = Day(day)
	d, ok := s.days[day]
	if !ok || d.SFIObs <= 0 {
		return Index{}, fmt.Errorf("%w %s", ErrNoData, day.Format("2006-01-02"))
	}

	var sum float64
	var n int
	for off := -AverageWindow; off <= AverageWindow; off++ {
		if w, ok := s.days[day.AddDate(0, 0, off)]; ok && w.SFIObs > 0 {
			sum += float64(w.SFIObs)
			n++
		}
	}

	return Index{
		Date:    day,
		SFI:     float64(d.SFIObs),
		SFIAdj:  float64(d.SFIAdj),
		SFI81:   sum / float64(n),
		SSN:     float64(d.SSN),
		ApIndex: float64(d.DayAp),
	}, nil
}
