package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
)

// csvHeader is the CSV column order. Table columns keep their profile names.
var csvHeader = append([]string{"run_time", "lat", "lon", "coord", "f107", "flags", "source", "alt_km"}, iri.Columns...)

// WriteCSV writes rows with a header line. run_time is RFC 3339 UTC.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	record := make([]string, len(csvHeader))
	for _, r := range rows {
		record[0] = time.Unix(r.RunTime, 0).UTC().Format(time.RFC3339)
		record[1] = formatFloat(r.Lat)
		record[2] = formatFloat(r.Lon)
		record[3] = strconv.Itoa(int(r.Coord))
		record[4] = formatFloat(r.F107)
		record[5] = r.Flags
		record[6] = r.Source
		record[7] = formatFloat(r.Altitude)
		for i, v := range r.Sample().Values() {
			record[8+i] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVGzip writes gzip-compressed CSV using parallel compression.
func WriteCSVGzip(w io.Writer, rows []Row) error {
	gz := pgzip.NewWriter(w)
	if err := gz.SetConcurrency(256*1024, runtime.NumCPU()); err != nil {
		gz.Close()
		return err
	}
	if err := WriteCSV(gz, rows); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// ReadCSV reads rows written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, name := range csvHeader {
		if header[i] != name {
			return nil, fmt.Errorf("csv: column %d is %q, want %q", i, header[i], name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVGzip reads gzip-compressed CSV.
func ReadCSVGzip(r io.Reader) ([]Row, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return ReadCSV(gz)
}

func parseRecord(record []string) (Row, error) {
	ts, err := time.Parse(time.RFC3339, record[0])
	if err != nil {
		return Row{}, err
	}
	coord, err := strconv.ParseUint(record[3], 10, 8)
	if err != nil {
		return Row{}, err
	}

	nums := make([]float64, 0, len(record))
	for _, i := range []int{1, 2, 4} {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return Row{}, fmt.Errorf("%s: %w", csvHeader[i], err)
		}
		nums = append(nums, v)
	}
	for i := 7; i < len(record); i++ {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return Row{}, fmt.Errorf("%s: %w", csvHeader[i], err)
		}
		nums = append(nums, v)
	}

	return Row{
		RunTime:     ts.Unix(),
		Lat:         nums[0],
		Lon:         nums[1],
		Coord:       int32(coord),
		F107:        nums[2],
		Flags:       record[5],
		Source:      record[6],
		Altitude:    nums[3],
		Ne:          nums[4],
		Tn:          nums[5],
		Ti:          nums[6],
		Te:          nums[7],
		NOPlus:      nums[8],
		NHPlus:      nums[9],
		NHePlus:     nums[10],
		NO2Plus:     nums[11],
		NNOPlus:     nums[12],
		NClusterIon: nums[13],
		NNPlus:      nums[14],
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
