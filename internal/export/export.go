// Package export writes and reads IRI profile tables as CSV, gzip CSV
// and Parquet files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
	"github.com/KI7MT/ki7mt-iri-apps/internal/store"
)

// Row is one altitude sample of one run, flattened for file output.
type Row struct {
	RunTime     int64   `parquet:"run_time"` // Unix seconds, UTC
	Lat         float64 `parquet:"lat"`
	Lon         float64 `parquet:"lon"`
	Coord       int32   `parquet:"coord"`
	F107        float64 `parquet:"f107"`
	Flags       string  `parquet:"flags"`
	Source      string  `parquet:"source"`
	Altitude    float64 `parquet:"alt_km"`
	Ne          float64 `parquet:"ne"`
	Tn          float64 `parquet:"tn"`
	Ti          float64 `parquet:"ti"`
	Te          float64 `parquet:"te"`
	NOPlus      float64 `parquet:"n_o_plus"`
	NHPlus      float64 `parquet:"n_h_plus"`
	NHePlus     float64 `parquet:"n_he_plus"`
	NO2Plus     float64 `parquet:"n_o2_plus"`
	NNOPlus     float64 `parquet:"n_no_plus"`
	NClusterIon float64 `parquet:"n_cluster"`
	NNPlus      float64 `parquet:"n_n_plus"`
}

// Rows flattens a profile.
func Rows(run store.Run, p *iri.Profile) []Row {
	rows := make([]Row, len(p.Samples))
	for i, s := range p.Samples {
		rows[i] = Row{
			RunTime:     run.Time.Unix(),
			Lat:         run.Lat,
			Lon:         run.Lon,
			Coord:       int32(run.Coord),
			F107:        run.F107,
			Flags:       run.Flags.String(),
			Source:      run.Source,
			Altitude:    s.Altitude,
			Ne:          s.Ne,
			Tn:          s.Tn,
			Ti:          s.Ti,
			Te:          s.Te,
			NOPlus:      s.NOPlus,
			NHPlus:      s.NHPlus,
			NHePlus:     s.NHePlus,
			NO2Plus:     s.NO2Plus,
			NNOPlus:     s.NNOPlus,
			NClusterIon: s.NClusterIon,
			NNPlus:      s.NNPlus,
		}
	}
	return rows
}

// Run returns the run key of r.
func (r Row) Run() (store.Run, error) {
	flags, err := iri.ParseFlags(r.Flags)
	if err != nil {
		return store.Run{}, err
	}
	return store.Run{
		Time:   time.Unix(r.RunTime, 0).UTC(),
		Lat:    r.Lat,
		Lon:    r.Lon,
		Coord:  iri.CoordMode(r.Coord),
		F107:   r.F107,
		Flags:  flags,
		Source: r.Source,
	}, nil
}

// Sample returns the table row of r.
func (r Row) Sample() iri.Sample {
	return iri.Sample{
		Altitude:    r.Altitude,
		Ne:          r.Ne,
		Tn:          r.Tn,
		Ti:          r.Ti,
		Te:          r.Te,
		NOPlus:      r.NOPlus,
		NHPlus:      r.NHPlus,
		NHePlus:     r.NHePlus,
		NO2Plus:     r.NO2Plus,
		NNOPlus:     r.NNOPlus,
		NClusterIon: r.NClusterIon,
		NNPlus:      r.NNPlus,
	}
}

// =============================================================================
// File Formats
// =============================================================================

// Format is a supported file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatCSVGzip Format = "csv.gz"
	FormatParquet Format = "parquet"
)

// ErrUnknownFormat is returned for unsupported file extensions.
var ErrUnknownFormat = errors.New("export: unknown file format")

// DetectFormat determines the file format from the extension.
func DetectFormat(path string) (Format, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".csv.gz"):
		return FormatCSVGzip, nil
	case strings.HasSuffix(base, ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(base, ".parquet"):
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
}

// WriteFile writes rows to path in the format given by its extension.
// The file is written to a temporary name and renamed into place.
func WriteFile(path string, rows []Row) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}

	switch format {
	case FormatCSV:
		err = WriteCSV(f, rows)
	case FormatCSVGzip:
		err = WriteCSVGzip(f, rows)
	case FormatParquet:
		err = WriteParquet(f, rows)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}

// ReadFile reads rows from path in the format given by its extension.
func ReadFile(path string) ([]Row, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		return ReadCSV(f)
	case FormatCSVGzip:
		return ReadCSVGzip(f)
	default:
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		return ReadParquet(f, info.Size())
	}
}
