package solar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/ch-go/proto"
)

// BucketHours are the 3-hour bucket start hours (UTC) of indices_raw.
var BucketHours = [8]int{0, 3, 6, 9, 12, 15, 18, 21}

// IndicesDDL creates the table read by ClickHouseSource.
// ReplacingMergeTree(updated_at) on (date, time) handles re-runs.
func IndicesDDL(tableFQN string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	date          Date32,
	time          DateTime,
	observed_flux Float32,
	adjusted_flux Float32,
	ssn           Float32,
	kp_index      Float32,
	ap_index      Float32,
	xray_short    Float32,
	xray_long     Float32,
	source_file   String,
	updated_at    DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY (date, time)`, tableFQN)
}

// IndexBatch holds columnar solar.indices_raw rows for a native insert.
type IndexBatch struct {
	Date         *proto.ColDate32
	Time         *proto.ColDateTime
	ObservedFlux *proto.ColFloat32
	AdjustedFlux *proto.ColFloat32
	SSN          *proto.ColFloat32
	KpIndex      *proto.ColFloat32
	ApIndex      *proto.ColFloat32
	XrayShort    *proto.ColFloat32
	XrayLong     *proto.ColFloat32
	SourceFile   *proto.ColStr

	source string
}

// NewIndexBatch returns an empty batch tagging rows with source.
func NewIndexBatch(source string) *IndexBatch {
	return &IndexBatch{
		Date:         new(proto.ColDate32),
		Time:         new(proto.ColDateTime),
		ObservedFlux: new(proto.ColFloat32),
		AdjustedFlux: new(proto.ColFloat32),
		SSN:          new(proto.ColFloat32),
		KpIndex:      new(proto.ColFloat32),
		ApIndex:      new(proto.ColFloat32),
		XrayShort:    new(proto.ColFloat32),
		XrayLong:     new(proto.ColFloat32),
		SourceFile:   new(proto.ColStr),
		source:       source,
	}
}

func (b *IndexBatch) Reset() {
	b.Date.Reset()
	b.Time.Reset()
	b.ObservedFlux.Reset()
	b.AdjustedFlux.Reset()
	b.SSN.Reset()
	b.KpIndex.Reset()
	b.ApIndex.Reset()
	b.XrayShort.Reset()
	b.XrayLong.Reset()
	b.SourceFile.Reset()
}

func (b *IndexBatch) Len() int {
	return b.Date.Rows()
}

func (b *IndexBatch) Input() proto.Input {
	return proto.Input{
		{Name: "date", Data: b.Date},
		{Name: "time", Data: b.Time},
		{Name: "observed_flux", Data: b.ObservedFlux},
		{Name: "adjusted_flux", Data: b.AdjustedFlux},
		{Name: "ssn", Data: b.SSN},
		{Name: "kp_index", Data: b.KpIndex},
		{Name: "ap_index", Data: b.ApIndex},
		{Name: "xray_short", Data: b.XrayShort},
		{Name: "xray_long", Data: b.XrayLong},
		{Name: "source_file", Data: b.SourceFile},
	}
}

// InsertQuery returns the INSERT statement matching Input.
func (b *IndexBatch) InsertQuery(tableFQN string) string {
	input := b.Input()
	names := make([]string, len(input))
	for i, col := range input {
		names[i] = col.Name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", tableFQN, strings.Join(names, ", "))
}

// AddDay appends the eight 3-hour buckets of d. SSN and F10.7 are
// replicated across buckets; Kp and ap are bucket-specific.
func (b *IndexBatch) AddDay(d GFZDay) {
	for i, hour := range BucketHours {
		ts := time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), hour, 0, 0, 0, time.UTC)
		b.Date.Append(d.Date)
		b.Time.Append(ts)
		b.ObservedFlux.Append(d.SFIObs)
		b.AdjustedFlux.Append(d.SFIAdj)
		b.SSN.Append(d.SSN)
		b.KpIndex.Append(d.Kp[i])
		b.ApIndex.Append(d.Ap[i])
		b.XrayShort.Append(0)
		b.XrayLong.Append(0)
		b.SourceFile.Append(b.source)
	}
}
