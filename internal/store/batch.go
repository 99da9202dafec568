package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/ch-go/proto"

	"github.com/KI7MT/ki7mt-iri-apps/internal/iri"
)

// Batch is a columnar insert buffer.
type Batch interface {
	Len() int
	Reset()
	Input() proto.Input
	InsertQuery(tableFQN string) string
}

// Run identifies one kernel invocation.
type Run struct {
	Time   time.Time
	Lat    float64
	Lon    float64
	Coord  iri.CoordMode
	F107   float64
	Flags  iri.Flags
	Source string
}

// RunFromRequest builds the run key for req.
func RunFromRequest(req iri.Request, source string) Run {
	return Run{
		Time:   req.Time.UTC(),
		Lat:    req.Lat,
		Lon:    iri.WrapLongitude(req.Lon),
		Coord:  req.Coord,
		F107:   req.F107,
		Flags:  req.Flags,
		Source: source,
	}
}

func insertQuery(tableFQN string, input proto.Input) string {
	names := make([]string, len(input))
	for i, col := range input {
		names[i] = col.Name
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES", tableFQN, strings.Join(names, ", "))
}

// =============================================================================
// Profile Batch
// =============================================================================

// ProfileBatch holds column data for iri.profiles.
type ProfileBatch struct {
	RunTime  *proto.ColDateTime
	Lat      *proto.ColFloat32
	Lon      *proto.ColFloat32
	Coord    *proto.ColUInt8
	F107     *proto.ColFloat32
	Alt      *proto.ColFloat32
	Ne       *proto.ColFloat64
	Tn       *proto.ColFloat32
	Ti       *proto.ColFloat32
	Te       *proto.ColFloat32
	NOPlus   *proto.ColFloat64
	NHPlus   *proto.ColFloat64
	NHePlus  *proto.ColFloat64
	NO2Plus  *proto.ColFloat64
	NNOPlus  *proto.ColFloat64
	NCluster *proto.ColFloat64
	NNPlus   *proto.ColFloat64
	Flags    *proto.ColStr
	Source   *proto.ColStr
}

func NewProfileBatch() *ProfileBatch {
	return &ProfileBatch{
		RunTime:  new(proto.ColDateTime),
		Lat:      new(proto.ColFloat32),
		Lon:      new(proto.ColFloat32),
		Coord:    new(proto.ColUInt8),
		F107:     new(proto.ColFloat32),
		Alt:      new(proto.ColFloat32),
		Ne:       new(proto.ColFloat64),
		Tn:       new(proto.ColFloat32),
		Ti:       new(proto.ColFloat32),
		Te:       new(proto.ColFloat32),
		NOPlus:   new(proto.ColFloat64),
		NHPlus:   new(proto.ColFloat64),
		NHePlus:  new(proto.ColFloat64),
		NO2Plus:  new(proto.ColFloat64),
		NNOPlus:  new(proto.ColFloat64),
		NCluster: new(proto.ColFloat64),
		NNPlus:   new(proto.ColFloat64),
		Flags:    new(proto.ColStr),
		Source:   new(proto.ColStr),
	}
}

func (b *ProfileBatch) Reset() {
	b.RunTime.Reset()
	b.Lat.Reset()
	b.Lon.Reset()
	b.Coord.Reset()
	b.F107.Reset()
	b.Alt.Reset()
	b.Ne.Reset()
	b.Tn.Reset()
	b.Ti.Reset()
	b.Te.Reset()
	b.NOPlus.Reset()
	b.NHPlus.Reset()
	b.NHePlus.Reset()
	b.NO2Plus.Reset()
	b.NNOPlus.Reset()
	b.NCluster.Reset()
	b.NNPlus.Reset()
	b.Flags.Reset()
	b.Source.Reset()
}

func (b *ProfileBatch) Len() int {
	return b.RunTime.Rows()
}

func (b *ProfileBatch) Input() proto.Input {
	return proto.Input{
		{Name: "run_time", Data: b.RunTime},
		{Name: "lat", Data: b.Lat},
		{Name: "lon", Data: b.Lon},
		{Name: "coord", Data: b.Coord},
		{Name: "f107", Data: b.F107},
		{Name: "alt_km", Data: b.Alt},
		{Name: "ne", Data: b.Ne},
		{Name: "tn", Data: b.Tn},
		{Name: "ti", Data: b.Ti},
		{Name: "te", Data: b.Te},
		{Name: "n_o_plus", Data: b.NOPlus},
		{Name: "n_h_plus", Data: b.NHPlus},
		{Name: "n_he_plus", Data: b.NHePlus},
		{Name: "n_o2_plus", Data: b.NO2Plus},
		{Name: "n_no_plus", Data: b.NNOPlus},
		{Name: "n_cluster", Data: b.NCluster},
		{Name: "n_n_plus", Data: b.NNPlus},
		{Name: "flags", Data: b.Flags},
		{Name: "source", Data: b.Source},
	}
}

func (b *ProfileBatch) InsertQuery(tableFQN string) string {
	return insertQuery(tableFQN, b.Input())
}

// AddSample appends one altitude row.
func (b *ProfileBatch) AddSample(run Run, s iri.Sample) {
	b.RunTime.Append(run.Time)
	b.Lat.Append(float32(run.Lat))
	b.Lon.Append(float32(run.Lon))
	b.Coord.Append(uint8(run.Coord))
	b.F107.Append(float32(run.F107))
	b.Alt.Append(float32(s.Altitude))
	b.Ne.Append(s.Ne)
	b.Tn.Append(float32(s.Tn))
	b.Ti.Append(float32(s.Ti))
	b.Te.Append(float32(s.Te))
	b.NOPlus.Append(s.NOPlus)
	b.NHPlus.Append(s.NHPlus)
	b.NHePlus.Append(s.NHePlus)
	b.NO2Plus.Append(s.NO2Plus)
	b.NNOPlus.Append(s.NNOPlus)
	b.NCluster.Append(s.NClusterIon)
	b.NNPlus.Append(s.NNPlus)
	b.Flags.Append(run.Flags.String())
	b.Source.Append(run.Source)
}

// AddProfile appends every altitude row of p.
func (b *ProfileBatch) AddProfile(run Run, p *iri.Profile) {
	for _, s := range p.Samples {
		b.AddSample(run, s)
	}
}

// =============================================================================
// Peak Batch
// =============================================================================

// PeakBatch holds column data for iri.peaks.
type PeakBatch struct {
	RunTime   *proto.ColDateTime
	Lat       *proto.ColFloat32
	Lon       *proto.ColFloat32
	Coord     *proto.ColUInt8
	F107      *proto.ColFloat32
	NmF2      *proto.ColFloat64
	HmF2      *proto.ColFloat32
	NmF1      *proto.ColFloat64
	HmF1      *proto.ColFloat32
	NmE       *proto.ColFloat64
	HmE       *proto.ColFloat32
	NmD       *proto.ColFloat64
	HmD       *proto.ColFloat32
	HHalf     *proto.ColFloat32
	B0        *proto.ColFloat32
	TePeak    *proto.ColFloat32
	TePeakH   *proto.ColFloat32
	SZA       *proto.ColFloat32
	SunDecl   *proto.ColFloat32
	Dip       *proto.ColFloat32
	DipLat    *proto.ColFloat32
	ModDipLat *proto.ColFloat32
	Source    *proto.ColStr
}

func NewPeakBatch() *PeakBatch {
	return &PeakBatch{
		RunTime:   new(proto.ColDateTime),
		Lat:       new(proto.ColFloat32),
		Lon:       new(proto.ColFloat32),
		Coord:     new(proto.ColUInt8),
		F107:      new(proto.ColFloat32),
		NmF2:      new(proto.ColFloat64),
		HmF2:      new(proto.ColFloat32),
		NmF1:      new(proto.ColFloat64),
		HmF1:      new(proto.ColFloat32),
		NmE:       new(proto.ColFloat64),
		HmE:       new(proto.ColFloat32),
		NmD:       new(proto.ColFloat64),
		HmD:       new(proto.ColFloat32),
		HHalf:     new(proto.ColFloat32),
		B0:        new(proto.ColFloat32),
		TePeak:    new(proto.ColFloat32),
		TePeakH:   new(proto.ColFloat32),
		SZA:       new(proto.ColFloat32),
		SunDecl:   new(proto.ColFloat32),
		Dip:       new(proto.ColFloat32),
		DipLat:    new(proto.ColFloat32),
		ModDipLat: new(proto.ColFloat32),
		Source:    new(proto.ColStr),
	}
}

func (b *PeakBatch) Reset() {
	b.RunTime.Reset()
	b.Lat.Reset()
	b.Lon.Reset()
	b.Coord.Reset()
	b.F107.Reset()
	b.NmF2.Reset()
	b.HmF2.Reset()
	b.NmF1.Reset()
	b.HmF1.Reset()
	b.NmE.Reset()
	b.HmE.Reset()
	b.NmD.Reset()
	b.HmD.Reset()
	b.HHalf.Reset()
	b.B0.Reset()
	b.TePeak.Reset()
	b.TePeakH.Reset()
	b.SZA.Reset()
	b.SunDecl.Reset()
	b.Dip.Reset()
	b.DipLat.Reset()
	b.ModDipLat.Reset()
	b.Source.Reset()
}

func (b *PeakBatch) Len() int {
	return b.RunTime.Rows()
}

func (b *PeakBatch) Input() proto.Input {
	return proto.Input{
		{Name: "run_time", Data: b.RunTime},
		{Name: "lat", Data: b.Lat},
		{Name: "lon", Data: b.Lon},
		{Name: "coord", Data: b.Coord},
		{Name: "f107", Data: b.F107},
		{Name: "nmf2", Data: b.NmF2},
		{Name: "hmf2", Data: b.HmF2},
		{Name: "nmf1", Data: b.NmF1},
		{Name: "hmf1", Data: b.HmF1},
		{Name: "nme", Data: b.NmE},
		{Name: "hme", Data: b.HmE},
		{Name: "nmd", Data: b.NmD},
		{Name: "hmd", Data: b.HmD},
		{Name: "hhalf", Data: b.HHalf},
		{Name: "b0", Data: b.B0},
		{Name: "te_peak", Data: b.TePeak},
		{Name: "te_peak_h", Data: b.TePeakH},
		{Name: "sza", Data: b.SZA},
		{Name: "sun_decl", Data: b.SunDecl},
		{Name: "dip", Data: b.Dip},
		{Name: "dip_lat", Data: b.DipLat},
		{Name: "mod_dip_lat", Data: b.ModDipLat},
		{Name: "source", Data: b.Source},
	}
}

func (b *PeakBatch) InsertQuery(tableFQN string) string {
	return insertQuery(tableFQN, b.Input())
}

// AddPeaks appends the decoded OARR of one run.
func (b *PeakBatch) AddPeaks(run Run, a iri.Aux) {
	b.RunTime.Append(run.Time)
	b.Lat.Append(float32(run.Lat))
	b.Lon.Append(float32(run.Lon))
	b.Coord.Append(uint8(run.Coord))
	b.F107.Append(float32(run.F107))
	b.NmF2.Append(a.NmF2)
	b.HmF2.Append(float32(a.HmF2))
	b.NmF1.Append(a.NmF1)
	b.HmF1.Append(float32(a.HmF1))
	b.NmE.Append(a.NmE)
	b.HmE.Append(float32(a.HmE))
	b.NmD.Append(a.NmD)
	b.HmD.Append(float32(a.HmD))
	b.HHalf.Append(float32(a.HHalf))
	b.B0.Append(float32(a.B0))
	b.TePeak.Append(float32(a.TePeak))
	b.TePeakH.Append(float32(a.TePeakHeight))
	b.SZA.Append(float32(a.SZA))
	b.SunDecl.Append(float32(a.SunDecl))
	b.Dip.Append(float32(a.Dip))
	b.DipLat.Append(float32(a.DipLat))
	b.ModDipLat.Append(float32(a.ModDipLat))
	b.Source.Append(run.Source)
}
