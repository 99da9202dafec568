package iri

import (
	"fmt"
	"math"
)

// =============================================================================
// Output Table
// =============================================================================

// Column names, in table order.
const (
	ColNe           = "ne"
	ColTn           = "Tn"
	ColTi           = "Ti"
	ColTe           = "Te"
	ColNOPlus       = "nO+"
	ColNHPlus       = "nH+"
	ColNHePlus      = "nHe+"
	ColNO2Plus      = "nO2+"
	ColNNOPlus      = "nNO+"
	ColNClusterIons = "nClusterIons"
	ColNNPlus       = "nN+"
)

// Columns lists the table columns in order.
var Columns = []string{
	ColNe, ColTn, ColTi, ColTe,
	ColNOPlus, ColNHPlus, ColNHePlus, ColNO2Plus, ColNNOPlus, ColNClusterIons, ColNNPlus,
}

// Kernel output rows.
const (
	RowNe = iota // electron density, m-3
	RowTn        // neutral temperature, K
	RowTi        // ion temperature, K
	RowTe        // electron temperature, K
	RowOPlus     // ion shares of Ne, percent
	RowHPlus
	RowHePlus
	RowO2Plus
	RowNOPlus
	RowClusterIons
	RowNPlus

	NumRows
)

// Sample is one row of the output table.
type Sample struct {
	Altitude    float64 `json:"alt_km"`
	Ne          float64 `json:"ne"`
	Tn          float64 `json:"Tn"`
	Ti          float64 `json:"Ti"`
	Te          float64 `json:"Te"`
	NOPlus      float64 `json:"nO+"`
	NHPlus      float64 `json:"nH+"`
	NHePlus     float64 `json:"nHe+"`
	NO2Plus     float64 `json:"nO2+"`
	NNOPlus     float64 `json:"nNO+"`
	NClusterIon float64 `json:"nClusterIons"`
	NNPlus      float64 `json:"nN+"`
}

// Values returns the sample's columns in Columns order.
func (s Sample) Values() []float64 {
	return []float64{
		s.Ne, s.Tn, s.Ti, s.Te,
		s.NOPlus, s.NHPlus, s.NHePlus, s.NO2Plus, s.NNOPlus, s.NClusterIon, s.NNPlus,
	}
}

// Profile is the labeled result of one run, indexed by altitude.
type Profile struct {
	Samples []Sample
	RawAux  []float64 // OARR exactly as returned
	Aux     Aux
}

// Len returns the number of altitude rows.
func (p *Profile) Len() int {
	return len(p.Samples)
}

// Altitudes returns the row index.
func (p *Profile) Altitudes() []float64 {
	alts := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		alts[i] = s.Altitude
	}
	return alts
}

// Column returns one column by name, or false if the name is unknown.
func (p *Profile) Column(name string) ([]float64, bool) {
	idx := -1
	for i, c := range Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		col[i] = s.Values()[idx]
	}
	return col, true
}

// Reshape turns raw kernel output into a profile with one row per altitude.
// Ion shares are converted from percent of Ne to absolute densities.
// Only the rows and columns that are indexed are checked.
func Reshape(raw RawOutput, altitudes []float64) (*Profile, error) {
	if len(raw.Out) < NumRows {
		return nil, fmt.Errorf("reshape: kernel output has %d rows, want %d", len(raw.Out), NumRows)
	}
	for r := 0; r < NumRows; r++ {
		if len(raw.Out[r]) < len(altitudes) {
			return nil, fmt.Errorf("reshape: kernel row %d has %d values for %d altitudes", r, len(raw.Out[r]), len(altitudes))
		}
	}

	out := raw.Out
	samples := make([]Sample, len(altitudes))
	for i, alt := range altitudes {
		ne := out[RowNe][i]
		samples[i] = Sample{
			Altitude:    alt,
			Ne:          ne,
			Tn:          out[RowTn][i],
			Ti:          out[RowTi][i],
			Te:          out[RowTe][i],
			NOPlus:      ne * out[RowOPlus][i] / 100,
			NHPlus:      ne * out[RowHPlus][i] / 100,
			NHePlus:     ne * out[RowHePlus][i] / 100,
			NO2Plus:     ne * out[RowO2Plus][i] / 100,
			NNOPlus:     ne * out[RowNOPlus][i] / 100,
			NClusterIon: ne * out[RowClusterIons][i] / 100,
			NNPlus:      ne * out[RowNPlus][i] / 100,
		}
	}

	return &Profile{
		Samples: samples,
		RawAux:  raw.Aux,
		Aux:     DecodeAux(raw.Aux),
	}, nil
}

// =============================================================================
// Auxiliary Output (OARR)
// =============================================================================

// OARR positions. The order is the kernel's contract.
const (
	AuxNmF2 = iota
	AuxHmF2
	AuxNmF1
	AuxHmF1
	AuxNmE
	AuxHmE
	AuxNmD
	AuxHmD
	AuxHHalf
	AuxB0
	AuxValleyBase
	AuxValleyTop
	AuxTePeak
	AuxTePeakHeight
	AuxTeMod300
	AuxTeMod400
	AuxTeMod600
	AuxTeMod1400
	AuxTeMod3000
	AuxTeMod120
	AuxTeMod430
	AuxTeTiHeight
	AuxSZA
	AuxSunDecl
	AuxDip
	AuxDipLat
	AuxModDipLat

	NumAux
)

// Aux names the documented OARR entries. Missing entries are NaN.
type Aux struct {
	NmF2         float64 `json:"nmF2"` // m-3
	HmF2         float64 `json:"hmF2"` // km
	NmF1         float64 `json:"nmF1"`
	HmF1         float64 `json:"hmF1"`
	NmE          float64 `json:"nmE"`
	HmE          float64 `json:"hmE"`
	NmD          float64 `json:"nmD"`
	HmD          float64 `json:"hmD"`
	HHalf        float64 `json:"hhalf"` // km
	B0           float64 `json:"B0"`    // km
	ValleyBase   float64 `json:"valley_base"`
	ValleyTop    float64 `json:"valley_top"`
	TePeak       float64 `json:"te_peak"`        // K
	TePeakHeight float64 `json:"te_peak_height"` // km
	TeMod300     float64 `json:"te_mod_300"`
	TeMod400     float64 `json:"te_mod_400"`
	TeMod600     float64 `json:"te_mod_600"`
	TeMod1400    float64 `json:"te_mod_1400"`
	TeMod3000    float64 `json:"te_mod_3000"`
	TeMod120     float64 `json:"te_mod_120"` // Te = Ti = Tn at 120 km
	TeMod430     float64 `json:"te_mod_430"`
	TeTiHeight   float64 `json:"te_ti_height"` // km where Te = Ti
	SZA          float64 `json:"sza"`          // deg
	SunDecl      float64 `json:"sun_decl"`     // deg
	Dip          float64 `json:"dip"`
	DipLat       float64 `json:"dip_lat"`
	ModDipLat    float64 `json:"mod_dip_lat"`
}

// DecodeAux maps OARR positions onto named fields.
func DecodeAux(aux []float64) Aux {
	at := func(i int) float64 {
		if i < len(aux) {
			return aux[i]
		}
		return math.NaN()
	}
	return Aux{
		NmF2:         at(AuxNmF2),
		HmF2:         at(AuxHmF2),
		NmF1:         at(AuxNmF1),
		HmF1:         at(AuxHmF1),
		NmE:          at(AuxNmE),
		HmE:          at(AuxHmE),
		NmD:          at(AuxNmD),
		HmD:          at(AuxHmD),
		HHalf:        at(AuxHHalf),
		B0:           at(AuxB0),
		ValleyBase:   at(AuxValleyBase),
		ValleyTop:    at(AuxValleyTop),
		TePeak:       at(AuxTePeak),
		TePeakHeight: at(AuxTePeakHeight),
		TeMod300:     at(AuxTeMod300),
		TeMod400:     at(AuxTeMod400),
		TeMod600:     at(AuxTeMod600),
		TeMod1400:    at(AuxTeMod1400),
		TeMod3000:    at(AuxTeMod3000),
		TeMod120:     at(AuxTeMod120),
		TeMod430:     at(AuxTeMod430),
		TeTiHeight:   at(AuxTeTiHeight),
		SZA:          at(AuxSZA),
		SunDecl:      at(AuxSunDecl),
		Dip:          at(AuxDip),
		DipLat:       at(AuxDipLat),
		ModDipLat:    at(AuxModDipLat),
	}
}
