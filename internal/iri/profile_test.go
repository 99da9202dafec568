package iri

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput builds an 11-row kernel result for the given heights.
func fakeOutput(heights []float64) RawOutput {
	out := make([][]float64, NumRows)
	for r := range out {
		out[r] = make([]float64, len(heights))
	}
	for i, h := range heights {
		out[RowNe][i] = 1e11 * (1 + h/100)
		out[RowTn][i] = 200 + h
		out[RowTi][i] = 300 + h
		out[RowTe][i] = 400 + h
		// Ion shares, percent of Ne.
		out[RowOPlus][i] = 60
		out[RowHPlus][i] = 5
		out[RowHePlus][i] = 1
		out[RowO2Plus][i] = 12
		out[RowNOPlus][i] = 20
		out[RowClusterIons][i] = 0
		out[RowNPlus][i] = 2
	}
	aux := make([]float64, 30)
	for i := range aux {
		aux[i] = float64(i + 1)
	}
	return RawOutput{Out: out, Aux: aux}
}

func TestReshape(t *testing.T) {
	alts := []float64{100, 200, 300}
	raw := fakeOutput(alts)

	p, err := Reshape(raw, alts)
	require.NoError(t, err)
	require.Equal(t, len(alts), p.Len())
	assert.Equal(t, alts, p.Altitudes())

	for i, s := range p.Samples {
		ne := raw.Out[RowNe][i]
		assert.Equal(t, ne, s.Ne)
		assert.Equal(t, raw.Out[RowTn][i], s.Tn)
		assert.Equal(t, raw.Out[RowTi][i], s.Ti)
		assert.Equal(t, raw.Out[RowTe][i], s.Te)
		assert.Equal(t, ne*raw.Out[RowOPlus][i]/100, s.NOPlus)
		assert.Equal(t, ne*raw.Out[RowHPlus][i]/100, s.NHPlus)
		assert.Equal(t, ne*raw.Out[RowHePlus][i]/100, s.NHePlus)
		assert.Equal(t, ne*raw.Out[RowO2Plus][i]/100, s.NO2Plus)
		assert.Equal(t, ne*raw.Out[RowNOPlus][i]/100, s.NNOPlus)
		assert.Equal(t, ne*raw.Out[RowClusterIons][i]/100, s.NClusterIon)
		assert.Equal(t, ne*raw.Out[RowNPlus][i]/100, s.NNPlus)
	}

	assert.Equal(t, raw.Aux, p.RawAux)
}

func TestReshape_ExtraColumnsIgnored(t *testing.T) {
	raw := fakeOutput([]float64{100, 200, 300, 400})
	p, err := Reshape(raw, []float64{100, 200})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
}

func TestReshape_Malformed(t *testing.T) {
	alts := []float64{100, 200}

	short := fakeOutput(alts)
	short.Out = short.Out[:4]
	_, err := Reshape(short, alts)
	assert.ErrorContains(t, err, "has 4 rows")

	narrow := fakeOutput(alts[:1])
	_, err = Reshape(narrow, alts)
	assert.ErrorContains(t, err, "1 values for 2 altitudes")
}

func TestProfile_Column(t *testing.T) {
	alts := []float64{100, 200}
	raw := fakeOutput(alts)
	p, err := Reshape(raw, alts)
	require.NoError(t, err)

	ne, ok := p.Column(ColNe)
	require.True(t, ok)
	assert.Equal(t, raw.Out[RowNe], ne)

	nplus, ok := p.Column(ColNNPlus)
	require.True(t, ok)
	assert.Equal(t, []float64{ne[0] * 2 / 100, ne[1] * 2 / 100}, nplus)

	_, ok = p.Column("nAr+")
	assert.False(t, ok)

	assert.Len(t, Columns, 11)
	assert.Len(t, p.Samples[0].Values(), len(Columns))
}

func TestDecodeAux(t *testing.T) {
	aux := make([]float64, 30)
	for i := range aux {
		aux[i] = float64(i)
	}
	a := DecodeAux(aux)

	assert.Equal(t, 0.0, a.NmF2)
	assert.Equal(t, 1.0, a.HmF2)
	assert.Equal(t, 8.0, a.HHalf)
	assert.Equal(t, 9.0, a.B0)
	assert.Equal(t, 12.0, a.TePeak)
	assert.Equal(t, 19.0, a.TeMod120)
	assert.Equal(t, 22.0, a.SZA)
	assert.Equal(t, 23.0, a.SunDecl)
	assert.Equal(t, 25.0, a.DipLat)
	assert.Equal(t, 26.0, a.ModDipLat)
	assert.Equal(t, 27, NumAux)
}

func TestDecodeAux_Short(t *testing.T) {
	a := DecodeAux([]float64{3e11, 280})
	assert.Equal(t, 3e11, a.NmF2)
	assert.Equal(t, 280.0, a.HmF2)
	assert.True(t, math.IsNaN(a.NmF1))
	assert.True(t, math.IsNaN(a.ModDipLat))
}
