package iri

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingKernel struct {
	got  []KernelInput
	err  error
	wide int // extra columns returned beyond the requested heights
}

func (k *recordingKernel) Run(_ context.Context, in KernelInput) (RawOutput, error) {
	k.got = append(k.got, in)
	if k.err != nil {
		return RawOutput{}, k.err
	}
	heights := append([]float64(nil), in.Heights...)
	for i := 0; i < k.wide; i++ {
		heights = append(heights, 0)
	}
	return fakeOutput(heights), nil
}

func TestModel_Run_EndToEnd(t *testing.T) {
	k := &recordingKernel{}
	m := NewModel(k)
	alts := []float64{100, 200, 300}
	req := NewRequest(time.Date(2013, 3, 31, 12, 0, 0, 0, time.UTC), 65.1, 212.5, 150, alts...)

	p, err := m.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, k.got, 1)
	assert.Equal(t, DefaultFlags, k.got[0].JF)
	assert.Equal(t, "0331", k.got[0].MMDD)
	assert.Equal(t, -150.0, k.got[0].RZ12)

	raw := fakeOutput(alts)
	require.Equal(t, 3, p.Len())
	for i, s := range p.Samples {
		assert.Equal(t, alts[i], s.Altitude)
		assert.Equal(t, raw.Out[RowNe][i], s.Ne)
		assert.Equal(t, raw.Out[RowTn][i], s.Tn)
		assert.Equal(t, raw.Out[RowTi][i], s.Ti)
		assert.Equal(t, raw.Out[RowTe][i], s.Te)

		derived := s.Values()[4:]
		for j, v := range derived {
			assert.Equal(t, raw.Out[RowNe][i]*raw.Out[RowOPlus+j][i]/100, v, "row %d ion %s", i, Columns[4+j])
		}
	}
	assert.Equal(t, raw.Aux, p.RawAux)
	assert.Equal(t, 2.0, p.Aux.HmF2)
}

func TestModel_Run_RowCountMatchesAltitudes(t *testing.T) {
	m := NewModel(&recordingKernel{wide: 2})
	for _, n := range []int{1, 2, 17} {
		alts := AltitudeGrid(100, 100+float64(n-1)*10, 10)
		req := NewRequest(time.Now(), 0, 0, 70, alts...)
		p, err := m.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, n, p.Len())
	}
}

func TestModel_Run_KernelErrorUnchanged(t *testing.T) {
	boom := errors.New("IRI90: malformed input shape")
	m := NewModel(&recordingKernel{err: boom})

	p, err := m.Run(context.Background(), NewRequest(time.Now(), 0, 0, 70, 100))
	assert.Nil(t, p)
	assert.Same(t, boom, err)
}

func TestModel_Run_FuncKernelRestoresWorkingDir(t *testing.T) {
	dir := newInstall(t)
	before := getwd(t)
	boom := errors.New("kernel failure")

	m := NewModel(&FuncKernel{Dir: dir, Fn: func(KernelInput) (RawOutput, error) {
		return RawOutput{}, boom
	}})
	_, err := m.Run(context.Background(), NewRequest(time.Now(), 0, 0, 70, 100))
	assert.Same(t, boom, err)
	assert.Equal(t, before, getwd(t))

	m = NewModel(&FuncKernel{Dir: dir, Fn: func(in KernelInput) (RawOutput, error) {
		return fakeOutput(in.Heights), nil
	}})
	p, err := m.Run(context.Background(), NewRequest(time.Now(), 0, 0, 70, 100, 200))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, before, getwd(t))
}
