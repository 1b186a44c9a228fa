package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkspace(t *testing.T) {
	ws := NewWorkspace(3, 4)

	assert.Equal(t, 3, ws.NumberOfHistograms())
	assert.Empty(t, ws.Name())
	assert.Equal(t, uint64(3*4*8), ws.MemorySize())

	y, err := ws.Y(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, y)
}

func TestWorkspace_SetY(t *testing.T) {
	ws := NewWorkspace(2, 2)

	require.NoError(t, ws.SetY(1, []float64{1.5, 2.5}))
	y, err := ws.Y(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, y)

	// Returned slices are copies
	y[0] = 99
	again, _ := ws.Y(1)
	assert.Equal(t, 1.5, again[0])

	err = ws.SetY(5, nil)
	assert.True(t, errors.Is(err, ErrSpectrumIndex))
	_, err = ws.Y(-1)
	assert.True(t, errors.Is(err, ErrSpectrumIndex))
}

func TestWorkspace_MemorySizeIncludesRun(t *testing.T) {
	ws := NewWorkspace(1, 1)
	ws.Run().AddProperty(NPeriodsProperty, "3")

	assert.Equal(t, uint64(8+len(NPeriodsProperty)+1), ws.MemorySize())
}

func TestWorkspace_Clone(t *testing.T) {
	ws := NewWorkspaceFromData("sample", [][]float64{{1, 2}, {3, 4}}, map[string]string{"run_number": "42"})
	require.NoError(t, ws.SetName("orig", false))

	clone := ws.Clone()
	assert.Empty(t, clone.Name())
	assert.Equal(t, "sample", clone.Title())
	assert.Equal(t, ws.Spectra(), clone.Spectra())

	require.NoError(t, clone.SetY(0, []float64{9, 9}))
	y, _ := ws.Y(0)
	assert.Equal(t, []float64{1, 2}, y, "clone must not share spectra")

	v, ok := clone.Run().Property("run_number")
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestRun_IntProperty(t *testing.T) {
	run := NewRun()
	run.AddProperty(NPeriodsProperty, "4")
	run.AddProperty("label", "abc")

	n, err := run.IntProperty(NPeriodsProperty)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = run.IntProperty("missing")
	assert.True(t, errors.Is(err, ErrPropertyNotFound))

	_, err = run.IntProperty("label")
	assert.Error(t, err)

	assert.Equal(t, []string{"label", NPeriodsProperty}, run.Keys())
	assert.True(t, run.HasProperty("label"))
}
